package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// makeLog creates a file and backdates its mtime.
func makeLog(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("<Root/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestDiscover verifies date-dir traversal, mtime cutoff, extension and
// temp-stem filtering, and sorted output.
func TestDiscover(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	today := filepath.Join(root, now.Format(dirLayout))
	yesterday := filepath.Join(root, now.AddDate(0, 0, -1).Format(dirLayout))

	fresh := now.Add(-time.Hour)
	stale := now.Add(-48 * time.Hour)

	wantB := makeLog(t, today, "panel_b.xml", fresh)
	wantA := makeLog(t, today, "panel_a.XML", fresh)
	makeLog(t, today, "panel_old.xml", stale)      // before cutoff
	makeLog(t, today, "panel_c_AOI.xml", fresh)    // station temp file
	makeLog(t, today, "panel_d_AXI.xml", fresh)    // station temp file
	makeLog(t, today, "notes.txt", fresh)          // wrong extension
	wantY := makeLog(t, yesterday, "panel_y.xml", fresh)

	since := now.AddDate(0, 0, -1).Add(-2 * time.Hour)
	got, err := Discover(root, since)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{wantY, wantA, wantB}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

// TestSubdirs_MissingDaysSkipped verifies that days without a directory do
// not appear and do not error.
func TestSubdirs_MissingDaysSkipped(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	today := filepath.Join(root, now.Format(dirLayout))
	if err := os.MkdirAll(today, 0o755); err != nil {
		t.Fatal(err)
	}

	dirs := Subdirs(root, now.AddDate(0, 0, -7))
	if len(dirs) != 1 || dirs[0] != today {
		t.Errorf("Subdirs = %v, want just %s", dirs, today)
	}
}

// TestIsReport covers the filename filter on its own.
func TestIsReport(t *testing.T) {
	cases := map[string]bool{
		"panel.xml":     true,
		"panel.XML":     true,
		"panel_AOI.xml": false,
		"panel_AXI.XML": false,
		"panel.txt":     false,
		"panel":         false,
	}
	for name, want := range cases {
		if got := isReport(name); got != want {
			t.Errorf("isReport(%q) = %v, want %v", name, got, want)
		}
	}
}
