// Package scan discovers inspection logs on the station share.
//
// The stations drop one XML report per panel into date-named subdirectories
// of the log root (2006_01_02). A report is picked up when its modification
// time is at or after the last-processed cutoff. Files whose stem ends in
// _AOI or _AXI are station temp files still being written and are skipped.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const dirLayout = "2006_01_02"

// Subdirs returns the existing date-named subdirectories of root covering
// the days from since through today, in ascending date order.
func Subdirs(root string, since time.Time) []string {
	var dirs []string
	day := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, since.Location())
	end := time.Now()
	for !day.After(end) {
		dir := filepath.Join(root, day.Format(dirLayout))
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			dirs = append(dirs, dir)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dirs
}

// Logs returns the report files under dirs modified at or after since,
// sorted by path for reproducible runs.
func Logs(dirs []string, since time.Time) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !isReport(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
			}
			if info.ModTime().Before(since) {
				continue
			}
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Discover combines Subdirs and Logs for the common case.
func Discover(root string, since time.Time) ([]string, error) {
	return Logs(Subdirs(root, since), since)
}

// isReport filters for finished XML reports: .xml/.XML extension and no
// _AOI/_AXI temp stem.
func isReport(name string) bool {
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, ".xml") {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	return !strings.HasSuffix(stem, "_AOI") && !strings.HasSuffix(stem, "_AXI")
}
