package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Sha0S/AOI-uploader/internal/config"
	"github.com/Sha0S/AOI-uploader/internal/skiplog"
)

const validDoc = `<Root>
  <GlobalInformation>
    <Program><InspectionPlanName>PLAN-7</InspectionPlanName></Program>
    <Inspection>
      <Date><End>20240315</End></Date>
      <Time><End>134502</End></Time>
    </Inspection>
  </GlobalInformation>
  <PCBInformation>
    <SinglePCB><Barcode>SN001</Barcode><Result>PASS</Result></SinglePCB>
    <SinglePCB><Barcode>SN002</Barcode><Result>PASS</Result></SinglePCB>
  </PCBInformation>
</Root>`

// brokenDoc has no GlobalInformation section.
const brokenDoc = `<Root><PCBInformation>
  <SinglePCB><Barcode>SN010</Barcode><Result>PASS</Result></SinglePCB>
</PCBInformation></Root>`

type fakeRepo struct {
	mu      sync.Mutex
	rows    [][]any
	copies  int
	copyErr error
	pingErr error
}

func (f *fakeRepo) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies++
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(ctx context.Context, sql string) error { return nil }
func (f *fakeRepo) Ping(ctx context.Context) error             { return f.pingErr }
func (f *fakeRepo) Close()                                     {}

// fixture builds a log root with today's date directory holding the given
// files, plus a checkpoint one hour in the past, and returns a ready config.
func fixture(t *testing.T, files map[string]string) (config.Config, string) {
	t.Helper()
	tmp := t.TempDir()
	dayDir := filepath.Join(tmp, "logs", time.Now().Format("2006_01_02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dayDir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	cpPath := filepath.Join(tmp, "last_date.txt")
	past := time.Now().Add(-time.Hour).Format("2006-01-02 15:04:05")
	if err := os.WriteFile(cpPath, []byte(past), 0o644); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}

	cfg := config.Config{
		Job: "test-line",
		Source: config.Source{
			Dir:        filepath.Join(tmp, "logs"),
			Line:       "L3",
			Checkpoint: cpPath,
		},
		Runtime: config.Runtime{
			ParseWorkers: 2,
			ChunkSize:    2,
		},
	}
	return cfg, cpPath
}

func readCheckpoint(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read checkpoint: %v", err)
	}
	return string(b)
}

// TestCycle_CleanRunAdvancesCheckpoint verifies the happy path: all reports
// parse, all rows upload, and the checkpoint moves to the cycle start.
func TestCycle_CleanRunAdvancesCheckpoint(t *testing.T) {
	cfg, cpPath := fixture(t, map[string]string{
		"a.xml": validDoc,
		"b.xml": validDoc,
	})
	before := readCheckpoint(t, cpPath)
	repo := &fakeRepo{}

	sum, err := New(cfg, repo, nil).Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if sum.Found != 2 || sum.Parsed != 2 || sum.Rejected != 0 {
		t.Errorf("summary = %+v, want found=2 parsed=2 rejected=0", sum)
	}
	if sum.Rows != 4 {
		t.Errorf("rows = %d, want 4", sum.Rows)
	}
	if sum.Batches != 2 {
		t.Errorf("batches = %d, want 2 (4 rows, chunk size 2)", sum.Batches)
	}
	if len(repo.rows) != 4 {
		t.Errorf("repo saw %d rows, want 4", len(repo.rows))
	}
	after := readCheckpoint(t, cpPath)
	if after == before {
		t.Error("checkpoint did not advance after a clean run")
	}
}

// TestCycle_RejectHoldsCheckpoint verifies that one unparsable report keeps
// the checkpoint in place while the good reports still upload.
func TestCycle_RejectHoldsCheckpoint(t *testing.T) {
	cfg, cpPath := fixture(t, map[string]string{
		"good.xml": validDoc,
		"bad.xml":  brokenDoc,
	})
	before := readCheckpoint(t, cpPath)
	repo := &fakeRepo{}

	sum, err := New(cfg, repo, nil).Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if sum.Found != 2 || sum.Parsed != 1 || sum.Rejected != 1 {
		t.Errorf("summary = %+v, want found=2 parsed=1 rejected=1", sum)
	}
	if sum.Rows != 2 {
		t.Errorf("rows = %d, want 2 (the good report)", sum.Rows)
	}
	if got := readCheckpoint(t, cpPath); got != before {
		t.Errorf("checkpoint advanced despite a rejected report: %q -> %q", before, got)
	}
}

// TestCycle_RejectsGoToSkipLog verifies the skip log receives the rejection
// with the typed reason.
func TestCycle_RejectsGoToSkipLog(t *testing.T) {
	cfg, _ := fixture(t, map[string]string{"bad.xml": brokenDoc})
	skipPath := filepath.Join(t.TempDir(), "skipped.csv")
	sl, err := skiplog.New(skipPath)
	if err != nil {
		t.Fatalf("skiplog.New: %v", err)
	}

	if _, err := New(cfg, &fakeRepo{}, sl).Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if err := sl.Close(); err != nil {
		t.Fatalf("skiplog close: %v", err)
	}

	f, err := os.Open(skipPath)
	if err != nil {
		t.Fatalf("open skip log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read skip log: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("skip log rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "missing-mandatory-section" {
		t.Errorf("reason = %q, want missing-mandatory-section", rows[1][0])
	}
	if rows[1][1] != "GlobalInformation" {
		t.Errorf("section = %q, want GlobalInformation", rows[1][1])
	}
}

// TestCycle_UploadFailureHoldsCheckpoint verifies that a storage error
// surfaces from the cycle and leaves the checkpoint untouched.
func TestCycle_UploadFailureHoldsCheckpoint(t *testing.T) {
	cfg, cpPath := fixture(t, map[string]string{"a.xml": validDoc})
	before := readCheckpoint(t, cpPath)
	repo := &fakeRepo{copyErr: errors.New("connection reset")}

	_, err := New(cfg, repo, nil).Cycle(context.Background())
	if err == nil {
		t.Fatal("expected upload error")
	}
	if got := readCheckpoint(t, cpPath); got != before {
		t.Errorf("checkpoint advanced despite upload failure: %q -> %q", before, got)
	}
}

// TestCycle_MissingCheckpointFails verifies a missing checkpoint file aborts
// the cycle instead of silently replaying all history.
func TestCycle_MissingCheckpointFails(t *testing.T) {
	cfg, cpPath := fixture(t, map[string]string{"a.xml": validDoc})
	if err := os.Remove(cpPath); err != nil {
		t.Fatalf("remove checkpoint: %v", err)
	}
	if _, err := New(cfg, &fakeRepo{}, nil).Cycle(context.Background()); err == nil {
		t.Fatal("expected error for missing checkpoint")
	}
}

// TestCycle_EmptyWindowStillAdvances verifies a quiet window is a clean run.
func TestCycle_EmptyWindowStillAdvances(t *testing.T) {
	cfg, cpPath := fixture(t, nil)
	before := readCheckpoint(t, cpPath)

	sum, err := New(cfg, &fakeRepo{}, nil).Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if sum.Found != 0 || sum.Rows != 0 {
		t.Errorf("summary = %+v, want empty", sum)
	}
	if got := readCheckpoint(t, cpPath); got == before {
		t.Error("checkpoint did not advance on an empty window")
	}
}
