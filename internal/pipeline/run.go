// Package pipeline drives one upload cycle: load the checkpoint, discover
// fresh station logs, parse them concurrently, bulk-insert the resulting
// rows, and advance the checkpoint when the cycle was clean.
package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sha0S/AOI-uploader/internal/checkpoint"
	"github.com/Sha0S/AOI-uploader/internal/config"
	"github.com/Sha0S/AOI-uploader/internal/metrics"
	"github.com/Sha0S/AOI-uploader/internal/panel"
	"github.com/Sha0S/AOI-uploader/internal/scan"
	"github.com/Sha0S/AOI-uploader/internal/skiplog"
	"github.com/Sha0S/AOI-uploader/internal/storage"
)

// Runner owns the pieces a cycle needs. It is constructed once per process;
// the repository and skip log outlive individual cycles.
type Runner struct {
	cfg  config.Config
	repo storage.Repository
	skip *skiplog.Log // optional
}

// Summary reports what one cycle did.
type Summary struct {
	Found    int   // reports discovered since the checkpoint
	Parsed   int   // reports interpreted successfully
	Rejected int   // reports refused by validation
	Rows     int64 // board rows inserted
	Batches  int64 // bulk-insert batches flushed
}

// New builds a Runner. skip may be nil when no skip log is configured.
func New(cfg config.Config, repo storage.Repository, skip *skiplog.Log) *Runner {
	return &Runner{cfg: cfg, repo: repo, skip: skip}
}

type parseResult struct {
	panel panel.Panel
	err   error
}

// Cycle runs one scan/parse/upload pass. The checkpoint advances to the
// cycle start time only when every discovered report parsed and the upload
// succeeded; otherwise the next cycle revisits the same window.
func (r *Runner) Cycle(ctx context.Context) (Summary, error) {
	var sum Summary
	cycleStart := time.Now()
	job := r.cfg.Job

	cp := checkpoint.New(r.cfg.Source.Checkpoint, time.Duration(r.cfg.Source.DeltaSeconds)*time.Second)
	since, err := cp.Load()
	if err != nil {
		return sum, err
	}

	stepStart := time.Now()
	files, err := scan.Discover(r.cfg.Source.Dir, since)
	metrics.RecordStep(job, "scan", err, time.Since(stepStart))
	if err != nil {
		return sum, err
	}
	sum.Found = len(files)
	metrics.RecordDocs(job, "found", int64(len(files)))
	if len(files) == 0 {
		log.Printf("pipeline: job=%s no new reports since %s", job, since.Format("2006-01-02 15:04:05"))
		return sum, cp.Store(cycleStart)
	}
	log.Printf("pipeline: job=%s found=%d since=%s", job, len(files), since.Format("2006-01-02 15:04:05"))

	stepStart = time.Now()
	results := r.parseAll(files)
	for i, res := range results {
		if res.err == nil {
			sum.Parsed++
			continue
		}
		sum.Rejected++
		log.Printf("pipeline: job=%s reject file=%s err=%v", job, files[i], res.err)
		r.recordSkip(files[i], res.err)
	}
	metrics.RecordStep(job, "parse", nil, time.Since(stepStart))
	metrics.RecordDocs(job, "parsed", int64(sum.Parsed))
	metrics.RecordDocs(job, "rejected", int64(sum.Rejected))

	stepStart = time.Now()
	rows, batches, err := r.upload(ctx, results)
	sum.Rows, sum.Batches = rows, batches
	metrics.RecordStep(job, "upload", err, time.Since(stepStart))
	metrics.RecordBatches(job, batches)
	if err != nil {
		return sum, err
	}
	metrics.RecordDocs(job, "uploaded", int64(sum.Parsed))

	// A rejected report keeps the checkpoint in place so a fixed parser or
	// a repaired file is picked up on a later cycle.
	if sum.Rejected == 0 {
		if err := cp.Store(cycleStart); err != nil {
			return sum, err
		}
	} else {
		log.Printf("pipeline: job=%s rejected=%d, checkpoint not advanced", job, sum.Rejected)
	}

	log.Printf("pipeline: job=%s done found=%d parsed=%d rejected=%d rows=%d batches=%d in=%s",
		job, sum.Found, sum.Parsed, sum.Rejected, sum.Rows, sum.Batches,
		time.Since(cycleStart).Truncate(time.Millisecond))
	return sum, nil
}

// parseAll interprets the files with a bounded worker pool, keeping results
// aligned to the input order so uploads stay deterministic.
func (r *Runner) parseAll(files []string) []parseResult {
	results := make([]parseResult, len(files))
	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Runtime.ParseWorkers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			p, err := panel.ParseFile(f, r.cfg.Source.Line)
			results[i] = parseResult{panel: p, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers report through the results slice
	return results
}

// upload flattens the parsed panels into rows and streams them through the
// batch loader into the repository.
func (r *Runner) upload(ctx context.Context, results []parseResult) (int64, int64, error) {
	rowCh := make(chan []any)
	go func() {
		defer close(rowCh)
		for _, res := range results {
			if res.err != nil {
				continue
			}
			for _, row := range storage.Rows(res.panel) {
				select {
				case rowCh <- row:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return storage.LoadBatches(ctx, storage.Columns, rowCh, r.cfg.Runtime.ChunkSize, r.repo.CopyFrom)
}

// recordSkip appends the rejection to the skip log when one is configured.
func (r *Runner) recordSkip(path string, parseErr error) {
	if r.skip == nil {
		return
	}
	reason, section, field := "error", "", ""
	var pe *panel.ParseError
	if errors.As(parseErr, &pe) {
		reason, section, field = string(pe.Reason), pe.Section, pe.Field
	}
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("pipeline: skiplog reread %s: %v", path, err)
	}
	r.skip.Add(reason, section, field, path, content)
}
