// Package skiplog records rejected inspection documents as CSV so a shift
// engineer can review what the uploader refused and why.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

// Log appends one CSV row per rejected document and counts rejections per
// reason. It is not safe for concurrent use; the pipeline writes to it from
// a single goroutine.
type Log struct {
	reasons map[string]int
	f       *os.File
	w       *csv.Writer
}

// New creates the CSV file at path, creating missing parent directories,
// and writes the header row.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("skiplog: create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"reason", "section", "field", "path", "content_hash"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("skiplog: write header: %w", err)
	}
	return &Log{reasons: make(map[string]int), f: f, w: w}, nil
}

// Add records one rejected document. content is the raw document body; its
// xxh3 hash lets the row be matched against a file even after the file is
// moved or renamed.
func (l *Log) Add(reason, section, field, path string, content []byte) {
	l.reasons[reason]++
	hash := fmt.Sprintf("%016x", xxh3.Hash(content))
	_ = l.w.Write([]string{reason, section, field, path, hash})
}

// Close flushes the writer, logs a per-reason summary, and closes the file.
func (l *Log) Close() error {
	l.w.Flush()
	for reason, n := range l.reasons {
		log.Printf("skiplog: reason=%s count=%d", reason, n)
	}
	if err := l.w.Error(); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("skiplog: flush: %w", err)
	}
	return l.f.Close()
}
