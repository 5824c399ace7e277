// Package checkpoint persists the last-successfully-processed timestamp
// between upload cycles.
//
// The timestamp lives in a small text file next to the binary. Loading
// applies a configurable rewind so that reports written while the previous
// cycle ran are picked up again; the uploader tolerates the resulting
// overlap because a cycle only advances the checkpoint when every document
// in the run succeeded.
package checkpoint

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const layout = "2006-01-02 15:04:05"

// File is a text-file-backed checkpoint.
type File struct {
	path   string
	rewind time.Duration
}

// New returns a checkpoint stored at path. rewind is subtracted from every
// loaded value.
func New(path string, rewind time.Duration) *File {
	return &File{path: path, rewind: rewind}
}

// Load reads the stored timestamp minus the rewind window. A missing or
// garbled file is an error; the caller aborts the cycle rather than
// reprocessing from an unknown point.
func (f *File) Load() (time.Time, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("read checkpoint: %w", err)
	}
	t, err := time.ParseInLocation(layout, strings.TrimSpace(string(b)), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse checkpoint %s: %w", f.path, err)
	}
	return t.Add(-f.rewind), nil
}

// Store writes t as the new checkpoint.
func (f *File) Store(t time.Time) error {
	if err := os.WriteFile(f.path, []byte(t.Format(layout)), 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
