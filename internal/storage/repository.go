// Package storage contains the storage-agnostic repository contract, the
// Panel-to-row mapping for the results table, and a generic batched loader.
// Concrete backends live in subpackages and register themselves with the
// factory at init time; importing storage/all enables all of them.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the minimal sink contract the uploader needs.
type Repository interface {
	// CopyFrom bulk-inserts rows (aligned to the columns order) into the
	// configured table and returns the number of rows inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single SQL statement, used for table bootstrap.
	Exec(ctx context.Context, sql string) error
	// Ping checks connection health; the cycle loop reconnects on failure.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close()
}

// Config carries backend-agnostic connection settings.
type Config struct {
	Kind  string // backend selector, e.g. "mssql"
	DSN   string
	Table string
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	facMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	facMu.Lock()
	defer facMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository of the configured kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	facMu.RLock()
	fn, ok := factories[cfg.Kind]
	facMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind %q", cfg.Kind)
	}
	return fn(ctx, cfg)
}
