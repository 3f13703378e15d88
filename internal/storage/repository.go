// Package storage loads the output table into a SQL database. Backends
// register a factory and a DDL dialect from their init functions; callers
// stay backend-agnostic and select one by kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the write surface a backend provides.
type Repository interface {
	// CopyFrom inserts rows aligned to columns through the backend's bulk
	// path and returns the number of rows written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs one statement, typically DDL or a DELETE.
	Exec(ctx context.Context, sql string) error
	// Begin opens a transaction that spans several CopyFrom and Exec calls.
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// Tx is a write transaction. Nothing it writes is visible to other
// sessions until Commit; Rollback discards all of it.
type Tx interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Config is the backend-neutral repository configuration.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
