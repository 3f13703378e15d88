// Package postgres implements a Postgres repository using pgx v5. Batches
// are loaded with the COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string   // connection string for pgxpool
	Table   string   // target table, optionally schema-qualified ("public.co2")
	Columns []string // ordered columns for COPY
}

// copier is the subset of *pgxpool.Pool and pgx.Tx used by the repository.
type copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// txCopier is a copier bound to a transaction; pgx.Tx satisfies it.
type txCopier interface {
	copier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool  copier
	begin func(ctx context.Context) (txCopier, error)
	cfg   Config
}

// NewRepository connects a pool and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	begin := func(ctx context.Context) (txCopier, error) { return pool.Begin(ctx) }
	return &Repository{pool: pool, begin: begin, cfg: cfg}, pool.Close, nil
}

// CopyFrom streams rows into the target table with COPY. float64 NaN values
// are sent as the float8 'NaN'.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	return copyRows(ctx, r.pool, r.cfg.Table, columns, rows)
}

// Exec runs one statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// Begin opens a transaction on one pooled connection. Each CopyFrom on it
// runs a COPY inside that transaction.
func (r *Repository) Begin(ctx context.Context) (*Tx, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx, table: r.cfg.Table}, nil
}

// Tx is an open Postgres transaction.
type Tx struct {
	tx    txCopier
	table string
}

func (t *Tx) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	return copyRows(ctx, t.tx, t.table, columns, rows)
}

func (t *Tx) Exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func copyRows(ctx context.Context, c copier, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := c.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// pgIdent quotes a single identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
