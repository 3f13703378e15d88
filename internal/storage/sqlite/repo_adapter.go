package sqlite

import (
	"context"
	"strings"

	"co2etl/internal/ddl"
	"co2etl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// dialect renders SQLite DDL. Undefined metrics are stored as NULL: the
// driver binds NaN as NULL anyway.
var dialect = ddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: quoteIdent,
	MapType:    mapType,
}

// wrappedRepo adds Close to *Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func (w *wrappedRepo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := w.Repository.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("sqlite", dialect)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// mapType uses SQLite's storage classes.
func mapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "INTEGER"
	case ddl.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
