package postgres

import (
	"context"

	"co2etl/internal/ddl"
	"co2etl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// dialect renders Postgres DDL. DOUBLE PRECISION stores NaN, so undefined
// metrics keep their sentinel.
var dialect = ddl.Dialect{
	Name:       "postgres",
	QuoteIdent: pgIdent,
	MapType:    mapType,
	KeepsNaN:   true,
}

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
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("postgres", dialect)
}

func mapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "INTEGER"
	case ddl.KindFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}
