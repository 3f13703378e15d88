package mysql

import (
	"context"

	"co2etl/internal/ddl"
	"co2etl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// dialect stores undefined metrics as NULL; DOUBLE has no NaN.
var dialect = ddl.Dialect{
	Name:       "mysql",
	QuoteIdent: myIdent,
	MapType:    mapType,
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("mysql", dialect)
}

// wrappedRepo adapts *Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close closes the underlying connection pool.
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

func mapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "INT"
	case ddl.KindFloat:
		return "DOUBLE"
	default:
		return "VARCHAR(255)"
	}
}
