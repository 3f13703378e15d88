package mssql

import (
	"context"
	"fmt"
	"strings"

	"co2etl/internal/ddl"
	"co2etl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// dialect renders T-SQL. FLOAT cannot hold NaN, so undefined metrics are
// stored as NULL.
var dialect = ddl.Dialect{
	Name:       "mssql",
	QuoteIdent: msIdent,
	MapType:    mapType,
	Guard:      guardCreate,
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
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("mssql", dialect)
}

// mapType keeps the entity key indexable: NVARCHAR(MAX) cannot be part of a
// primary key.
func mapType(kind string) string {
	switch kind {
	case ddl.KindInt:
		return "INT"
	case ddl.KindFloat:
		return "FLOAT"
	default:
		return "NVARCHAR(450)"
	}
}

// guardCreate wraps create in IF OBJECT_ID(...) IS NULL since T-SQL has no
// CREATE TABLE IF NOT EXISTS.
func guardCreate(quotedFQN, create string) string {
	lit := strings.ReplaceAll(quotedFQN, "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  %s\nEND;", lit, create)
}
