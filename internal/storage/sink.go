package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"co2etl/internal/config"
	"co2etl/internal/record"
	"co2etl/internal/schema"
)

// Export writes recs to the database sink described by out. The table is
// created when AutoCreateTable is set. Emptying it (when Replace is set) and
// loading the batches happen in one transaction. It returns the number of
// rows committed.
func Export(ctx context.Context, log *zap.Logger, out config.Output, recs []record.Record) (int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d, err := DialectFor(out.Kind)
	if err != nil {
		return 0, err
	}
	cols := schema.OutputColumns()
	repo, err := New(ctx, Config{Kind: out.Kind, DSN: out.DB.DSN, Table: out.DB.Table, Columns: cols})
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", out.Kind, err)
	}
	defer repo.Close()

	if out.DB.AutoCreateTable {
		if err := EnsureTable(ctx, d, repo, out.DB.Table); err != nil {
			return 0, err
		}
	}

	batch := out.DB.BatchSize
	if batch <= 0 {
		batch = config.DefaultBatchSize
	}

	// The clear and every batch share one transaction, so a failed load
	// leaves the previous contents in place.
	tx, err := repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin %s: %w", out.DB.Table, err)
	}
	if out.DB.Replace {
		if err := ClearTable(ctx, d, tx, out.DB.Table); err != nil {
			rollback(ctx, log, tx)
			return 0, err
		}
	}
	n, err := LoadBatches(ctx, log, cols, Rows(recs, d.KeepsNaN), batch, tx.CopyFrom)
	if err != nil {
		rollback(ctx, log, tx)
		return 0, fmt.Errorf("load %s: %w", out.DB.Table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s: %w", out.DB.Table, err)
	}
	return n, nil
}

func rollback(ctx context.Context, log *zap.Logger, tx Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		log.Warn("rollback failed", zap.Error(err))
	}
}
