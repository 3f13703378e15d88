package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CopyFn abstracts a backend's bulk insert. It returns the rows reported as
// inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches slices rows into batches of at most batchSize and hands each
// to copyFn in order. It stops at the first error or cancellation and
// returns the rows copied so far. Progress is logged at debug level per
// batch.
func LoadBatches(
	ctx context.Context,
	log *zap.Logger,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, errors.New("copyFn must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		total   int64
		batches int
		start   = time.Now()
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))

		t0 := time.Now()
		n, err := copyFn(ctx, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Error("batch copy failed",
				zap.Int("batch", batches+1),
				zap.Int64("inserted", n),
				zap.Int64("total_inserted", total),
				zap.Error(err))
			return total, err
		}
		batches++

		rps := float64(0)
		if d := time.Since(t0); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Debug("batch copied",
			zap.Int("batch", batches),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", total),
			zap.Float64("rps", rps),
			zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	}
	return total, nil
}
