// Package export renders final records as CSV. Files are written to a
// temporary sibling and renamed into place once complete, so a failed run
// never leaves a partial table behind. Every rendering also yields an xxh3
// fingerprint of the bytes, which is stable across runs on unchanged input.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"co2etl/internal/record"
	"co2etl/internal/schema"
)

// Result describes a finished CSV export.
type Result struct {
	Path        string
	Rows        int
	Bytes       int64
	Fingerprint uint64
}

// FingerprintHex formats f the way it appears in logs and summaries.
func FingerprintHex(f uint64) string { return fmt.Sprintf("%016x", f) }

// Write renders recs to w: header first, then one line per record.
func Write(w io.Writer, recs []record.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.OutputColumns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range recs {
		if err := cw.Write(recs[i].Strings()); err != nil {
			return fmt.Errorf("write row %d (%s): %w", i+1, recs[i].Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Fingerprint hashes the CSV rendering of recs without writing it anywhere.
func Fingerprint(recs []record.Record) (uint64, error) {
	h := xxh3.New()
	if err := Write(h, recs); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteFile writes recs to path atomically. The parent directory must exist.
func WriteFile(path string, recs []record.Record) (Result, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp in %s: %w", dir, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	h := xxh3.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	if err := Write(cw, recs); err != nil {
		return Result{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Result{}, fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return Result{}, fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return Result{}, fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true

	return Result{Path: path, Rows: len(recs), Bytes: cw.n, Fingerprint: h.Sum64()}, nil
}
