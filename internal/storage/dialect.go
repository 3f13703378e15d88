package storage

import (
	"context"
	"fmt"
	"sync"

	"co2etl/internal/ddl"
)

var (
	dialectMu sync.RWMutex
	dialects  = map[string]ddl.Dialect{}
)

// RegisterDialect installs (or replaces) the DDL dialect for kind.
func RegisterDialect(kind string, d ddl.Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return ddl.Dialect{}, fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}

// Execer runs one statement. Both Repository and Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates the output table through repo if it does not exist.
func EnsureTable(ctx context.Context, d ddl.Dialect, repo Execer, table string) error {
	stmt, err := ddl.BuildCreateTableSQL(ddl.OutputTable(table, d.MapType), d)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// ClearTable deletes every row of table. Pass a Tx to make the delete part
// of a larger load.
func ClearTable(ctx context.Context, d ddl.Dialect, repo Execer, table string) error {
	if err := repo.Exec(ctx, "DELETE FROM "+d.QuoteFQN(table)); err != nil {
		return fmt.Errorf("clear table %s: %w", table, err)
	}
	return nil
}
