// Package ddl is a small, backend-agnostic model for the DDL of the output
// table and a renderer that storage backends parameterize with their own
// quoting and type mapping.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the per-backend pieces of a CREATE TABLE statement.
type Dialect struct {
	// Name appears in error messages ("postgres ddl: ...").
	Name string

	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string

	// MapType maps KindText, KindInt and KindFloat to a column type.
	MapType func(kind string) string

	// Guard wraps a bare CREATE TABLE into an idempotent script for backends
	// without CREATE TABLE IF NOT EXISTS. When nil, IF NOT EXISTS is used.
	Guard func(quotedFQN, create string) string

	// KeepsNaN reports whether float columns accept NaN. Backends that do
	// not store undefined metrics as NULL.
	KeepsNaN bool
}

// QuoteFQN quotes each dot-separated segment of fqn. Empty segments are
// dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders t for d:
//
//	CREATE TABLE IF NOT EXISTS "co2" (
//	  "entity" TEXT NOT NULL,
//	  ...
//	  PRIMARY KEY ("entity", "year")
//	);
//
// Primary-key columns are always NOT NULL and keep their declaration order.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}
		def := d.QuoteIdent(name) + " " + typ
		if !c.Nullable || c.PrimaryKey {
			def += " NOT NULL"
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	if d.Guard != nil {
		create := fmt.Sprintf("CREATE TABLE %s (\n    %s\n  );", quoted, strings.Join(cols, ",\n    "))
		return d.Guard(quoted, create), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoted, strings.Join(cols, ",\n  ")), nil
}
