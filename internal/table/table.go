// Package table is the in-memory, string-typed form of a source file: one
// header row plus data rows, as read from CSV. Values are left untouched;
// numeric coercion happens later through package numeric.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is the sentinel wrapped by every *SchemaError.
var ErrSchema = errors.New("schema error")

// SchemaError reports a source table that cannot be keyed or read: a
// required column is missing, or no year columns were found.
type SchemaError struct {
	Table   string
	Missing []string
	Reason  string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema error in %s", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing column(s) %s", strings.Join(quoteAll(e.Missing), ", "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Table is a header plus rows of raw cells.
type Table struct {
	// Name identifies the source in errors and logs (e.g. "population").
	Name    string
	Headers []string
	Rows    [][]string
}

// Index returns the position of the first header equal to col.
func (t *Table) Index(col string) (int, bool) {
	for i, h := range t.Headers {
		if h == col {
			return i, true
		}
	}
	return -1, false
}

// Rename replaces the header from with to. It reports whether from existed.
func (t *Table) Rename(from, to string) bool {
	i, ok := t.Index(from)
	if !ok {
		return false
	}
	t.Headers[i] = to
	return true
}

// Require returns a *SchemaError naming every column in cols that is not a
// header of t.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.Index(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Table: t.Name, Missing: missing}
}

// Select returns the indexes of headers matching pred, in header order.
func (t *Table) Select(pred func(header string) bool) []int {
	var idx []int
	for i, h := range t.Headers {
		if pred(h) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Cell returns row r, column c, or "" when the row is shorter than the header.
func (t *Table) Cell(r, c int) string {
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
