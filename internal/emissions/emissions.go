// Package emissions turns the raw sectoral emissions table into records:
// headers are normalized, the key columns and nine sectors are required, and
// total_emissions is computed per row.
package emissions

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"co2etl/internal/numeric"
	"co2etl/internal/record"
	"co2etl/internal/schema"
	"co2etl/internal/table"
)

// YearError reports a data row whose year cell is not an integer.
type YearError struct {
	Table string
	Row   int // 1-based data row, header excluded
	Value string
}

func (e *YearError) Error() string {
	return fmt.Sprintf("%s: row %d: invalid year %q", e.Table, e.Row, e.Value)
}

// FromTable normalizes the headers of t in place and converts each row into
// a record. Sector cells that do not parse are absent; the year cell must be
// an integer (a float with no fractional part such as "2019.0" is accepted).
func FromTable(t *table.Table) ([]record.Record, error) {
	t.Headers = schema.NormalizeHeaders(t.Headers)

	required := make([]string, 0, schema.NumSectors+2)
	required = append(required, schema.Entity, schema.Year)
	required = append(required, schema.SectorColumns[:]...)
	if err := t.Require(required...); err != nil {
		return nil, err
	}

	entityIdx, _ := t.Index(schema.Entity)
	yearIdx, _ := t.Index(schema.Year)
	var sectorIdx [schema.NumSectors]int
	for i, col := range schema.SectorColumns {
		sectorIdx[i], _ = t.Index(col)
	}

	out := make([]record.Record, 0, t.Len())
	for r := range t.Rows {
		raw := t.Cell(r, yearIdx)
		year, ok := parseYear(raw)
		if !ok {
			return nil, &YearError{Table: t.Name, Row: r + 1, Value: raw}
		}
		rec := record.Record{Entity: t.Cell(r, entityIdx), Year: year}
		for i, c := range sectorIdx {
			rec.Sectors[i] = numeric.Parse(t.Cell(r, c))
		}
		rec.Total = numeric.Sum(rec.Sectors[:]...)
		out = append(out, rec)
	}
	return out, nil
}

func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
