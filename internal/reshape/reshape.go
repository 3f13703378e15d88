// Package reshape unpivots wide tables (one row per entity, one column per
// year) into long rows keyed by (entity, year).
package reshape

import (
	"co2etl/internal/numeric"
	"co2etl/internal/record"
	"co2etl/internal/schema"
	"co2etl/internal/table"
)

// Row is one (entity, year) observation of a wide table.
type Row struct {
	Entity string
	Year   int
	Value  numeric.Value
}

// Key returns the join key of r.
func (r Row) Key() record.Key { return record.Key{Entity: r.Entity, Year: r.Year} }

// WideToLong emits one Row per (selected year column, input row), columns in
// header order and rows in table order. A header is selected when sel
// accepts it and it yields a year through schema.ExtractYear. Cells that do
// not parse become absent values; no row is dropped.
//
// A missing entity column, or a table without any selected column, is a
// *table.SchemaError.
func WideToLong(t *table.Table, entityCol string, sel schema.YearSelector) ([]Row, error) {
	entityIdx, ok := t.Index(entityCol)
	if !ok {
		return nil, &table.SchemaError{Table: t.Name, Missing: []string{entityCol}}
	}

	type yearCol struct {
		idx  int
		year int
	}
	var cols []yearCol
	for _, i := range t.Select(sel) {
		if i == entityIdx {
			continue
		}
		if y, ok := schema.ExtractYear(t.Headers[i]); ok {
			cols = append(cols, yearCol{idx: i, year: y})
		}
	}
	if len(cols) == 0 {
		return nil, &table.SchemaError{Table: t.Name, Reason: "no year columns found"}
	}

	out := make([]Row, 0, len(cols)*t.Len())
	for _, c := range cols {
		for r := range t.Rows {
			out = append(out, Row{
				Entity: t.Cell(r, entityIdx),
				Year:   c.year,
				Value:  numeric.Parse(t.Cell(r, c.idx)),
			})
		}
	}
	return out, nil
}

// YearColumns returns the selected headers of t and the year each carries,
// in header order. It applies the same selection as WideToLong.
func YearColumns(headers []string, sel schema.YearSelector) (names []string, years []int) {
	for _, h := range headers {
		if !sel(h) {
			continue
		}
		if y, ok := schema.ExtractYear(h); ok {
			names = append(names, h)
			years = append(years, y)
		}
	}
	return names, years
}
