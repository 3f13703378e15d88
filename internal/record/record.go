// Package record defines the per-(entity, year) row that flows from
// emissions ingestion through the joins to the export sink.
package record

import (
	"strconv"

	"co2etl/internal/numeric"
	"co2etl/internal/schema"
)

// Key identifies a row. Entity is compared byte for byte.
type Key struct {
	Entity string
	Year   int
}

func (k Key) String() string {
	return strconv.Quote(k.Entity) + "/" + strconv.Itoa(k.Year)
}

// Record is one emissions row, widened by the joins and the deriver.
// Population and GDP stay Absent until a join sets them; PerCapita and
// PerGDP stay Absent until derivation.
type Record struct {
	Entity  string
	Year    int
	Sectors [schema.NumSectors]numeric.Value
	Total   numeric.Value

	Population numeric.Value
	GDP        numeric.Value

	PerCapita numeric.Value
	PerGDP    numeric.Value
}

// Key returns the join key of r.
func (r Record) Key() Key { return Key{Entity: r.Entity, Year: r.Year} }

// Values returns the numeric columns of r in output order, i.e. every
// column of schema.OutputColumns after entity and year.
func (r Record) Values() []numeric.Value {
	v := make([]numeric.Value, 0, schema.NumSectors+5)
	v = append(v, r.Sectors[:]...)
	return append(v, r.Total, r.Population, r.GDP, r.PerCapita, r.PerGDP)
}

// Strings renders r as CSV cells in schema.OutputColumns order.
func (r Record) Strings() []string {
	vals := r.Values()
	out := make([]string, 0, len(vals)+2)
	out = append(out, r.Entity, strconv.Itoa(r.Year))
	for _, v := range vals {
		out = append(out, v.String())
	}
	return out
}
