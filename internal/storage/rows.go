package storage

import (
	"math"

	"co2etl/internal/record"
)

// Rows converts records to driver values in schema.OutputColumns order.
// Absent values become NULL. Undefined values become NaN when keepNaN is
// set and NULL otherwise.
func Rows(recs []record.Record, keepNaN bool) [][]any {
	out := make([][]any, len(recs))
	for i, r := range recs {
		vals := r.Values()
		row := make([]any, 0, len(vals)+2)
		row = append(row, r.Entity, int64(r.Year))
		for _, v := range vals {
			switch {
			case v.IsPresent():
				f, _ := v.Float()
				row = append(row, f)
			case v.IsUndefined() && keepNaN:
				row = append(row, math.NaN())
			default:
				row = append(row, nil)
			}
		}
		out[i] = row
	}
	return out
}
