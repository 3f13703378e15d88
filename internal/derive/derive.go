// Package derive computes the intensity metrics of merged records.
package derive

import (
	"co2etl/internal/numeric"
	"co2etl/internal/record"
)

// MetricStats counts the non-numeric outcomes of one metric.
type MetricStats struct {
	Absent    int
	Undefined int
}

// Stats reports how many metric values could not be computed.
type Stats struct {
	PerCapita MetricStats
	PerGDP    MetricStats
}

// Apply returns copies of recs with PerCapita = Total/Population and
// PerGDP = Total/GDP. An absent operand gives an absent metric, a zero
// denominator gives the undefined sentinel. Quotients are not rounded.
func Apply(recs []record.Record) ([]record.Record, Stats) {
	var st Stats
	out := make([]record.Record, len(recs))
	for i, r := range recs {
		r.PerCapita = numeric.Div(r.Total, r.Population)
		r.PerGDP = numeric.Div(r.Total, r.GDP)
		st.PerCapita.count(r.PerCapita)
		st.PerGDP.count(r.PerGDP)
		out[i] = r
	}
	return out, st
}

func (m *MetricStats) count(v numeric.Value) {
	switch v.State() {
	case numeric.Absent:
		m.Absent++
	case numeric.Undefined:
		m.Undefined++
	}
}
