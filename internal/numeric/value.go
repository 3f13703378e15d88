// Package numeric provides the optional number used throughout the pipeline.
//
// A Value is in exactly one of three states:
//
//   - Absent: the cell exists but carries no usable number (empty, text, NaN).
//   - Present: a finite float64.
//   - Undefined: the result of dividing by an exact zero.
//
// Undefined is kept distinct from Absent so that a zero denominator stays
// detectable downstream instead of turning into an infinity or a crash.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// State tags a Value.
type State uint8

const (
	Absent State = iota
	Present
	Undefined
)

func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case Undefined:
		return "undefined"
	default:
		return "absent"
	}
}

// Value is an optional float64. The zero Value is Absent.
type Value struct {
	f     float64
	state State
}

// Of returns a present Value for finite f and Absent otherwise.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{f: f, state: Present}
}

// None returns an Absent value.
func None() Value { return Value{} }

// NaN returns the Undefined sentinel.
func NaN() Value { return Value{state: Undefined} }

// Parse converts a raw cell into a Value. It never fails: empty, non-numeric
// and non-finite input ("nan", "inf") all yield Absent.
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}
	}
	return Of(f)
}

func (v Value) State() State      { return v.state }
func (v Value) IsAbsent() bool    { return v.state == Absent }
func (v Value) IsPresent() bool   { return v.state == Present }
func (v Value) IsUndefined() bool { return v.state == Undefined }

// Float returns the number and whether it is present.
func (v Value) Float() (float64, bool) {
	if v.state != Present {
		return 0, false
	}
	return v.f, true
}

// Sum adds the present values. Absent values are skipped; the result is
// Absent only when nothing was present. Undefined is contagious, and a sum
// that overflows to ±Inf is Undefined.
func Sum(vals ...Value) Value {
	var (
		total float64
		seen  bool
	)
	for _, v := range vals {
		switch v.state {
		case Undefined:
			return NaN()
		case Present:
			total += v.f
			seen = true
		}
	}
	if !seen {
		return Value{}
	}
	return result(total)
}

// Div returns num/den. Absent or undefined operands give Absent. With two
// present operands the result is Undefined when the denominator is exactly
// zero or the quotient is not finite (e.g. 1e300/1e-300), Present otherwise.
func Div(num, den Value) Value {
	if num.state != Present || den.state != Present {
		return Value{}
	}
	if den.f == 0 {
		return NaN()
	}
	return result(num.f / den.f)
}

// result wraps the outcome of arithmetic on present operands. Unlike Of,
// which treats non-finite input as missing data, a non-finite result of a
// computation is the Undefined sentinel.
func result(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NaN()
	}
	return Value{f: f, state: Present}
}

// String renders the value for tabular output: "" for Absent, "NaN" for
// Undefined, otherwise the number as formatted by FormatFloat.
func (v Value) String() string {
	switch v.state {
	case Present:
		return FormatFloat(v.f)
	case Undefined:
		return "NaN"
	default:
		return ""
	}
}

// FormatFloat renders f with the shortest representation that round-trips,
// always keeping a decimal point for integral values ("2.0", "100.0").
// Very large or very small magnitudes switch to exponent form ("1e+20").
func FormatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
