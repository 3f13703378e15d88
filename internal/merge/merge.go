// Package merge aligns long candidate tables onto base records by
// (entity, year). The join kind is always explicit.
package merge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"co2etl/internal/numeric"
	"co2etl/internal/record"
	"co2etl/internal/reshape"
)

// ErrDuplicateKey is the sentinel wrapped by *DuplicateKeyError.
var ErrDuplicateKey = errors.New("duplicate join key")

// DuplicateKeyError lists every key that occurs more than once in a
// candidate table, sorted by entity then year.
type DuplicateKeyError struct {
	Candidate string
	Keys      []record.Key
	Counts    []int
}

func (e *DuplicateKeyError) Error() string {
	const maxShown = 10
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d duplicate (entity, year) key(s):", e.Candidate, len(e.Keys))
	for i, k := range e.Keys {
		if i == maxShown {
			fmt.Fprintf(&b, " ... and %d more", len(e.Keys)-maxShown)
			break
		}
		fmt.Fprintf(&b, " %s x%d", k, e.Counts[i])
	}
	return b.String()
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// How selects the join kind.
type How int

const (
	// Left keeps every base record; unmatched ones keep an absent value.
	Left How = iota
	// Inner drops base records without a match.
	Inner
)

func (h How) String() string {
	if h == Inner {
		return "inner"
	}
	return "left"
}

// Setter stores a matched candidate value on a record.
type Setter func(r *record.Record, v numeric.Value)

// SetPopulation and SetGDP are the setters used by the pipeline.
var (
	SetPopulation Setter = func(r *record.Record, v numeric.Value) { r.Population = v }
	SetGDP        Setter = func(r *record.Record, v numeric.Value) { r.GDP = v }
)

// Candidate is a long table indexed by key.
type Candidate struct {
	Name  string
	index map[record.Key]numeric.Value
}

// NewCandidate indexes rows by key. Any key seen more than once makes the
// candidate unusable and yields a *DuplicateKeyError naming all of them.
func NewCandidate(name string, rows []reshape.Row) (*Candidate, error) {
	idx := make(map[record.Key]numeric.Value, len(rows))
	var dups map[record.Key]int
	for _, r := range rows {
		k := r.Key()
		if _, seen := idx[k]; seen {
			if dups == nil {
				dups = make(map[record.Key]int)
			}
			if dups[k] == 0 {
				dups[k] = 1
			}
			dups[k]++
			continue
		}
		idx[k] = r.Value
	}
	if len(dups) > 0 {
		return nil, newDuplicateKeyError(name, dups)
	}
	return &Candidate{Name: name, index: idx}, nil
}

// Len returns the number of distinct keys.
func (c *Candidate) Len() int { return len(c.index) }

// Lookup returns the value stored for k.
func (c *Candidate) Lookup(k record.Key) (numeric.Value, bool) {
	v, ok := c.index[k]
	return v, ok
}

// Stats summarizes one join.
type Stats struct {
	Matched   int
	Unmatched int
	// Unused counts candidate keys no base record asked for.
	Unused int
}

// Join returns a new slice of base records with the candidate value applied
// through set. With Left the result has exactly len(base) records in base
// order; with Inner unmatched records are dropped. base is not modified.
func Join(base []record.Record, c *Candidate, how How, set Setter) ([]record.Record, Stats) {
	var st Stats
	out := make([]record.Record, 0, len(base))
	used := make(map[record.Key]struct{}, len(c.index))
	for _, r := range base {
		k := r.Key()
		v, ok := c.index[k]
		if !ok {
			st.Unmatched++
			if how == Inner {
				continue
			}
			out = append(out, r)
			continue
		}
		st.Matched++
		used[k] = struct{}{}
		set(&r, v)
		out = append(out, r)
	}
	st.Unused = len(c.index) - len(used)
	return out, st
}

func newDuplicateKeyError(name string, dups map[record.Key]int) *DuplicateKeyError {
	keys := make([]record.Key, 0, len(dups))
	for k := range dups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Entity != keys[j].Entity {
			return keys[i].Entity < keys[j].Entity
		}
		return keys[i].Year < keys[j].Year
	})
	counts := make([]int, len(keys))
	for i, k := range keys {
		counts[i] = dups[k]
	}
	return &DuplicateKeyError{Candidate: name, Keys: keys, Counts: counts}
}
