package domain

import (
	"encoding/json"
	"math"
)

// Counters holds one value per numeric column, indexed by Column
type Counters [NumColumns]float64

// Get returns the value of column c
func (c Counters) Get(col Column) float64 {
	return c[col]
}

// Set assigns the value of column c
func (c *Counters) Set(col Column, v float64) {
	c[col] = v
}

// Add sums other into c column by column
func (c *Counters) Add(other Counters) {
	for i := range c {
		c[i] += other[i]
	}
}

// Sum returns the sum of the given columns
func (c Counters) Sum(cols ...Column) float64 {
	var total float64
	for _, col := range cols {
		total += c[col]
	}
	return total
}

// Recompute overwrites the derived columns from their components.
// pob_tot depends on pob_imp so the order matters.
func (c *Counters) Recompute() {
	c[ColTotalInterventions] = c.Sum(TotalInterventionParts...)
	c[ColPopImpacted] = c.Sum(PopImpactedParts...)
	c[ColPopTotal] = c.Sum(PopTotalParts...)
}

// Consistent reports whether the derived columns match their components
func (c Counters) Consistent() bool {
	const eps = 1e-9
	check := func(col Column, parts []Column) bool {
		return math.Abs(c[col]-c.Sum(parts...)) <= eps*math.Max(1, math.Abs(c[col]))
	}
	return check(ColTotalInterventions, TotalInterventionParts) &&
		check(ColPopImpacted, PopImpactedParts) &&
		check(ColPopTotal, PopTotalParts)
}

// Any reports whether any of the given columns is positive
func (c Counters) Any(cols ...Column) bool {
	for _, col := range cols {
		if c[col] > 0 {
			return true
		}
	}
	return false
}

// Map returns the counters keyed by column header
func (c Counters) Map() map[string]float64 {
	m := make(map[string]float64, NumColumns)
	for _, col := range AllColumns() {
		m[col.Key()] = c[col]
	}
	return m
}

// MarshalJSON encodes the counters as an object keyed by column header
func (c Counters) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// UnmarshalJSON decodes an object keyed by column header; unknown keys are ignored
func (c *Counters) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = Counters{}
	for k, v := range m {
		if col, ok := ParseColumn(k); ok {
			c[col] = v
		}
	}
	return nil
}
