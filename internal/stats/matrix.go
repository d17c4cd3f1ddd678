package stats

import (
	"fmt"
	"sort"

	"shooting_stats/internal/incident"
)

// Matrix is the Race × Gender aggregate in wide form: one row per race, one
// column per gender. Combinations that never occur are absent from Values.
type Matrix struct {
	Rows    []string                  `json:"rows"`
	Columns []string                  `json:"columns"`
	Values  map[string]map[string]int `json:"values"`
}

// Value returns the cell, zero when the combination never occurs.
func (m Matrix) Value(row, col string) int {
	return m.Values[row][col]
}

// Has reports whether the combination occurs.
func (m Matrix) Has(row, col string) bool {
	_, ok := m.Values[row][col]
	return ok
}

// RowSum adds a row across every gender.
func (m Matrix) RowSum(row string) int {
	total := 0
	for _, v := range m.Values[row] {
		total += v
	}
	return total
}

// Sum adds every cell.
func (m Matrix) Sum() int {
	total := 0
	for _, row := range m.Rows {
		total += m.RowSum(row)
	}
	return total
}

// AggregateMatrix groups incidents by race then gender and reduces each cell
// with meas. Rows and columns are in ascending key order.
func AggregateMatrix(incidents []incident.Incident, meas Measure) (Matrix, error) {
	if _, ok := measureNames[meas]; !ok {
		return Matrix{}, fmt.Errorf("%w: %s", ErrUnsupported, meas)
	}
	values := make(map[string]map[string]int)
	cols := make(map[string]struct{})
	for _, inc := range incidents {
		v, err := meas.Value(inc)
		if err != nil {
			return Matrix{}, err
		}
		row, ok := values[inc.Race]
		if !ok {
			row = make(map[string]int)
			values[inc.Race] = row
		}
		row[inc.Gender] += v
		cols[inc.Gender] = struct{}{}
	}

	m := Matrix{
		Rows:    make([]string, 0, len(values)),
		Columns: make([]string, 0, len(cols)),
		Values:  values,
	}
	for r := range values {
		m.Rows = append(m.Rows, r)
	}
	for c := range cols {
		m.Columns = append(m.Columns, c)
	}
	sort.Strings(m.Rows)
	sort.Strings(m.Columns)
	return m, nil
}
