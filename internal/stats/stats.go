// Package stats computes grouped counts and sums over normalized incidents.
//
// Grouping follows a group → aggregate → order pipeline: groups are keyed by
// a dimension value, each group is reduced to one measure, and the result is
// returned in natural key order or ascending by value.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"shooting_stats/internal/incident"
)

// ErrUnsupported marks a dimension/measure combination the caller should
// never ask for.
var ErrUnsupported = errors.New("unsupported aggregation")

// Dimension is a grouping key.
type Dimension int

const (
	MentalHealth Dimension = iota + 1
	Race
	Gender
	Month
	Year
	State
	RaceGender
)

// Dimensions lists the one-dimensional groupings in report order.
var Dimensions = []Dimension{MentalHealth, Race, Gender, Month, Year, State}

var dimensionNames = map[Dimension]string{
	MentalHealth: "mental_health",
	Race:         "race",
	Gender:       "gender",
	Month:        "month",
	Year:         "year",
	State:        "state",
	RaceGender:   "race_gender",
}

func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// Label is the axis title used in charts.
func (d Dimension) Label() string {
	switch d {
	case MentalHealth:
		return "Mental Health Issues"
	case Race:
		return "Shooter's Race"
	case Gender:
		return "Shooter's Gender"
	case Month:
		return "Month"
	case Year:
		return "Year"
	case State:
		return "State"
	case RaceGender:
		return "Shooter's Race"
	default:
		return d.String()
	}
}

// ParseDimension accepts the String form.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range dimensionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: dimension %q", ErrUnsupported, s)
}

// Measure is what each group is reduced to.
type Measure int

const (
	Count Measure = iota + 1
	Fatalities
	Injured
	TotalVictims
)

// Measures lists every measure in report order.
var Measures = []Measure{Count, TotalVictims, Fatalities, Injured}

var measureNames = map[Measure]string{
	Count:        "count",
	Fatalities:   "fatalities",
	Injured:      "injured",
	TotalVictims: "total_victims",
}

func (m Measure) String() string {
	if name, ok := measureNames[m]; ok {
		return name
	}
	return fmt.Sprintf("measure(%d)", int(m))
}

// Label is the chart title word for the measure.
func (m Measure) Label() string {
	switch m {
	case Count:
		return "Cases"
	case Fatalities:
		return "Fatalities"
	case Injured:
		return "Injured"
	case TotalVictims:
		return "Victims"
	default:
		return m.String()
	}
}

// ParseMeasure accepts the String form.
func ParseMeasure(s string) (Measure, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range measureNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: measure %q", ErrUnsupported, s)
}

// Value extracts the measure from one incident.
func (m Measure) Value(inc incident.Incident) (int, error) {
	switch m {
	case Count:
		return 1, nil
	case Fatalities:
		return inc.Fatalities, nil
	case Injured:
		return inc.Injured, nil
	case TotalVictims:
		return inc.TotalVictims, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, m)
	}
}

// Key extracts the dimension value from one incident.
func (d Dimension) Key(inc incident.Incident) (string, error) {
	switch d {
	case MentalHealth:
		return inc.MentalHealth, nil
	case Race:
		return inc.Race, nil
	case Gender:
		return inc.Gender, nil
	case Month:
		return inc.MonthKey(), nil
	case Year:
		return inc.YearKey(), nil
	case State:
		return inc.State, nil
	default:
		return "", fmt.Errorf("%w: %s is not one-dimensional", ErrUnsupported, d)
	}
}

// Group is one key of an aggregate and its reduced value.
type Group struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// Series is an ordered aggregate.
type Series []Group

// Sum adds every group value.
func (s Series) Sum() int {
	total := 0
	for _, g := range s {
		total += g.Value
	}
	return total
}

// Keys returns group keys in order.
func (s Series) Keys() []string {
	keys := make([]string, len(s))
	for i, g := range s {
		keys[i] = g.Key
	}
	return keys
}

// Lookup finds a group by key.
func (s Series) Lookup(key string) (int, bool) {
	for _, g := range s {
		if g.Key == key {
			return g.Value, true
		}
	}
	return 0, false
}

// Order selects how a Series is sorted.
type Order int

const (
	// Natural is ascending key order.
	Natural Order = iota
	// ByValue is ascending value order, ties by key.
	ByValue
)

// DefaultOrder is ByValue for the bar/choropleth dimensions (Race, State)
// and Natural for the rest.
func DefaultOrder(d Dimension) Order {
	switch d {
	case Race, State:
		return ByValue
	default:
		return Natural
	}
}

// excluded lists the keys dropped from a dimension after grouping.
var excluded = map[Dimension]string{
	MentalHealth: incident.Unknown,
}

// Excluded reports the key a dimension drops after grouping, if any.
func Excluded(d Dimension) (string, bool) {
	key, ok := excluded[d]
	return key, ok
}

// Aggregate groups incidents by dim and reduces each group with m.
// Empty input yields an empty Series.
func Aggregate(incidents []incident.Incident, dim Dimension, m Measure, order Order) (Series, error) {
	if dim == RaceGender {
		return nil, fmt.Errorf("%w: %s needs AggregateMatrix", ErrUnsupported, dim)
	}
	if _, ok := dimensionNames[dim]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, dim)
	}
	if _, ok := measureNames[m]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, m)
	}

	sums := make(map[string]int)
	for _, inc := range incidents {
		key, err := dim.Key(inc)
		if err != nil {
			return nil, err
		}
		v, err := m.Value(inc)
		if err != nil {
			return nil, err
		}
		sums[key] += v
	}
	if drop, ok := Excluded(dim); ok {
		delete(sums, drop)
	}

	series := make(Series, 0, len(sums))
	for key, v := range sums {
		series = append(series, Group{Key: key, Value: v})
	}
	series.arrange(order)
	return series, nil
}

func (s Series) arrange(order Order) {
	switch order {
	case ByValue:
		sort.SliceStable(s, func(i, j int) bool {
			if s[i].Value != s[j].Value {
				return s[i].Value < s[j].Value
			}
			return s[i].Key < s[j].Key
		})
	default:
		sort.SliceStable(s, func(i, j int) bool { return s[i].Key < s[j].Key })
	}
}

// Total sums m over every incident.
func Total(incidents []incident.Incident, m Measure) (int, error) {
	total := 0
	for _, inc := range incidents {
		v, err := m.Value(inc)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// Bounds returns the smallest and largest group values. ok is false when
// the series is empty.
func Bounds(s Series) (min, max int, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	min, max = s[0].Value, s[0].Value
	for _, g := range s[1:] {
		if g.Value < min {
			min = g.Value
		}
		if g.Value > max {
			max = g.Value
		}
	}
	return min, max, true
}
