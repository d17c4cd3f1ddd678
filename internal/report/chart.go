package report

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"shooting_stats/internal/stats"
)

// Chart kinds.
const (
	KindPie        = "pie"
	KindBar        = "bar"
	KindGroupedBar = "grouped_bar"
	KindChoropleth = "choropleth"
	KindPoints     = "points"
)

// Map artifact names.
const (
	StateMapFile = "c_state_map.png"
	PointMapFile = "c_city_map.png"
)

// Chart describes how one table is drawn.
type Chart struct {
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	XAxis  string `json:"x_axis,omitempty"`
	YAxis  string `json:"y_axis,omitempty"`
	Legend string `json:"legend,omitempty"`
	File   string `json:"file"`
}

var dimensionPrefix = map[stats.Dimension]string{
	stats.MentalHealth: "m",
	stats.Gender:       "g",
	stats.Race:         "r",
	stats.Month:        "mo",
	stats.Year:         "y",
	stats.State:        "s",
	stats.RaceGender:   "rg",
}

var measureSuffix = map[stats.Measure]string{
	stats.Count:        "c",
	stats.TotalVictims: "v",
	stats.Fatalities:   "f",
	stats.Injured:      "i",
}

// FileName is the artifact name for a dimension and measure, e.g. "mo_v.png".
func FileName(dim stats.Dimension, m stats.Measure) string {
	return fmt.Sprintf("%s_%s.png", dimensionPrefix[dim], measureSuffix[m])
}

// ChartFor picks the chart kind and labels for a table. sum is the table's
// own total, shown in pie titles.
func ChartFor(dim stats.Dimension, m stats.Measure, sum int) Chart {
	c := Chart{File: FileName(dim, m)}
	switch dim {
	case stats.MentalHealth, stats.Gender:
		c.Kind = KindPie
		c.Title = fmt.Sprintf("%s (Total: %s)", m.Label(), humanize.Comma(int64(sum)))
		return c
	case stats.RaceGender:
		c.Kind = KindGroupedBar
		c.Title = m.Label()
		c.Legend = "Shooter's Gender"
	case stats.Race:
		c.Kind = KindBar
		c.Title = m.Label()
	default:
		c.Kind = KindBar
		c.Title = fmt.Sprintf("%s by %s", m.Label(), dim.Label())
	}
	c.XAxis = dim.Label()
	c.YAxis = m.Label()
	return c
}

// MapCharts returns the choropleth and point map descriptions.
func MapCharts() (Chart, Chart) {
	state := Chart{Kind: KindChoropleth, Title: "Cases density by State", Legend: "Cases Density", File: StateMapFile}
	points := Chart{Kind: KindPoints, Title: "Cases by City", File: PointMapFile}
	return state, points
}
