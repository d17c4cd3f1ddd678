// Package report assembles every aggregate table of a run into one value
// that the renderer, the terminal summary and report.json all read from.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"shooting_stats/internal/geocode"
	"shooting_stats/internal/incident"
	"shooting_stats/internal/metrics"
	"shooting_stats/internal/normalize"
	"shooting_stats/internal/stats"
)

// Table is one 1-D aggregate with its chart description.
type Table struct {
	Dimension stats.Dimension `json:"-"`
	Measure   stats.Measure   `json:"-"`
	DimName   string          `json:"dimension"`
	MeasName  string          `json:"measure"`
	Sum       int             `json:"sum"`
	Groups    stats.Series    `json:"groups"`
	Chart     Chart           `json:"chart"`
}

// MatrixTable is one Race × Gender aggregate.
type MatrixTable struct {
	Measure  stats.Measure `json:"-"`
	MeasName string        `json:"measure"`
	Matrix   stats.Matrix  `json:"matrix"`
	Chart    Chart         `json:"chart"`
}

// Bounds is the color scale of the state choropleth.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// MapPoint is a geocoded state sized by its case count.
type MapPoint struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Maps holds everything the two map charts need.
type Maps struct {
	State       Chart            `json:"state_chart"`
	Points      Chart            `json:"points_chart"`
	StateCounts stats.Series     `json:"state_counts"`
	Bounds      *Bounds          `json:"bounds"`
	Placed      []MapPoint       `json:"placed"`
	Omitted     []string         `json:"omitted"`
	Geocode     metrics.Snapshot `json:"geocode"`
}

// Records summarizes what happened to the input rows.
type Records struct {
	Input   int `json:"input"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Report is the complete output of one run.
type Report struct {
	RunID       string              `json:"run_id"`
	Input       string              `json:"input"`
	GeneratedAt time.Time           `json:"generated_at"`
	Records     Records             `json:"records"`
	Totals      map[string]int      `json:"totals"`
	Tables      []Table             `json:"tables"`
	Matrices    []MatrixTable       `json:"matrices"`
	Maps        Maps                `json:"maps"`
	Audit       normalize.Audit     `json:"audit"`
	Incidents   []incident.Incident `json:"-"`
}

// Options carries run metadata.
type Options struct {
	Input string
	RunID string
	Now   time.Time
}

// Build computes every table for incidents: 6 dimensions × 4 measures, the
// Race × Gender matrix per measure, per-measure totals and the state color
// bounds. Empty input yields empty tables.
func Build(incidents []incident.Incident, audit normalize.Audit, opts Options) (*Report, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	r := &Report{
		RunID:       opts.RunID,
		Input:       opts.Input,
		GeneratedAt: opts.Now,
		Records: Records{
			Input:   audit.Input,
			Kept:    len(incidents),
			Dropped: len(audit.Dropped),
		},
		Totals:    make(map[string]int, len(stats.Measures)),
		Audit:     audit,
		Incidents: incidents,
	}

	for _, m := range stats.Measures {
		total, err := stats.Total(incidents, m)
		if err != nil {
			return nil, err
		}
		r.Totals[m.String()] = total
	}

	for _, dim := range stats.Dimensions {
		for _, m := range stats.Measures {
			series, err := stats.Aggregate(incidents, dim, m, stats.DefaultOrder(dim))
			if err != nil {
				return nil, fmt.Errorf("aggregate %s/%s: %w", dim, m, err)
			}
			sum := series.Sum()
			r.Tables = append(r.Tables, Table{
				Dimension: dim,
				Measure:   m,
				DimName:   dim.String(),
				MeasName:  m.String(),
				Sum:       sum,
				Groups:    series,
				Chart:     ChartFor(dim, m, sum),
			})
		}
	}

	for _, m := range stats.Measures {
		mat, err := stats.AggregateMatrix(incidents, m)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s/%s: %w", stats.RaceGender, m, err)
		}
		r.Matrices = append(r.Matrices, MatrixTable{
			Measure:  m,
			MeasName: m.String(),
			Matrix:   mat,
			Chart:    ChartFor(stats.RaceGender, m, mat.Sum()),
		})
	}

	counts, _ := r.Table(stats.State, stats.Count)
	r.Maps.State, r.Maps.Points = MapCharts()
	r.Maps.StateCounts = counts.Groups
	r.Maps.Placed = []MapPoint{}
	r.Maps.Omitted = []string{}
	if lo, hi, ok := stats.Bounds(counts.Groups); ok {
		r.Maps.Bounds = &Bounds{Min: lo, Max: hi}
	}
	return r, nil
}

// Table returns the 1-D table for dim and m.
func (r *Report) Table(dim stats.Dimension, m stats.Measure) (Table, bool) {
	for _, t := range r.Tables {
		if t.Dimension == dim && t.Measure == m {
			return t, true
		}
	}
	return Table{}, false
}

// Matrix returns the Race × Gender table for m.
func (r *Report) Matrix(m stats.Measure) (MatrixTable, bool) {
	for _, t := range r.Matrices {
		if t.Measure == m {
			return t, true
		}
	}
	return MatrixTable{}, false
}

// StateNames lists the state keys of the case-count table in table order.
func (r *Report) StateNames() []string {
	return r.Maps.StateCounts.Keys()
}

// AttachPlaces records geocoding results against the state case counts.
func (r *Report) AttachPlaces(batch geocode.Batch, snap metrics.Snapshot) {
	placed := make([]MapPoint, 0, len(batch.Places))
	for _, p := range batch.Places {
		count, _ := r.Maps.StateCounts.Lookup(p.Name)
		placed = append(placed, MapPoint{Name: p.Name, Count: count, Lat: p.Point.Lat, Lon: p.Point.Lon})
	}
	r.Maps.Placed = placed
	r.Maps.Omitted = append([]string{}, batch.Omitted...)
	r.Maps.Geocode = snap
}

func (r *Report) restoreKeys() error {
	for i := range r.Tables {
		dim, err := stats.ParseDimension(r.Tables[i].DimName)
		if err != nil {
			return err
		}
		m, err := stats.ParseMeasure(r.Tables[i].MeasName)
		if err != nil {
			return err
		}
		r.Tables[i].Dimension, r.Tables[i].Measure = dim, m
	}
	for i := range r.Matrices {
		m, err := stats.ParseMeasure(r.Matrices[i].MeasName)
		if err != nil {
			return err
		}
		r.Matrices[i].Measure = m
	}
	return nil
}
