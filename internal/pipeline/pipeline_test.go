package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shooting_stats/internal/config"
	"shooting_stats/internal/events"
	"shooting_stats/internal/geocode"
	"shooting_stats/internal/incident"
	"shooting_stats/internal/metrics"
	"shooting_stats/internal/report"
	"shooting_stats/internal/stats"
)

const dataset = `Title,Location,Date,Fatalities,Injured,Total victims,Mental Health Issues,Race,Gender
Las Vegas Strip massacre,"Las Vegas, NV",10/1/2017,58,546,604,Unclear,White,M
San Bernardino,"San Bernardino, CA",12/2/2015,14,21,35,Unknown,Other,M/F
Unlisted,,1/1/2001,1,0,1,No,White,M
Aurora theater,"Aurora, Colorado",7/20/2012,12,58,70,Yes,white,Male
Somewhere,Nowhere,,1,0,1,yes,Black American or African American,F
`

func testConfig(t *testing.T, data string) config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return config.Config{
		DataPath:  path,
		OutputDir: filepath.Join(dir, "result"),
		Delimiter: ',',
		Geocode:   config.DefaultGeocodeConfig(),
		Render:    config.RenderConfig{Enabled: false, Maps: true},
	}
}

func TestRunWritesReport(t *testing.T) {
	cfg := testConfig(t, dataset)
	m := metrics.New()
	p := New(cfg, Deps{Geocoder: geocode.NewOffline(), Metrics: m})
	state, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(state.Raws) != 5 || len(state.Incidents) != 4 {
		t.Fatalf("expected 5 raw and 4 kept rows, got %d/%d", len(state.Raws), len(state.Incidents))
	}
	if state.ReportPath != filepath.Join(cfg.OutputDir, report.JSONFile) {
		t.Fatalf("unexpected report path %s", state.ReportPath)
	}
	rep, err := report.ReadJSON(state.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	if rep.RunID != state.RunID {
		t.Fatalf("run id mismatch: %s vs %s", rep.RunID, state.RunID)
	}
	states, _ := rep.Table(stats.State, stats.Count)
	for _, key := range []string{"Nevada", "California", "Colorado", "Other"} {
		if _, ok := states.Groups.Lookup(key); !ok {
			t.Fatalf("missing state %s in %v", key, states.Groups)
		}
	}
	if len(rep.Maps.Placed) != 3 {
		t.Fatalf("expected 3 placed states, got %+v", rep.Maps.Placed)
	}
	if len(rep.Maps.Omitted) != 1 || rep.Maps.Omitted[0] != "Other" {
		t.Fatalf("expected Other omitted, got %v", rep.Maps.Omitted)
	}
	if snap := m.Snapshot(); snap.Runs != 1 || snap.RunsOK != 1 {
		t.Fatalf("unexpected run metrics %+v", snap)
	}
}

func TestRunRendersCharts(t *testing.T) {
	cfg := testConfig(t, dataset)
	cfg.Render.Enabled = true
	cfg.Render.Maps = false
	state, err := New(cfg, Deps{}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Charts) != 28 {
		t.Fatalf("expected 28 charts, got %d", len(state.Charts))
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "rg_c.png")); err != nil {
		t.Fatalf("expected rg_c.png: %v", err)
	}
}

func TestRunFailsOnBadDate(t *testing.T) {
	cfg := testConfig(t, "Location,Date,Fatalities,Injured,Total victims,Mental Health Issues,Race,Gender\n\"A, CO\",someday,1,1,2,No,White,M\n")
	m := metrics.New()
	_, err := New(cfg, Deps{Metrics: m}).Run(context.Background())
	var loadErr *incident.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Row != 2 || loadErr.Column != incident.ColDate {
		t.Fatalf("unexpected load error %+v", loadErr)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.OutputDir, report.JSONFile)); statErr == nil {
		t.Fatalf("report should not be written after a failed load")
	}
	if snap := m.Snapshot(); snap.Runs != 1 || snap.RunsOK != 0 {
		t.Fatalf("unexpected run metrics %+v", snap)
	}
}

func TestRunUntilStopsEarly(t *testing.T) {
	cfg := testConfig(t, dataset)
	state, err := New(cfg, Deps{}).RunUntil(context.Background(), StageNormalize)
	if err != nil {
		t.Fatal(err)
	}
	if state.Report != nil || len(state.Incidents) != 4 {
		t.Fatalf("expected normalized incidents only, got %+v", state)
	}
}

func TestStageEvents(t *testing.T) {
	cfg := testConfig(t, dataset)
	cfg.Geocode.Enabled = false
	bus := events.NewBus()
	ch := bus.Subscribe()
	if _, err := New(cfg, Deps{Bus: bus}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	final := map[string]string{}
	for len(ch) > 0 {
		ev := <-ch
		final[ev.Stage] = ev.Status
	}
	want := map[string]string{
		string(StageLoad):      events.StatusSucceeded,
		string(StageNormalize): events.StatusSucceeded,
		string(StageAggregate): events.StatusSucceeded,
		string(StageGeocode):   events.StatusSkipped,
		string(StageRender):    events.StatusSkipped,
		string(StageWrite):     events.StatusSucceeded,
	}
	for stage, status := range want {
		if final[stage] != status {
			t.Fatalf("stage %s: expected %s, got %s", stage, status, final[stage])
		}
	}
}

func TestRunEmptyDataset(t *testing.T) {
	cfg := testConfig(t, "Location,Date,Fatalities,Injured,Total victims,Mental Health Issues,Race,Gender\n")
	cfg.Render.Enabled = true
	state, err := New(cfg, Deps{Geocoder: geocode.NewOffline()}).Run(context.Background())
	if err != nil {
		t.Fatalf("empty dataset should succeed: %v", err)
	}
	if state.Report.Maps.Bounds != nil || len(state.Charts) != 30 {
		t.Fatalf("unexpected empty report: bounds=%v charts=%d", state.Report.Maps.Bounds, len(state.Charts))
	}
}
