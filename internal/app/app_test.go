package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shooting_stats/internal/config"
	"shooting_stats/internal/pipeline"
)

const data = `Location,Date,Fatalities,Injured,Total victims,Mental Health Issues,Race,Gender
"Las Vegas, NV",10/1/2017,58,546,604,Unclear,White,M
"Aurora, Colorado",7/20/2012,12,58,70,Yes,White,Male
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	geo := config.DefaultGeocodeConfig()
	geo.CachePath = filepath.Join(dir, "cache", "geocode.db")
	return config.Config{
		DataPath:  path,
		OutputDir: filepath.Join(dir, "out"),
		Delimiter: ',',
		Geocode:   geo,
		Watch:     config.WatchConfig{DebounceMs: 50},
	}
}

func TestReportEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.Store() != nil {
		t.Fatalf("offline provider should not open a cache")
	}
	state, err := a.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Report.Maps.Placed) != 2 {
		t.Fatalf("expected 2 placed states, got %+v", state.Report.Maps.Placed)
	}
	if _, err := os.Stat(state.ReportPath); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}

func TestNetworkProviderOpensCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Geocode.Provider = config.ProviderNominatim
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.Store() == nil {
		t.Fatalf("expected geocode cache to be opened")
	}
	if err := a.Store().Health(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestRunUntilNormalize(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	state, err := a.RunUntil(context.Background(), pipeline.StageNormalize)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Incidents) != 2 || state.Incidents[0].State != "Nevada" {
		t.Fatalf("unexpected incidents %+v", state.Incidents)
	}
}

func TestWatchRerunsOnChange(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan error, 10)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, func(_ *pipeline.State, err error) { runs <- err })
	}()

	select {
	case err := <-runs:
		if err != nil {
			t.Fatalf("initial run failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("initial run did not happen")
	}

	// the watcher may not be registered yet right after the first run
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for rerun := false; !rerun; {
		if err := os.WriteFile(cfg.DataPath, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-runs:
			rerun = true
		case <-tick.C:
		case <-deadline:
			t.Fatalf("no re-run after data change")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
	if a.Metrics().Snapshot().Runs < 2 {
		t.Fatalf("expected at least 2 runs")
	}
}
