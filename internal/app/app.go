package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"shooting_stats/internal/config"
	"shooting_stats/internal/events"
	"shooting_stats/internal/geocode"
	"shooting_stats/internal/logging"
	"shooting_stats/internal/metrics"
	"shooting_stats/internal/pipeline"
	"shooting_stats/internal/store"
	"shooting_stats/internal/watch"
)

// App wires the report components together.
type App struct {
	cfg      config.Config
	log      *zap.Logger
	store    *store.Store
	metrics  *metrics.Metrics
	bus      *events.Bus
	pipeline *pipeline.Pipeline
}

// New opens the geocode cache (network providers only) and builds the
// pipeline.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	log = logging.OrNop(log)
	a := &App{cfg: cfg, log: log, metrics: metrics.New(), bus: events.NewBus()}

	if cfg.Geocode.Enabled && cfg.Geocode.Provider != config.ProviderOffline && cfg.Geocode.CachePath != "" {
		st, err := openCache(cfg.Geocode, log)
		if err != nil {
			return nil, err
		}
		a.store = st
	}

	var g geocode.Geocoder
	if cfg.Geocode.Enabled {
		var err error
		g, err = geocode.New(cfg.Geocode, a.store, a.metrics, log)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.pipeline = pipeline.New(cfg, pipeline.Deps{Geocoder: g, Metrics: a.metrics, Bus: a.bus, Log: log})
	return a, nil
}

func openCache(cfg config.GeocodeConfig, log *zap.Logger) (*store.Store, error) {
	if dir := filepath.Dir(cfg.CachePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("geocode cache dir: %w", err)
		}
	}
	st, err := store.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	ctx := context.Background()
	if err := st.Health(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("geocode cache unavailable: %w", err)
	}
	if ttl := cfg.CacheTTL(); ttl > 0 {
		n, err := st.Purge(ctx, time.Now().UTC().Add(-ttl))
		if err != nil {
			log.Warn("geocode cache purge failed", zap.Error(err))
		} else if n > 0 {
			log.Info("purged expired geocode entries", zap.Int64("count", n))
		}
	}
	if points, err := st.ListPoints(ctx, cfg.Provider); err == nil {
		log.Debug("geocode cache ready", zap.String("path", cfg.CachePath), zap.String("provider", cfg.Provider), zap.Int("entries", len(points)))
	}
	return st, nil
}

// Report runs every stage.
func (a *App) Report(ctx context.Context) (*pipeline.State, error) {
	return a.pipeline.Run(ctx)
}

// RunUntil runs the stages up to and including last.
func (a *App) RunUntil(ctx context.Context, last pipeline.Stage) (*pipeline.State, error) {
	return a.pipeline.RunUntil(ctx, last)
}

// Watch runs the report once, then again whenever the data file changes,
// until ctx is cancelled. onRun sees every outcome. A failing first run
// does not stop the watch.
func (a *App) Watch(ctx context.Context, onRun func(*pipeline.State, error)) error {
	run := func(ctx context.Context) error {
		state, err := a.pipeline.Run(ctx)
		if onRun != nil {
			onRun(state, err)
		}
		return err
	}
	if err := run(ctx); err != nil && ctx.Err() == nil {
		a.log.Warn("initial run failed, waiting for changes", zap.Error(err))
	}
	w := watch.New(a.cfg.DataPath, a.cfg.Watch.Debounce(), run, a.log)
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-w.Done()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the geocode cache.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *App) Metrics() *metrics.Metrics { return a.metrics }
func (a *App) Bus() *events.Bus          { return a.bus }
func (a *App) Store() *store.Store       { return a.store }
