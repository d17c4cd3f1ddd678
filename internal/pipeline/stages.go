package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shooting_stats/internal/config"
	"shooting_stats/internal/geocode"
	"shooting_stats/internal/incident"
	"shooting_stats/internal/normalize"
	"shooting_stats/internal/render"
	"shooting_stats/internal/report"
)

// Stage names a pipeline phase.
type Stage string

const (
	StageLoad      Stage = "LOAD"
	StageNormalize Stage = "NORMALIZE"
	StageAggregate Stage = "AGGREGATE"
	StageGeocode   Stage = "GEOCODE"
	StageRender    Stage = "RENDER"
	StageWrite     Stage = "WRITE"
)

// Stages lists every phase in execution order.
var Stages = []Stage{StageLoad, StageNormalize, StageAggregate, StageGeocode, StageRender, StageWrite}

// ErrSkipped is returned by a stage that has nothing to do under the
// current configuration.
var ErrSkipped = errors.New("stage skipped")

// StageFunc runs one phase, reading and extending state.
type StageFunc func(ctx context.Context, state *State) error

// Registry maps stages to implementations.
type Registry map[Stage]StageFunc

// BuildRegistry wires deterministic stage functions.
func BuildRegistry(cfg config.Config, deps Deps) Registry {
	deps = deps.withDefaults()
	return Registry{
		StageLoad:      loadStage(cfg),
		StageNormalize: normalizeStage(cfg, deps.Log),
		StageAggregate: aggregateStage(cfg),
		StageGeocode:   geocodeStage(cfg, deps),
		StageRender:    renderStage(cfg, deps.Log),
		StageWrite:     writeStage(cfg),
	}
}

func loadStage(cfg config.Config) StageFunc {
	return func(ctx context.Context, state *State) error {
		raws, err := incident.LoadFile(cfg.DataPath, incident.LoadOptions{Delimiter: cfg.Delimiter})
		if err != nil {
			return err
		}
		state.Raws = raws
		return nil
	}
}

func normalizeStage(cfg config.Config, log *zap.Logger) StageFunc {
	opts := normalize.Options{
		StateNames:      cfg.Normalize.StateNames,
		PreserveCAQuirk: cfg.Normalize.PreserveCAQuirk,
	}
	return func(ctx context.Context, state *State) error {
		state.Incidents, state.Audit = normalize.New(opts).Run(state.Raws)
		log.Info("normalized",
			zap.String("run", state.RunID),
			zap.Int("input", state.Audit.Input),
			zap.Int("kept", state.Audit.Kept),
			zap.Int("dropped", len(state.Audit.Dropped)),
			zap.Strings("rules", state.Audit.RuleNames()),
		)
		return nil
	}
}

func aggregateStage(cfg config.Config) StageFunc {
	return func(ctx context.Context, state *State) error {
		rep, err := report.Build(state.Incidents, state.Audit, report.Options{
			Input: cfg.DataPath,
			RunID: state.RunID,
		})
		if err != nil {
			return err
		}
		state.Report = rep
		return nil
	}
}

func geocodeStage(cfg config.Config, deps Deps) StageFunc {
	return func(ctx context.Context, state *State) error {
		if !cfg.Geocode.Enabled || deps.Geocoder == nil {
			return ErrSkipped
		}
		before := deps.Metrics.Snapshot()
		batch, err := geocode.LookupAll(ctx, deps.Geocoder, state.Report.StateNames(), cfg.Geocode.Concurrency, deps.Metrics, deps.Log)
		if err != nil {
			return err
		}
		state.Report.AttachPlaces(batch, deps.Metrics.Snapshot().Sub(before))
		deps.Log.Info("geocoded",
			zap.String("run", state.RunID),
			zap.Int("placed", len(batch.Places)),
			zap.Strings("omitted", batch.Omitted),
		)
		return nil
	}
}

func renderStage(cfg config.Config, log *zap.Logger) StageFunc {
	return func(ctx context.Context, state *State) error {
		if !cfg.Render.Enabled {
			return ErrSkipped
		}
		paths, err := render.New(cfg.OutputDir, cfg.Render.Maps, log).RenderAll(ctx, state.Report)
		state.Charts = paths
		return err
	}
}

func writeStage(cfg config.Config) StageFunc {
	return func(ctx context.Context, state *State) error {
		path, err := report.WriteJSON(cfg.OutputDir, state.Report)
		if err != nil {
			return err
		}
		state.ReportPath = path
		return nil
	}
}
