// Package pipeline runs the report stages in a fixed order:
// load, normalize, aggregate, geocode, render, write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shooting_stats/internal/config"
	"shooting_stats/internal/events"
	"shooting_stats/internal/geocode"
	"shooting_stats/internal/incident"
	"shooting_stats/internal/logging"
	"shooting_stats/internal/metrics"
	"shooting_stats/internal/normalize"
	"shooting_stats/internal/report"
)

// Deps are the long-lived collaborators shared by every run.
type Deps struct {
	Geocoder geocode.Geocoder
	Metrics  *metrics.Metrics
	Bus      *events.Bus
	Log      *zap.Logger
}

// State is what the stages of one run hand to each other.
type State struct {
	RunID      string
	Raws       []incident.Raw
	Incidents  []incident.Incident
	Audit      normalize.Audit
	Report     *report.Report
	Charts     []string
	ReportPath string
}

// Pipeline executes the registry in Stages order.
type Pipeline struct {
	reg  Registry
	deps Deps
}

func (d Deps) withDefaults() Deps {
	d.Log = logging.OrNop(d.Log)
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return d
}

// New builds a pipeline for cfg.
func New(cfg config.Config, deps Deps) *Pipeline {
	deps = deps.withDefaults()
	return &Pipeline{reg: BuildRegistry(cfg, deps), deps: deps}
}

// Run executes every stage.
func (p *Pipeline) Run(ctx context.Context) (*State, error) {
	return p.RunUntil(ctx, StageWrite)
}

// RunUntil executes stages in order up to and including last. The first
// failing stage stops the run.
func (p *Pipeline) RunUntil(ctx context.Context, last Stage) (state *State, err error) {
	state = &State{RunID: uuid.NewString()}
	log := p.deps.Log.With(zap.String("run", state.RunID))
	started := time.Now()
	defer func() {
		p.deps.Metrics.RecordRun(err)
		if err != nil {
			log.Error("run failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
			return
		}
		log.Info("run finished", zap.Duration("elapsed", time.Since(started)))
	}()

	for _, stage := range Stages {
		fn, ok := p.reg[stage]
		if !ok {
			return state, fmt.Errorf("no handler for stage %s", stage)
		}
		if err := p.runStage(ctx, log, state, stage, fn); err != nil {
			return state, err
		}
		if stage == last {
			break
		}
	}
	return state, nil
}

func (p *Pipeline) runStage(ctx context.Context, log *zap.Logger, state *State, stage Stage, fn StageFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.publish(state.RunID, stage, events.StatusStarted, 0, nil)
	t0 := time.Now()
	err := fn(ctx, state)
	elapsed := time.Since(t0)
	switch {
	case errors.Is(err, ErrSkipped):
		log.Debug("stage skipped", zap.String("stage", string(stage)))
		p.publish(state.RunID, stage, events.StatusSkipped, elapsed, nil)
		return nil
	case err != nil:
		p.publish(state.RunID, stage, events.StatusFailed, elapsed, err)
		return fmt.Errorf("%s: %w", stage, err)
	}
	log.Debug("stage finished", zap.String("stage", string(stage)), zap.Duration("elapsed", elapsed))
	p.publish(state.RunID, stage, events.StatusSucceeded, elapsed, nil)
	return nil
}

func (p *Pipeline) publish(runID string, stage Stage, status string, d time.Duration, err error) {
	p.deps.Bus.Publish(events.Event{RunID: runID, Stage: string(stage), Status: status, Duration: d, Err: err})
}
