// Package render draws the report's charts as PNG files.
package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"shooting_stats/internal/logging"
	"shooting_stats/internal/report"
)

// Renderer writes chart files into Dir.
type Renderer struct {
	Dir  string
	Maps bool
	Log  *zap.Logger
}

// New returns a renderer for dir.
func New(dir string, maps bool, log *zap.Logger) *Renderer {
	log = logging.OrNop(log)
	return &Renderer{Dir: dir, Maps: maps, Log: log}
}

// RenderAll draws every table of r and, when enabled, the two maps. It
// returns the written paths in drawing order.
func (rd *Renderer) RenderAll(ctx context.Context, r *report.Report) ([]string, error) {
	if err := os.MkdirAll(rd.Dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	emit := func(name string, c *Canvas) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(rd.Dir, name)
		if err := WritePNG(path, c.Image()); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	for _, t := range r.Tables {
		var c *Canvas
		switch t.Chart.Kind {
		case report.KindPie:
			c = Pie(t.Groups, t.Chart)
		default:
			c = Bar(t.Groups, t.Chart)
		}
		if err := emit(t.Chart.File, c); err != nil {
			return written, err
		}
	}
	for _, mt := range r.Matrices {
		if err := emit(mt.Chart.File, GroupedBar(mt.Matrix, mt.Chart)); err != nil {
			return written, err
		}
	}

	if !rd.Maps {
		rd.Log.Debug("map rendering disabled")
		return written, nil
	}
	if err := emit(r.Maps.State.File, Choropleth(r.Maps.StateCounts, r.Maps.Bounds, r.Maps.State)); err != nil {
		return written, err
	}
	points, outside := Points(r.Maps.Placed, ContinentalUS, r.Maps.Points)
	if outside > 0 {
		rd.Log.Info("points outside map frame", zap.Int("count", outside))
	}
	if err := emit(r.Maps.Points.File, points); err != nil {
		return written, err
	}
	return written, nil
}

// WritePNG encodes img to path through a temp file and rename.
func WritePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chart-*.png")
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
