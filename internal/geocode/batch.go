package geocode

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shooting_stats/internal/logging"
	"shooting_stats/internal/metrics"
)

// Place is a name the geocoder could resolve.
type Place struct {
	Name  string `json:"name"`
	Point Point  `json:"point"`
}

// Batch is the outcome of LookupAll. Omitted lists the names that were
// skipped, not found, or failed after retries, sorted.
type Batch struct {
	Places  []Place  `json:"places"`
	Omitted []string `json:"omitted"`
}

// Skip reports sentinel labels that are never sent to a provider.
func Skip(name string) bool {
	switch strings.TrimSpace(name) {
	case "", "Other", "Unknown", "State":
		return true
	}
	return false
}

// LookupAll resolves names with at most limit lookups in flight. Individual
// failures are logged and omitted; only cancellation of ctx is returned as
// an error. Places keep the order of names.
func LookupAll(ctx context.Context, g Geocoder, names []string, limit int, m *metrics.Metrics, log *zap.Logger) (Batch, error) {
	log = logging.OrNop(log)
	if m == nil {
		m = metrics.New()
	}
	if limit <= 0 {
		limit = 1
	}

	points := make([]*Point, len(names))
	var mu sync.Mutex
	omitted := make([]string, 0)
	omit := func(name string) {
		mu.Lock()
		omitted = append(omitted, name)
		mu.Unlock()
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(limit)
	for i, name := range names {
		if Skip(name) {
			m.RecordSkipped()
			log.Debug("geocode skipped", zap.String("name", name))
			omit(name)
			continue
		}
		grp.Go(func() error {
			p, err := g.Lookup(gctx, name)
			switch {
			case err == nil:
				points[i] = &p
			case errors.Is(err, ErrNotFound):
				m.RecordNotFound()
				log.Info("geocode not found, omitted", zap.String("name", name))
				omit(name)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				m.RecordFailure()
				log.Warn("geocode failed, omitted", zap.String("name", name), zap.Error(err))
				omit(name)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return Batch{}, err
	}

	out := Batch{Places: make([]Place, 0, len(names)), Omitted: omitted}
	for i, p := range points {
		if p != nil {
			out.Places = append(out.Places, Place{Name: names[i], Point: *p})
		}
	}
	sort.Strings(out.Omitted)
	return out, nil
}
