package geocode

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shooting_stats/internal/metrics"
	"shooting_stats/internal/store"
)

// Cached consults the SQLite cache before Next. Both found and not-found
// answers are cached; transient errors are not.
type Cached struct {
	Next     Geocoder
	Store    *store.Store
	Provider string
	TTL      time.Duration
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	Now      func() time.Time
}

func (c *Cached) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func (c *Cached) Lookup(ctx context.Context, name string) (Point, error) {
	cached, err := c.Store.GetPoint(ctx, c.Provider, name, c.TTL, c.now())
	switch {
	case err == nil:
		if c.Metrics != nil {
			c.Metrics.RecordCacheHit()
		}
		if !cached.Found {
			return Point{}, ErrNotFound
		}
		return Point{Lat: cached.Lat, Lon: cached.Lon}, nil
	case !errors.Is(err, store.ErrMiss):
		return Point{}, err
	}

	p, err := c.Next.Lookup(ctx, name)
	switch {
	case err == nil:
		c.put(ctx, store.Point{Name: name, Provider: c.Provider, Lat: p.Lat, Lon: p.Lon, Found: true, UpdatedAt: c.now()})
		return p, nil
	case errors.Is(err, ErrNotFound):
		c.put(ctx, store.Point{Name: name, Provider: c.Provider, UpdatedAt: c.now()})
		return Point{}, err
	default:
		return Point{}, err
	}
}

// put failures only cost a repeat lookup next run.
func (c *Cached) put(ctx context.Context, p store.Point) {
	if err := c.Store.PutPoint(ctx, p); err != nil && c.Log != nil {
		c.Log.Warn("geocode cache write failed", zap.String("name", p.Name), zap.Error(err))
	}
}
