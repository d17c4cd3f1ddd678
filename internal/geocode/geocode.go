// Package geocode places state names on the map.
//
// A Geocoder answers one name at a time. Providers (offline table, Mapbox,
// Nominatim) are wrapped by Retrying for transient failures and by Cached
// for the SQLite cache; LookupAll fans a batch out with bounded parallelism.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"shooting_stats/internal/config"
	"shooting_stats/internal/metrics"
	"shooting_stats/internal/store"
)

// ErrNotFound means the provider answered but could not place the name.
var ErrNotFound = errors.New("location not found")

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a place name to a point.
type Geocoder interface {
	Lookup(ctx context.Context, name string) (Point, error)
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d", e.Provider, e.Code)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// New builds the configured provider chain: provider, retries, then the cache
// when st is non-nil. The offline provider is never retried or cached.
func New(cfg config.GeocodeConfig, st *store.Store, m *metrics.Metrics, log *zap.Logger) (Geocoder, error) {
	if m == nil {
		m = metrics.New()
	}
	var provider Geocoder
	client := &http.Client{}
	switch cfg.Provider {
	case config.ProviderOffline, "":
		return NewOffline(), nil
	case config.ProviderMapbox:
		provider = &Mapbox{BaseURL: cfg.MapboxBaseURL, Token: cfg.MapboxToken, Client: client}
	case config.ProviderNominatim:
		provider = &Nominatim{BaseURL: cfg.NominatimURL, UserAgent: cfg.UserAgent, Client: client}
	default:
		return nil, fmt.Errorf("unknown geocode provider %q", cfg.Provider)
	}
	g := Geocoder(&Retrying{
		Next:        provider,
		MaxAttempts: cfg.MaxAttempts,
		MinBackoff:  cfg.MinBackoff(),
		MaxBackoff:  cfg.MaxBackoff(),
		Timeout:     cfg.Timeout(),
		Metrics:     m,
		Log:         log,
	})
	if st != nil {
		g = &Cached{Next: g, Store: st, Provider: cfg.Provider, TTL: cfg.CacheTTL(), Metrics: m, Log: log}
	}
	return g, nil
}
