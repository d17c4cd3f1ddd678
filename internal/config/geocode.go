package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Geocoding providers.
const (
	ProviderOffline   = "offline"
	ProviderMapbox    = "mapbox"
	ProviderNominatim = "nominatim"
)

// GeocodeConfig captures the state lookup used by the point map.
type GeocodeConfig struct {
	Enabled       bool
	Provider      string
	MapboxToken   string
	MapboxBaseURL string
	NominatimURL  string
	UserAgent     string
	TimeoutSec    int
	MaxAttempts   int
	MinBackoffMs  int
	MaxBackoffMs  int
	Concurrency   int
	CachePath     string
	CacheTTLHours int
}

type geocodeFileConfig struct {
	Enabled       *bool  `json:"enabled" yaml:"enabled"`
	Provider      string `json:"provider" yaml:"provider"`
	MapboxBaseURL string `json:"mapbox_base_url" yaml:"mapbox_base_url"`
	NominatimURL  string `json:"nominatim_url" yaml:"nominatim_url"`
	UserAgent     string `json:"user_agent" yaml:"user_agent"`
	TimeoutSec    *int   `json:"timeout_sec" yaml:"timeout_sec"`
	MaxAttempts   *int   `json:"max_attempts" yaml:"max_attempts"`
	MinBackoffMs  *int   `json:"min_backoff_ms" yaml:"min_backoff_ms"`
	MaxBackoffMs  *int   `json:"max_backoff_ms" yaml:"max_backoff_ms"`
	Concurrency   *int   `json:"concurrency" yaml:"concurrency"`
	CachePath     string `json:"cache_path" yaml:"cache_path"`
	CacheTTLHours *int   `json:"cache_ttl_hours" yaml:"cache_ttl_hours"`
}

// DefaultGeocodeConfig uses the built-in state table, so a run needs no
// network access unless a provider is configured.
func DefaultGeocodeConfig() GeocodeConfig {
	return GeocodeConfig{
		Enabled:       true,
		Provider:      ProviderOffline,
		NominatimURL:  "https://nominatim.openstreetmap.org/search",
		UserAgent:     "shooting-stats/1.0",
		TimeoutSec:    30,
		MaxAttempts:   4,
		MinBackoffMs:  500,
		MaxBackoffMs:  8000,
		Concurrency:   4,
		CachePath:     filepath.Join("data", "geocode-cache.db"),
		CacheTTLHours: 24 * 30,
	}
}

// Timeout is the per-request deadline.
func (g GeocodeConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// CacheTTL is the maximum age of a cached lookup.
func (g GeocodeConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLHours) * time.Hour
}

// MinBackoff is the first retry delay.
func (g GeocodeConfig) MinBackoff() time.Duration {
	return time.Duration(g.MinBackoffMs) * time.Millisecond
}

// MaxBackoff caps retry delays.
func (g GeocodeConfig) MaxBackoff() time.Duration {
	return time.Duration(g.MaxBackoffMs) * time.Millisecond
}

func (g GeocodeConfig) validate() error {
	switch g.Provider {
	case ProviderOffline, ProviderNominatim:
	case ProviderMapbox:
		if g.Enabled && strings.TrimSpace(g.MapboxToken) == "" {
			return errors.New("MAPBOX_TOKEN is required for the mapbox provider")
		}
	default:
		return fmt.Errorf("unknown geocode provider %q", g.Provider)
	}
	if g.TimeoutSec <= 0 {
		return errors.New("geocode timeout must be positive")
	}
	if g.MaxAttempts <= 0 {
		return errors.New("geocode max attempts must be positive")
	}
	if g.Concurrency <= 0 {
		return errors.New("geocode concurrency must be positive")
	}
	if g.MaxBackoffMs < g.MinBackoffMs {
		return errors.New("geocode max backoff must be >= min backoff")
	}
	return nil
}

func applyGeocodeOverrides(base GeocodeConfig, override geocodeFileConfig) GeocodeConfig {
	if override.Enabled != nil {
		base.Enabled = *override.Enabled
	}
	if v := strings.ToLower(strings.TrimSpace(override.Provider)); v != "" {
		base.Provider = v
	}
	if v := strings.TrimSpace(override.MapboxBaseURL); v != "" {
		base.MapboxBaseURL = v
	}
	if v := strings.TrimSpace(override.NominatimURL); v != "" {
		base.NominatimURL = v
	}
	if v := strings.TrimSpace(override.UserAgent); v != "" {
		base.UserAgent = v
	}
	if override.TimeoutSec != nil && *override.TimeoutSec > 0 {
		base.TimeoutSec = *override.TimeoutSec
	}
	if override.MaxAttempts != nil && *override.MaxAttempts > 0 {
		base.MaxAttempts = *override.MaxAttempts
	}
	if override.MinBackoffMs != nil && *override.MinBackoffMs >= 0 {
		base.MinBackoffMs = *override.MinBackoffMs
	}
	if override.MaxBackoffMs != nil && *override.MaxBackoffMs >= 0 {
		base.MaxBackoffMs = *override.MaxBackoffMs
	}
	if override.Concurrency != nil && *override.Concurrency > 0 {
		base.Concurrency = *override.Concurrency
	}
	if v := strings.TrimSpace(override.CachePath); v != "" {
		base.CachePath = v
	}
	if override.CacheTTLHours != nil && *override.CacheTTLHours > 0 {
		base.CacheTTLHours = *override.CacheTTLHours
	}
	return base
}

func applyGeocodeEnv(g *GeocodeConfig, strict bool, log *zap.Logger) error {
	g.Enabled = parseBoolEnvDefault("GEOCODE_ENABLED", g.Enabled)
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("GEOCODE_PROVIDER"))); v != "" {
		g.Provider = v
	}
	g.MapboxToken = firstNonEmpty(os.Getenv("MAPBOX_TOKEN"), g.MapboxToken)
	g.MapboxBaseURL = firstNonEmpty(os.Getenv("MAPBOX_BASE_URL"), g.MapboxBaseURL)
	g.NominatimURL = firstNonEmpty(os.Getenv("NOMINATIM_URL"), g.NominatimURL)
	g.UserAgent = firstNonEmpty(os.Getenv("GEOCODE_USER_AGENT"), g.UserAgent)
	g.CachePath = firstNonEmpty(os.Getenv("GEOCODE_CACHE_PATH"), g.CachePath)

	ints := []struct {
		key string
		dst *int
	}{
		{"GEOCODE_TIMEOUT_SEC", &g.TimeoutSec},
		{"GEOCODE_MAX_ATTEMPTS", &g.MaxAttempts},
		{"GEOCODE_CONCURRENCY", &g.Concurrency},
		{"GEOCODE_CACHE_TTL_HOURS", &g.CacheTTLHours},
	}
	for _, item := range ints {
		v, ok, err := parseIntEnv(item.key)
		if err != nil {
			if strict {
				return fmt.Errorf("invalid %s: %w", item.key, err)
			}
			log.Warn("invalid integer env, using default", zap.String("key", item.key), zap.Error(err))
			continue
		}
		if ok && v > 0 {
			*item.dst = v
		}
	}
	return nil
}
