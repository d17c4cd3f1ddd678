package geocode

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"shooting_stats/internal/metrics"
)

// Retrying retries transient failures of Next with exponential backoff.
// Each attempt gets its own Timeout.
type Retrying struct {
	Next        Geocoder
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	Timeout     time.Duration
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

func (r *Retrying) Lookup(ctx context.Context, name string) (Point, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	b := &backoff.Backoff{Min: r.MinBackoff, Max: r.MaxBackoff, Factor: 2, Jitter: true}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return Point{}, ctx.Err()
		}
		var p Point
		p, err = r.once(ctx, name)
		if err == nil {
			return p, nil
		}
		if attempt == attempts || !IsRetryable(err) {
			return Point{}, err
		}
		delay := b.Duration()
		if r.Metrics != nil {
			r.Metrics.RecordRetry()
		}
		if r.Log != nil {
			r.Log.Debug("geocode retry", zap.String("name", name), zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		}
		if !sleep(ctx, delay) {
			return Point{}, ctx.Err()
		}
	}
	return Point{}, err
}

func (r *Retrying) once(ctx context.Context, name string) (Point, error) {
	if r.Metrics != nil {
		r.Metrics.RecordLookup()
	}
	if r.Timeout <= 0 {
		return r.Next.Lookup(ctx, name)
	}
	tctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return r.Next.Lookup(tctx, name)
}

// IsRetryable determines whether an error is likely transient.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
