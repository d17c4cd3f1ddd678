package metrics

import "sync/atomic"

// Metrics captures geocoding stats for one or more pipeline runs.
type Metrics struct {
	lookups   int64
	cacheHits int64
	misses    int64
	failures  int64
	retries   int64
	skipped   int64
	runs      int64
	runsOK    int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	Lookups   int64 `json:"lookups"`
	CacheHits int64 `json:"cache_hits"`
	Misses    int64 `json:"not_found"`
	Failures  int64 `json:"failures"`
	Retries   int64 `json:"retries"`
	Skipped   int64 `json:"skipped"`
	Runs      int64 `json:"runs"`
	RunsOK    int64 `json:"runs_ok"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordLookup counts a provider call; cached answers go to RecordCacheHit.
func (m *Metrics) RecordLookup()   { atomic.AddInt64(&m.lookups, 1) }
func (m *Metrics) RecordCacheHit() { atomic.AddInt64(&m.cacheHits, 1) }
func (m *Metrics) RecordNotFound() { atomic.AddInt64(&m.misses, 1) }
func (m *Metrics) RecordFailure()  { atomic.AddInt64(&m.failures, 1) }
func (m *Metrics) RecordRetry()    { atomic.AddInt64(&m.retries, 1) }
func (m *Metrics) RecordSkipped()  { atomic.AddInt64(&m.skipped, 1) }

// RecordRun increments run/success counters based on outcome.
func (m *Metrics) RecordRun(err error) {
	atomic.AddInt64(&m.runs, 1)
	if err == nil {
		atomic.AddInt64(&m.runsOK, 1)
	}
}

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Lookups:   atomic.LoadInt64(&m.lookups),
		CacheHits: atomic.LoadInt64(&m.cacheHits),
		Misses:    atomic.LoadInt64(&m.misses),
		Failures:  atomic.LoadInt64(&m.failures),
		Retries:   atomic.LoadInt64(&m.retries),
		Skipped:   atomic.LoadInt64(&m.skipped),
		Runs:      atomic.LoadInt64(&m.runs),
		RunsOK:    atomic.LoadInt64(&m.runsOK),
	}
}

// Sub returns the counters accumulated since prev.
func (s Snapshot) Sub(prev Snapshot) Snapshot {
	return Snapshot{
		Lookups:   s.Lookups - prev.Lookups,
		CacheHits: s.CacheHits - prev.CacheHits,
		Misses:    s.Misses - prev.Misses,
		Failures:  s.Failures - prev.Failures,
		Retries:   s.Retries - prev.Retries,
		Skipped:   s.Skipped - prev.Skipped,
		Runs:      s.Runs - prev.Runs,
		RunsOK:    s.RunsOK - prev.RunsOK,
	}
}
