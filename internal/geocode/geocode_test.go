package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"shooting_stats/internal/config"
	"shooting_stats/internal/metrics"
	"shooting_stats/internal/store"
)

type fakeGeocoder struct {
	calls  int64
	points map[string]Point
	errs   map[string]error
}

func (f *fakeGeocoder) Lookup(ctx context.Context, name string) (Point, error) {
	atomic.AddInt64(&f.calls, 1)
	if err, ok := f.errs[name]; ok {
		return Point{}, err
	}
	if p, ok := f.points[name]; ok {
		return p, nil
	}
	return Point{}, ErrNotFound
}

func TestOfflineLookup(t *testing.T) {
	g := NewOffline()
	for _, name := range []string{"Colorado", "colorado", "CO", " Texas "} {
		if _, err := g.Lookup(context.Background(), name); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := g.Lookup(context.Background(), "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(States) != 51 {
		t.Fatalf("expected 51 states, got %d", len(States))
	}
}

func TestMapboxLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "pk.test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("types") != "region" {
			t.Errorf("expected region type, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"features":[{"center":[-105.5,39.0]}]}`))
	}))
	defer srv.Close()

	g := &Mapbox{BaseURL: srv.URL, Token: "pk.test", Client: srv.Client()}
	got, err := g.Lookup(context.Background(), "Colorado")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Point{Lat: 39.0, Lon: -105.5}, got); diff != "" {
		t.Fatalf("point mismatch:\n%s", diff)
	}

	g.Token = "wrong"
	_, err = g.Lookup(context.Background(), "Colorado")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if IsRetryable(err) {
		t.Fatalf("401 should not be retryable")
	}
}

func TestNominatimLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "shooting-stats-test" {
			t.Errorf("missing user agent")
		}
		if r.URL.Query().Get("q") == "Nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"47.4","lon":"-121.5"}]`))
	}))
	defer srv.Close()

	g := &Nominatim{BaseURL: srv.URL, UserAgent: "shooting-stats-test", Client: srv.Client()}
	got, err := g.Lookup(context.Background(), "Washington")
	if err != nil {
		t.Fatal(err)
	}
	if got.Lat != 47.4 || got.Lon != -121.5 {
		t.Fatalf("unexpected point %+v", got)
	}
	if _, err := g.Lookup(context.Background(), "Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetryingRecoversFromTransientStatus(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"features":[{"center":[-99,31]}]}`))
	}))
	defer srv.Close()

	m := metrics.New()
	g := &Retrying{
		Next:        &Mapbox{BaseURL: srv.URL, Token: "pk", Client: srv.Client()},
		MaxAttempts: 4,
		MinBackoff:  time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
		Timeout:     time.Second,
		Metrics:     m,
	}
	if _, err := g.Lookup(context.Background(), "Texas"); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if atomic.LoadInt64(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
	if snap := m.Snapshot(); snap.Retries != 2 || snap.Lookups != 3 {
		t.Fatalf("unexpected metrics %+v", snap)
	}
}

func TestRetryingStopsOnPermanentError(t *testing.T) {
	fake := &fakeGeocoder{errs: map[string]error{"Ohio": &StatusError{Provider: "test", Code: http.StatusBadRequest}}}
	g := &Retrying{Next: fake, MaxAttempts: 5, MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	if _, err := g.Lookup(context.Background(), "Ohio"); err == nil {
		t.Fatalf("expected error")
	}
	if fake.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", fake.calls)
	}
	if _, err := g.Lookup(context.Background(), "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("not-found should not be retried, got %d calls", fake.calls)
	}
}

func TestCachedStoresFoundAndNotFound(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	fake := &fakeGeocoder{points: map[string]Point{"Iowa": {Lat: 42, Lon: -93}}}
	m := metrics.New()
	g := &Cached{Next: fake, Store: st, Provider: "fake", TTL: time.Hour, Metrics: m}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := g.Lookup(ctx, "Iowa"); err != nil {
			t.Fatal(err)
		}
		if _, err := g.Lookup(ctx, "Atlantis"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if fake.calls != 2 {
		t.Fatalf("expected provider called once per name, got %d", fake.calls)
	}
	if snap := m.Snapshot(); snap.CacheHits != 2 {
		t.Fatalf("expected 2 cache hits, got %+v", snap)
	}
}

func TestCachedDoesNotStoreTransientErrors(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	fake := &fakeGeocoder{errs: map[string]error{"Utah": &StatusError{Provider: "fake", Code: 503}}}
	g := &Cached{Next: fake, Store: st, Provider: "fake"}
	for i := 0; i < 2; i++ {
		if _, err := g.Lookup(context.Background(), "Utah"); err == nil {
			t.Fatalf("expected error")
		}
	}
	if fake.calls != 2 {
		t.Fatalf("expected transient error to bypass cache, got %d calls", fake.calls)
	}
}

func TestLookupAll(t *testing.T) {
	fake := &fakeGeocoder{
		points: map[string]Point{"Colorado": {Lat: 39, Lon: -105}, "Texas": {Lat: 31, Lon: -99}},
		errs:   map[string]error{"Ohio": &StatusError{Provider: "fake", Code: 500}},
	}
	m := metrics.New()
	names := []string{"Texas", "Other", "Ohio", "Colorado", "Atlantis"}
	got, err := LookupAll(context.Background(), fake, names, 2, m, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Batch{
		Places: []Place{
			{Name: "Texas", Point: Point{Lat: 31, Lon: -99}},
			{Name: "Colorado", Point: Point{Lat: 39, Lon: -105}},
		},
		Omitted: []string{"Atlantis", "Ohio", "Other"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("batch mismatch (-want +got):\n%s", diff)
	}
	snap := m.Snapshot()
	if snap.Skipped != 1 || snap.Misses != 1 || snap.Failures != 1 {
		t.Fatalf("unexpected metrics %+v", snap)
	}
}

func TestLookupAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeGeocoder{errs: map[string]error{"Texas": context.Canceled}}
	if _, err := LookupAll(ctx, fake, []string{"Texas"}, 1, nil, nil); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestNewBuildsProviderChain(t *testing.T) {
	cfg := config.DefaultGeocodeConfig()
	g, err := New(cfg, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*Offline); !ok {
		t.Fatalf("expected offline geocoder, got %T", g)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	cfg.Provider = config.ProviderNominatim
	g, err = New(cfg, st, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cached, ok := g.(*Cached)
	if !ok {
		t.Fatalf("expected cached geocoder, got %T", g)
	}
	if _, ok := cached.Next.(*Retrying); !ok {
		t.Fatalf("expected retrying inner geocoder, got %T", cached.Next)
	}

	cfg.Provider = "carrier-pigeon"
	if _, err := New(cfg, nil, nil, nil); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
