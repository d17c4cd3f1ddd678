package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrMiss reports that no fresh entry exists for a name.
var ErrMiss = errors.New("cache miss")

// Store wraps SQLite access for cached geocode lookups.
type Store struct {
	db *sql.DB
}

// Point is one cached lookup. Found is false for names the provider could
// not place, so they are not queried again until the entry expires.
type Point struct {
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Found     bool      `json:"found"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open opens (or creates) the cache at path. ":memory:" keeps it in memory.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS geocode_points (
            name TEXT NOT NULL,
            provider TEXT NOT NULL,
            lat REAL,
            lon REAL,
            found INTEGER NOT NULL,
            updated_at TIMESTAMP,
            PRIMARY KEY (name, provider)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_geocode_updated ON geocode_points(updated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetPoint returns the entry for name if it is younger than ttl. A zero ttl
// never expires.
func (s *Store) GetPoint(ctx context.Context, provider, name string, ttl time.Duration, now time.Time) (Point, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, provider, lat, lon, found, updated_at FROM geocode_points WHERE name=? AND provider=?`, cacheKey(name), provider)
	var p Point
	var lat, lon sql.NullFloat64
	var found int
	switch err := row.Scan(&p.Name, &p.Provider, &lat, &lon, &found, &p.UpdatedAt); err {
	case nil:
	case sql.ErrNoRows:
		return Point{}, ErrMiss
	default:
		return Point{}, fmt.Errorf("read cached point: %w", err)
	}
	if ttl > 0 && now.Sub(p.UpdatedAt) > ttl {
		return Point{}, ErrMiss
	}
	p.Lat, p.Lon = lat.Float64, lon.Float64
	p.Found = found != 0
	return p, nil
}

// PutPoint upserts an entry.
func (s *Store) PutPoint(ctx context.Context, p Point) error {
	found := 0
	if p.Found {
		found = 1
	}
	var lat, lon any
	if p.Found {
		lat, lon = p.Lat, p.Lon
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO geocode_points(name, provider, lat, lon, found, updated_at)
        VALUES(?, ?, ?, ?, ?, ?)
        ON CONFLICT(name, provider) DO UPDATE SET lat=excluded.lat, lon=excluded.lon, found=excluded.found, updated_at=excluded.updated_at`,
		cacheKey(p.Name), p.Provider, lat, lon, found, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("write cached point: %w", err)
	}
	return nil
}

// ListPoints returns every entry for provider ordered by name.
func (s *Store) ListPoints(ctx context.Context, provider string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, provider, lat, lon, found, updated_at FROM geocode_points WHERE provider=? ORDER BY name ASC`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []Point
	for rows.Next() {
		var p Point
		var lat, lon sql.NullFloat64
		var found int
		if err := rows.Scan(&p.Name, &p.Provider, &lat, &lon, &found, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Lat, p.Lon = lat.Float64, lon.Float64
		p.Found = found != 0
		points = append(points, p)
	}
	return points, rows.Err()
}

// Purge deletes entries last written before cutoff and reports how many.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM geocode_points WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Health returns err if DB not reachable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}
