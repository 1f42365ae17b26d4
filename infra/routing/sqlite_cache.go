package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	corerouting "github.com/kilianp07/shuttle/core/routing"
)

// SQLiteCache persists legs in a SQLite table keyed by origin and destination.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS leg_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        duration_seconds REAL NOT NULL,
        distance_meters REAL NOT NULL,
        geometry TEXT,
        PRIMARY KEY (origin, destination)
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteCache{db: db}, nil
}

func (s *SQLiteCache) Get(ctx context.Context, from, to corerouting.Coordinate) (corerouting.Leg, bool, error) {
	var (
		leg  corerouting.Leg
		geom sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT duration_seconds, distance_meters, geometry FROM leg_cache WHERE origin = ? AND destination = ?`,
		from.Key(), to.Key()).Scan(&leg.DurationSeconds, &leg.DistanceMeters, &geom)
	if errors.Is(err, sql.ErrNoRows) {
		return corerouting.Leg{}, false, nil
	}
	if err != nil {
		return corerouting.Leg{}, false, fmt.Errorf("get leg cache: %w", err)
	}
	if geom.Valid && geom.String != "" {
		if err := json.Unmarshal([]byte(geom.String), &leg.Geometry); err != nil {
			return corerouting.Leg{}, false, fmt.Errorf("get leg cache: decode geometry: %w", err)
		}
	}
	return leg, true, nil
}

func (s *SQLiteCache) Put(ctx context.Context, from, to corerouting.Coordinate, leg corerouting.Leg) error {
	geom, err := json.Marshal(leg.Geometry)
	if err != nil {
		return fmt.Errorf("insert leg cache: encode geometry: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert leg cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO leg_cache (
        origin,
        destination,
        duration_seconds,
        distance_meters,
        geometry
    )
    VALUES (?, ?, ?, ?, ?)`,
		from.Key(), to.Key(), leg.DurationSeconds, leg.DistanceMeters, string(geom)); err != nil {
		return fmt.Errorf("insert leg cache: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert leg cache commit: %w", err)
	}
	return nil
}

func (s *SQLiteCache) Close() error { return s.db.Close() }
