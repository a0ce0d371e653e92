// Package history reads road weather station history from SQL and
// interpolates daily highs and lows onto survey points.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/couchcryptid/breakup-etl/internal/adapter/stations"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	name       TEXT PRIMARY KEY,
	station_id TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS readings (
	site     TEXT NOT NULL,
	day      TEXT NOT NULL,
	air_temp DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS readings_site_day ON readings (site, day);
`

// Store is the station history database. Days are stored as YYYY-MM-DD text
// and temperatures in °F.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the history database with the "sqlite" or "pgx" driver.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history db: %w", err)
		}
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stations lists every station with a location.
func (s *Store) Stations(ctx context.Context) ([]stations.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, station_id, lat, lon FROM stations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var out []stations.Station
	for rows.Next() {
		var st stations.Station
		if err := rows.Scan(&st.Name, &st.ID, &st.Lat, &st.Lon); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Extreme is a station's highest and lowest air temperature on one day.
type Extreme struct {
	Day  time.Time
	High float64
	Low  float64
}

// DailyExtremes returns the per-day air temperature extremes of site over
// [from, to], ascending.
func (s *Store) DailyExtremes(ctx context.Context, site string, from, to time.Time) ([]Extreme, error) {
	query := s.rebind(`
		SELECT day, MAX(air_temp), MIN(air_temp)
		FROM readings
		WHERE site = ? AND day BETWEEN ? AND ? AND air_temp IS NOT NULL
		GROUP BY day
		ORDER BY day`)

	rows, err := s.db.QueryContext(ctx, query, site, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("query readings for %s: %w", site, err)
	}
	defer rows.Close()

	var out []Extreme
	for rows.Next() {
		var (
			day string
			e   Extreme
		)
		if err := rows.Scan(&day, &e.High, &e.Low); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		e.Day, err = time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("parse reading day %q: %w", day, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders as $n for the pgx driver.
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
