package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"

	"github.com/jetwatch/modes/lib/report"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

func (c PostgresConfig) dsn() string {
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, ssl)
}

// PostgresDB keeps the per-aircraft latest-state table: one mutable row
// per transponder address, upserted as reports arrive. History belongs
// in ClickHouse; this table answers "where is everyone right now".
type PostgresDB struct {
	db *sqlx.DB
}

// OpenPostgres opens the latest-state database. Every query is logged
// through zerolog at debug level via the sqldb-logger shim.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	conn := sqldblogger.OpenDriver(cfg.dsn(), &pq.Driver{}, zerologadapter.New(log.Logger))
	db := sqlx.NewDb(conn, "postgres")
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresDB{db: db}, nil
}

// Close closes the connection pool.
func (d *PostgresDB) Close() error {
	return d.db.Close()
}

// CreateSchema creates the latest-state table.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS aircraft_state (
		icao          CHAR(6) PRIMARY KEY,
		tag           TEXT NOT NULL DEFAULT '',
		last_seen_ms  BIGINT NOT NULL,
		callsign      TEXT,
		squawk        INT,
		alt_ft        INT,
		lat           DOUBLE PRECISION,
		lon           DOUBLE PRECISION,
		speed_kts     DOUBLE PRECISION,
		heading       DOUBLE PRECISION,
		vert_rate_fpm INT,
		on_ground     BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := d.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// stateRow mirrors aircraft_state for sqlx named queries.
type stateRow struct {
	Icao       string   `db:"icao"`
	Tag        string   `db:"tag"`
	LastSeenMs int64    `db:"last_seen_ms"`
	Callsign   *string  `db:"callsign"`
	Squawk     *uint16  `db:"squawk"`
	AltFeet    *int32   `db:"alt_ft"`
	Lat        *float64 `db:"lat"`
	Lon        *float64 `db:"lon"`
	SpeedKts   *float64 `db:"speed_kts"`
	Heading    *float64 `db:"heading"`
	VertRate   *int32   `db:"vert_rate_fpm"`
	OnGround   bool     `db:"on_ground"`
}

// Upsert merges a report into the aircraft's latest-state row. COALESCE
// keeps previously known values when the incoming report does not carry
// them (an identification report must not blank out the position).
func (d *PostgresDB) Upsert(ctx context.Context, r report.Report) error {
	row := stateRow{
		Icao: r.Icao, Tag: r.Tag, LastSeenMs: r.TimeMs,
		Callsign: r.Callsign, Squawk: r.Squawk, AltFeet: r.AltFeet,
		Lat: r.Lat, Lon: r.Lon, SpeedKts: r.SpeedKts,
		Heading: r.Heading, VertRate: r.VertRate, OnGround: r.OnGround,
	}
	const q = `INSERT INTO aircraft_state (
		icao, tag, last_seen_ms, callsign, squawk, alt_ft, lat, lon,
		speed_kts, heading, vert_rate_fpm, on_ground, updated_at
	) VALUES (
		:icao, :tag, :last_seen_ms, :callsign, :squawk, :alt_ft, :lat, :lon,
		:speed_kts, :heading, :vert_rate_fpm, :on_ground, now()
	)
	ON CONFLICT (icao) DO UPDATE SET
		tag           = EXCLUDED.tag,
		last_seen_ms  = EXCLUDED.last_seen_ms,
		callsign      = COALESCE(EXCLUDED.callsign, aircraft_state.callsign),
		squawk        = COALESCE(EXCLUDED.squawk, aircraft_state.squawk),
		alt_ft        = COALESCE(EXCLUDED.alt_ft, aircraft_state.alt_ft),
		lat           = COALESCE(EXCLUDED.lat, aircraft_state.lat),
		lon           = COALESCE(EXCLUDED.lon, aircraft_state.lon),
		speed_kts     = COALESCE(EXCLUDED.speed_kts, aircraft_state.speed_kts),
		heading       = COALESCE(EXCLUDED.heading, aircraft_state.heading),
		vert_rate_fpm = COALESCE(EXCLUDED.vert_rate_fpm, aircraft_state.vert_rate_fpm),
		on_ground     = EXCLUDED.on_ground,
		updated_at    = now()`
	if _, err := d.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("upsert %s: %w", r.Icao, err)
	}
	return nil
}

// CurrentAircraft lists every aircraft seen since sinceMs, most recent
// first.
func (d *PostgresDB) CurrentAircraft(ctx context.Context, sinceMs int64) ([]report.Report, error) {
	var rows []stateRow
	const q = `SELECT icao, tag, last_seen_ms, callsign, squawk, alt_ft, lat, lon,
		speed_kts, heading, vert_rate_fpm, on_ground
		FROM aircraft_state WHERE last_seen_ms >= $1 ORDER BY last_seen_ms DESC`
	if err := d.db.SelectContext(ctx, &rows, q, sinceMs); err != nil {
		return nil, fmt.Errorf("select aircraft_state: %w", err)
	}
	out := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, report.Report{
			Icao: row.Icao, Tag: row.Tag, TimeMs: row.LastSeenMs,
			Callsign: row.Callsign, Squawk: row.Squawk, AltFeet: row.AltFeet,
			Lat: row.Lat, Lon: row.Lon, SpeedKts: row.SpeedKts,
			Heading: row.Heading, VertRate: row.VertRate, OnGround: row.OnGround,
		})
	}
	return out, nil
}
