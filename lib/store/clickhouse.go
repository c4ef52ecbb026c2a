package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"

	"github.com/jetwatch/modes/lib/report"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for report history storage.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the report history table.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS mode_s_reports (
		icao            FixedString(6),
		tag             LowCardinality(String),
		msg_type        LowCardinality(String),
		time_ms         Int64,
		raw_frame       String,
		callsign        Nullable(String),
		squawk          Nullable(UInt16),
		alt_ft          Nullable(Int32),
		lat             Nullable(Float64),
		lon             Nullable(Float64),
		speed_kts       Nullable(Float64),
		heading         Nullable(Float64),
		vert_rate_fpm   Nullable(Int32),
		on_ground       UInt8,
		signal_level    UInt8,
		created_at      DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(toDateTime64(time_ms / 1000, 3))
	ORDER BY (icao, time_ms)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, q); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertBatch writes a batch of reports in one round trip.
func (d *ClickHouseDB) InsertBatch(ctx context.Context, reports []report.Report) error {
	if len(reports) == 0 {
		return nil
	}
	batch, err := d.conn.PrepareBatch(ctx, `INSERT INTO mode_s_reports (
		icao, tag, msg_type, time_ms, raw_frame,
		callsign, squawk, alt_ft, lat, lon,
		speed_kts, heading, vert_rate_fpm, on_ground, signal_level)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range reports {
		onGround := uint8(0)
		if r.OnGround {
			onGround = 1
		}
		if err := batch.Append(
			r.Icao, r.Tag, r.Type, r.TimeMs, r.RawFrame,
			r.Callsign, r.Squawk, r.AltFeet, r.Lat, r.Lon,
			r.SpeedKts, r.Heading, r.VertRate, onGround, r.SignalLevel,
		); err != nil {
			return fmt.Errorf("append report: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	log.Debug().Int("rows", len(reports)).Msg("clickhouse batch written")
	return nil
}
