// Package store persists decoded reports: ClickHouse holds the append-only
// report history, PostgreSQL holds one mutable latest-state row per
// aircraft. A Store buffers incoming reports and flushes them in batches.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/jetwatch/modes/lib/report"
)

var (
	prometheusReportsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_store_reports_total",
		Help: "The total number of reports written to ClickHouse.",
	})
	prometheusStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_store_errors_total",
		Help: "The total number of failed storage writes.",
	})
	prometheusBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modes_store_batch_size",
		Help:    "Reports per ClickHouse batch.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

// Config holds connection settings for both databases.
type Config struct {
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig

	// BatchSize and FlushInterval bound how long a report can sit in the
	// buffer before reaching ClickHouse.
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns local development settings.
func DefaultConfig() Config {
	return Config{
		ClickHouse: ClickHouseConfig{
			Host: "localhost", Port: 9000, Database: "modes", User: "default",
		},
		Postgres: PostgresConfig{
			Host: "localhost", Port: 5432, Database: "modes_state", User: "modes", Password: "modes",
		},
		BatchSize:     500,
		FlushInterval: 2 * time.Second,
	}
}

// Store wraps both databases behind a single Write call.
type Store struct {
	ch *ClickHouseDB
	pg *PostgresDB

	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	pending []report.Report
}

// Open connects to both databases and creates their schemas.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	pg, err := OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := ch.CreateSchema(ctx); err != nil {
		_ = ch.Close()
		_ = pg.Close()
		return nil, err
	}
	if err := pg.CreateSchema(ctx); err != nil {
		_ = ch.Close()
		_ = pg.Close()
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}

	return &Store{
		ch:            ch,
		pg:            pg,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		pending:       make([]report.Report, 0, batchSize),
	}, nil
}

// Write buffers r for the next ClickHouse batch and immediately upserts
// the aircraft's latest-state row.
func (s *Store) Write(ctx context.Context, r report.Report) error {
	if err := s.pg.Upsert(ctx, r); err != nil {
		prometheusStoreErrors.Inc()
		return err
	}

	s.mu.Lock()
	s.pending = append(s.pending, r)
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.Flush(ctx)
	}
	return nil
}

// Flush writes all buffered reports to ClickHouse.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = make([]report.Report, 0, s.batchSize)
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	prometheusBatchSize.Observe(float64(len(batch)))
	if err := s.ch.InsertBatch(ctx, batch); err != nil {
		prometheusStoreErrors.Inc()
		return err
	}
	prometheusReportsStored.Add(float64(len(batch)))
	return nil
}

// RunFlusher flushes on a timer until ctx is cancelled, then performs a
// final flush.
func (s *Store) RunFlusher(ctx context.Context) {
	t := time.NewTicker(s.flushInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(context.Background()); err != nil {
				log.Error().Err(err).Msg("final flush")
			}
			return
		case <-t.C:
			if err := s.Flush(ctx); err != nil {
				log.Error().Err(err).Msg("periodic flush")
			}
		}
	}
}

// CurrentAircraft proxies the latest-state query.
func (s *Store) CurrentAircraft(ctx context.Context, sinceMs int64) ([]report.Report, error) {
	return s.pg.CurrentAircraft(ctx, sinceMs)
}

// Close flushes and closes both databases.
func (s *Store) Close() error {
	if err := s.Flush(context.Background()); err != nil {
		log.Error().Err(err).Msg("flush on close")
	}
	errCh := s.ch.Close()
	errPg := s.pg.Close()
	if errCh != nil {
		return errCh
	}
	return errPg
}
