package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/jetwatch/modes/lib/bus"
	"github.com/jetwatch/modes/lib/geo"
	"github.com/jetwatch/modes/lib/live"
	"github.com/jetwatch/modes/lib/report"
	"github.com/jetwatch/modes/lib/setup"
	"github.com/jetwatch/modes/lib/source"
	"github.com/jetwatch/modes/lib/store"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
	"github.com/jetwatch/modes/lib/tracker/position"
	"github.com/jetwatch/modes/lib/tracker/session"
)

var (
	prometheusFramesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_ingest_decoded_total",
		Help: "The total number of frames successfully decoded.",
	})
	prometheusDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_ingest_decode_errors_total",
		Help: "The total number of frames that failed to decode.",
	})
	prometheusPositions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_ingest_positions_total",
		Help: "The total number of resolved aircraft positions.",
	})
	prometheusTrackedAircraft = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "modes_ingest_tracked_aircraft",
		Help: "The number of aircraft currently in the session registry.",
	})
)

type ingestSinks struct {
	publisher *bus.Publisher
	db        *store.Store
	liveFeed  *live.Server
}

func runIngest(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producers, err := setup.HandleSourceFlags(c)
	if err != nil {
		return err
	}
	if len(producers) == 0 {
		return fmt.Errorf("no sources configured, use --fetch/--listen/--file")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var sinks ingestSinks
	sinks.liveFeed = live.NewServer()

	if natsURL := c.String(flagNatsURL); natsURL != "" {
		sinks.publisher, err = bus.Connect(natsURL)
		if err != nil {
			return err
		}
		defer sinks.publisher.Close()
	}

	if c.Bool(flagStore) {
		storeCfg := store.DefaultConfig()
		storeCfg.ClickHouse.Host = cfg.GetString("clickhouse.host")
		storeCfg.ClickHouse.Port = cfg.GetInt("clickhouse.port")
		storeCfg.ClickHouse.Database = cfg.GetString("clickhouse.database")
		storeCfg.ClickHouse.User = cfg.GetString("clickhouse.user")
		storeCfg.ClickHouse.Password = cfg.GetString("clickhouse.password")
		storeCfg.Postgres.Host = cfg.GetString("postgres.host")
		storeCfg.Postgres.Port = cfg.GetInt("postgres.port")
		storeCfg.Postgres.Database = cfg.GetString("postgres.database")
		storeCfg.Postgres.User = cfg.GetString("postgres.user")
		storeCfg.Postgres.Password = cfg.GetString("postgres.password")

		sinks.db, err = store.Open(ctx, storeCfg)
		if err != nil {
			return err
		}
		defer func() { _ = sinks.db.Close() }()
		go sinks.db.RunFlusher(ctx)
	}

	var sessionOpts []session.Option
	if c.Bool(flagStrictAddr) {
		sessionOpts = append(sessionOpts, session.WithStrictAddressCheck())
	}
	decoder := session.New(sessionOpts...)

	go serveHTTP(ctx, c.String(flagHTTPAddr), sinks)

	events := mergeProducers(ctx, producers)
	for ev := range events {
		handleFrame(ctx, decoder, sinks, ev)
	}

	log.Info().Msg("all sources finished")
	return nil
}

// mergeProducers starts every producer and fans their events into one
// channel, closed once all producers are done.
func mergeProducers(ctx context.Context, producers []*source.Producer) <-chan source.FrameEvent {
	out := make(chan source.FrameEvent, 256)
	var wg sync.WaitGroup
	for _, p := range producers {
		wg.Add(1)
		go func(p *source.Producer) {
			defer wg.Done()
			go func() {
				if err := p.Run(ctx); err != nil {
					log.Error().Err(err).Msg("source stopped")
				}
			}()
			for ev := range p.Listen() {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}(p)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func handleFrame(ctx context.Context, decoder *session.Decoder, sinks ingestSinks, ev source.FrameEvent) {
	v, err := decoder.Decode(ev.Frame)
	if err != nil {
		prometheusDecodeErrors.Inc()
		log.Debug().Err(err).Str("frame", ev.Frame.HexMessage()).Msg("decode failed")
		return
	}
	prometheusFramesDecoded.Inc()
	prometheusTrackedAircraft.Set(float64(decoder.AircraftCount()))

	pos := resolvePosition(decoder, v, ev)
	if pos != nil {
		prometheusPositions.Inc()
	}

	r := report.FromVariant(v, ev.Frame, ev.Tag, ev.ReceivedMillis, ev.SignalLevel, pos)

	if sinks.publisher != nil {
		if err := sinks.publisher.Publish(r); err != nil {
			log.Warn().Err(err).Msg("publish report")
		}
	}
	if sinks.db != nil {
		if err := sinks.db.Write(ctx, r); err != nil {
			log.Warn().Err(err).Msg("store report")
		}
	}
	sinks.liveFeed.Publish(r)
}

// resolvePosition feeds position-bearing variants through the session
// decoder's CPR state machine.
func resolvePosition(decoder *session.Decoder, v mode_s.Variant, ev source.FrameEvent) *position.Position {
	var in position.Input
	switch m := v.(type) {
	case mode_s.AirbornePosition:
		in = position.Input{
			Odd:           m.OddFormat,
			EncodedLat:    m.EncodedLat,
			EncodedLon:    m.EncodedLon,
			AltitudeFeet:  m.AltitudeFeet,
			AltitudeValid: m.AltitudeValid,
		}
	case mode_s.SurfacePosition:
		in = position.Input{
			Surface:          true,
			Odd:              m.OddFormat,
			EncodedLat:       m.EncodedLat,
			EncodedLon:       m.EncodedLon,
			GroundSpeedKnots: m.GroundSpeedKnots,
			HasGroundSpeed:   m.GroundSpeedValid,
		}
	default:
		return nil
	}

	recv := position.Receiver{Lat: ev.RefLat, Lon: ev.RefLon, Known: ev.HasRef}
	pos, err := decoder.DecodePosition(ev.ReceivedMillis, v.ICAO24(), in, recv)
	if err != nil {
		log.Debug().Err(err).Msg("position decode")
		return nil
	}
	return pos
}

// serveHTTP exposes prometheus metrics, the live websocket feed and a
// GeoJSON snapshot of currently tracked aircraft.
func serveHTTP(ctx context.Context, addr string, sinks ingestSinks) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/live", sinks.liveFeed)
	mux.HandleFunc("/aircraft.geojson", func(w http.ResponseWriter, r *http.Request) {
		if sinks.db == nil {
			http.Error(w, "storage not enabled", http.StatusNotFound)
			return
		}
		sinceMs := time.Now().Add(-5*time.Minute).UnixMilli()
		reports, err := sinks.db.CurrentAircraft(r.Context(), sinceMs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		doc, err := geo.Marshal(geo.FeatureCollection(reports, nil))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(doc))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("http endpoints up")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("http server")
	}
}
