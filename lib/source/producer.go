// Package source turns byte streams from receivers (network feeds or
// capture files) into parsed Mode S frames. A Producer owns one stream in
// AVR or Beast framing and emits FrameEvents on a channel until the
// stream ends or its context is cancelled.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jetwatch/modes/lib/tracker/beast"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

// Format selects the wire framing of a stream.
type Format int

const (
	// Avr is the '*<hex>;' line protocol.
	Avr Format = iota
	// Beast is the 0x1A-framed binary protocol.
	Beast
)

func (f Format) String() string {
	if f == Beast {
		return "beast"
	}
	return "avr"
}

// FrameEvent is one received frame plus its reception metadata.
type FrameEvent struct {
	Frame          *mode_s.Frame
	Tag            string
	SignalLevel    byte
	ReceivedMillis int64
	RefLat, RefLon float64
	HasRef         bool
}

type connector func(ctx context.Context) (io.ReadCloser, error)

// Producer reads one stream and emits parsed frames. Create with New,
// consume via Listen, stop via the context passed to Run.
type Producer struct {
	format  Format
	tag     string
	refLat  float64
	refLon  float64
	hasRef  bool
	connect connector

	avrCounter   prometheus.Counter
	beastCounter prometheus.Counter

	out chan FrameEvent
	log zerolog.Logger
}

// Option configures a Producer.
type Option func(*Producer)

// WithFormat selects AVR or Beast framing.
func WithFormat(f Format) Option {
	return func(p *Producer) { p.format = f }
}

// WithSourceTag attaches a tag carried on every emitted FrameEvent, so
// downstream sinks know which feed a frame came from.
func WithSourceTag(tag string) Option {
	return func(p *Producer) { p.tag = tag }
}

// WithReferenceLatLon sets the receiver location used for surface
// position decoding downstream.
func WithReferenceLatLon(lat, lon float64) Option {
	return func(p *Producer) {
		p.refLat, p.refLon, p.hasRef = lat, lon, true
	}
}

// WithFetcher dials out to host:port and reconnects with backoff when
// the connection drops.
func WithFetcher(host, port string) Option {
	return func(p *Producer) {
		addr := net.JoinHostPort(host, port)
		p.connect = func(ctx context.Context) (io.ReadCloser, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", addr, err)
			}
			return conn, nil
		}
	}
}

// WithListener accepts a single inbound connection on host:port per
// stream session.
func WithListener(host, port string) Option {
	return func(p *Producer) {
		addr := net.JoinHostPort(host, port)
		p.connect = func(ctx context.Context) (io.ReadCloser, error) {
			lc := net.ListenConfig{}
			l, err := lc.Listen(ctx, "tcp", addr)
			if err != nil {
				return nil, fmt.Errorf("listen %s: %w", addr, err)
			}
			defer func() { _ = l.Close() }()
			conn, err := l.Accept()
			if err != nil {
				return nil, fmt.Errorf("accept on %s: %w", addr, err)
			}
			return conn, nil
		}
	}
}

// WithFile replays a capture file and stops at EOF.
func WithFile(path string) Option {
	return func(p *Producer) {
		p.connect = func(ctx context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		}
	}
}

// WithPrometheusCounters wires the per-format input counters.
func WithPrometheusCounters(avr, beastFrames prometheus.Counter) Option {
	return func(p *Producer) {
		p.avrCounter = avr
		p.beastCounter = beastFrames
	}
}

// New builds a Producer. A connector option (WithFetcher, WithListener
// or WithFile) is required before Run is called.
func New(opts ...Option) *Producer {
	p := &Producer{
		out: make(chan FrameEvent, 256),
	}
	for _, o := range opts {
		o(p)
	}
	p.log = log.With().Str("source", p.tag).Str("format", p.format.String()).Logger()
	return p
}

// Listen returns the channel FrameEvents are emitted on. The channel is
// closed when Run returns.
func (p *Producer) Listen() <-chan FrameEvent {
	return p.out
}

// Run reads the stream until ctx is cancelled or (for files) EOF,
// reconnecting network sources with backoff. It closes the event channel
// on return.
func (p *Producer) Run(ctx context.Context) error {
	defer close(p.out)
	if p.connect == nil {
		return fmt.Errorf("source %q has no connector configured", p.tag)
	}

	backoff := time.Second
	for {
		rc, err := p.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Error().Err(err).Dur("retry-in", backoff).Msg("connect failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = p.consume(ctx, rc)
		_ = rc.Close()
		if ctx.Err() != nil || err == io.EOF {
			return nil
		}
		if err != nil {
			p.log.Error().Err(err).Msg("stream error, reconnecting")
		}
	}
}

func (p *Producer) consume(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if p.format == Beast {
		scanner.Split(beast.ScanBeast)
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		now := time.Now().UnixMilli()
		var frame *mode_s.Frame
		var signal byte
		var err error

		switch p.format {
		case Beast:
			var bf *beast.Frame
			bf, err = beast.NewFrame(scanner.Bytes(), false)
			if err == nil {
				if bf.MessageType() == 0x31 {
					continue // Mode A/C, nothing to decode
				}
				signal = bf.SignalLevel()
				err = bf.Decode()
				if err == nil {
					frame = bf.AvrFrame()
				}
			}
			if p.beastCounter != nil {
				p.beastCounter.Inc()
			}
		default:
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			frame, err = mode_s.ParseHex(line, false)
			if p.avrCounter != nil {
				p.avrCounter.Inc()
			}
		}

		if err != nil {
			p.log.Debug().Err(err).Msg("undecodable frame")
			continue
		}

		ev := FrameEvent{
			Frame:          frame,
			Tag:            p.tag,
			SignalLevel:    signal,
			ReceivedMillis: now,
			RefLat:         p.refLat,
			RefLon:         p.refLon,
			HasRef:         p.hasRef,
		}
		select {
		case p.out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
