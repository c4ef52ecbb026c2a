// Package bus publishes decoded reports onto NATS so downstream
// consumers (history writers, alerting, map frontends) can subscribe
// without touching the decode path. Each report travels in an Envelope
// with a unique id, and the subject is derived from the feed tag so
// consumers can subscribe per-feed or with a wildcard.
package bus

import (
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/jetwatch/modes/lib/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// SubjectPrefix roots every published subject; the feed tag (or
	// "untagged") is appended, e.g. modes.reports.perth-01.
	SubjectPrefix = "modes.reports"
)

// Envelope wraps a Report for transport with a unique id and the
// publish timestamp.
type Envelope struct {
	ID          string        `json:"id"`
	PublishedAt time.Time     `json:"published_at"`
	Report      report.Report `json:"report"`
}

// Publisher sends report envelopes to a NATS server.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials the NATS server at natsUrl (nats://host:port) with the
// retry behaviour an unattended ingest daemon needs.
func Connect(natsUrl string) (*Publisher, error) {
	nc, err := nats.Connect(natsUrl,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", natsUrl, err)
	}
	return &Publisher{nc: nc}, nil
}

// Publish wraps r in an Envelope and sends it on the tag-derived
// subject.
func (p *Publisher) Publish(r report.Report) error {
	env := Envelope{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
		Report:      r,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.nc.Publish(Subject(r.Tag), payload)
}

// Close drains in-flight messages and closes the connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("nats drain")
	}
}

// Subject maps a feed tag to its NATS subject. Characters with subject
// syntax meaning are replaced so a hostile tag cannot publish outside
// the prefix.
func Subject(tag string) string {
	if tag == "" {
		tag = "untagged"
	}
	tag = strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ':
			return '-'
		}
		return r
	}, tag)
	return SubjectPrefix + "." + tag
}
