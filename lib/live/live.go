// Package live streams freshly decoded reports to websocket subscribers:
// browser maps, debugging CLIs, anything that wants the feed without a
// NATS client. Subscribers that cannot keep up are dropped rather than
// allowed to stall the decode path.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/jetwatch/modes/lib/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	subscriberBuffer = 64
	writeTimeout     = 5 * time.Second
)

// Server fans decoded reports out to websocket subscribers.
type Server struct {
	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// NewServer returns an empty broadcast hub.
func NewServer() *Server {
	return &Server{subscribers: make(map[chan []byte]struct{})}
}

// Publish sends r to every connected subscriber. Slow subscribers have
// the message dropped; they are kicked when their connection write
// eventually times out.
func (s *Server) Publish(r report.Report) {
	payload, err := json.Marshal(r)
	if err != nil {
		log.Error().Err(err).Msg("marshal live report")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- payload:
		default:
			// subscriber buffer full, drop this message for them
		}
	}
}

// SubscriberCount returns the number of connected clients.
func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// ServeHTTP upgrades the request to a websocket and streams reports
// until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // cross-origin map frontends are expected
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case payload := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("websocket write, dropping subscriber")
				return
			}
		}
	}
}

func (s *Server) subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}
