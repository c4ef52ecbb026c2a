package live

import (
	"testing"

	"github.com/jetwatch/modes/lib/report"
)

func TestPublish_ReachesSubscribers(t *testing.T) {
	s := NewServer()
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	if s.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", s.SubscriberCount())
	}

	s.Publish(report.Report{Icao: "7C79B1", Type: "Identification"})
	select {
	case payload := <-ch:
		if len(payload) == 0 {
			t.Error("empty payload delivered")
		}
	default:
		t.Error("no payload delivered to the subscriber")
	}
}

func TestPublish_DropsWhenSubscriberIsFull(t *testing.T) {
	s := NewServer()
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// over-fill: the broadcaster must never block the decode path
	for i := 0; i < subscriberBuffer*2; i++ {
		s.Publish(report.Report{Icao: "7C79B1"})
	}
	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered = %d, want exactly the buffer size %d", got, subscriberBuffer)
	}
}
