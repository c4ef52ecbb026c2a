package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestProducer_ReplaysAvrFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.avr")
	content := "*8d4b8dee230c1278c34c20402ca1;\n\n*8f3c64882010c234c8b820000000;\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p := New(
		WithFormat(Avr),
		WithSourceTag("test"),
		WithFile(path),
		WithReferenceLatLon(-31.9, 115.8),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		if err := p.Run(ctx); err != nil {
			t.Error(err)
		}
	}()

	var events []FrameEvent
	for ev := range p.Listen() {
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(events))
	}
	if events[0].Tag != "test" {
		t.Errorf("Tag = %q, want test", events[0].Tag)
	}
	if !events[0].HasRef || events[0].RefLat != -31.9 {
		t.Error("reference position should ride along with every event")
	}
	if events[0].Frame.DownlinkFormat() != 17 {
		t.Errorf("DF = %d, want 17", events[0].Frame.DownlinkFormat())
	}
}

func TestProducer_RunWithoutConnectorFails(t *testing.T) {
	p := New(WithFormat(Avr))
	if err := p.Run(context.Background()); err == nil {
		t.Error("expected an error when no connector is configured")
	}
}
