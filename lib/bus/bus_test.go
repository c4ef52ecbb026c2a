package bus

import (
	"strings"
	"testing"

	"github.com/jetwatch/modes/lib/report"
)

func TestSubject(t *testing.T) {
	tests := map[string]string{
		"":              "modes.reports.untagged",
		"perth-01":      "modes.reports.perth-01",
		"bad.tag":       "modes.reports.bad-tag",
		"evil.>":        "modes.reports.evil--",
		"star*wildcard": "modes.reports.star-wildcard",
	}
	for tag, want := range tests {
		if got := Subject(tag); got != want {
			t.Errorf("Subject(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestEnvelopeMarshalOmitsEmptyFields(t *testing.T) {
	r := report.Report{Icao: "7C79B1", Type: "Identification", TimeMs: 1000, RawFrame: "8d7c79b1"}
	payload, err := json.Marshal(Envelope{ID: "x", Report: r})
	if err != nil {
		t.Fatal(err)
	}
	s := string(payload)
	if strings.Contains(s, "lat") || strings.Contains(s, "squawk") {
		t.Errorf("empty optional fields should be omitted from the wire form: %s", s)
	}
	if !strings.Contains(s, `"icao":"7C79B1"`) {
		t.Errorf("missing icao: %s", s)
	}
}
