package setup

import (
	"net/url"
	"testing"
)

func TestGetRef(t *testing.T) {
	u, err := url.Parse("beast://localhost:30005?refLat=-31.9&refLon=115.8")
	if err != nil {
		t.Fatal(err)
	}
	if got := getRef(u, "refLat", 0); got != -31.9 {
		t.Errorf("refLat = %f, want -31.9", got)
	}
	if got := getRef(u, "refLon", 0); got != 115.8 {
		t.Errorf("refLon = %f, want 115.8", got)
	}
	if got := getRef(u, "missing", 42); got != 42 {
		t.Errorf("missing param should fall back to the default, got %f", got)
	}
}

func TestGetTag(t *testing.T) {
	u, _ := url.Parse("avr://localhost:30002?tag=perth-01")
	if got := getTag(u, "default"); got != "perth-01" {
		t.Errorf("tag = %q, want perth-01", got)
	}
	u2, _ := url.Parse("avr://localhost:30002")
	if got := getTag(u2, "default"); got != "default" {
		t.Errorf("tag fallback = %q, want default", got)
	}
}

func TestFormatFromScheme(t *testing.T) {
	if _, err := formatFromScheme("sbs1"); err == nil {
		t.Error("sbs1 is not a supported scheme")
	}
	if f, err := formatFromScheme("BEAST"); err != nil || f.String() != "beast" {
		t.Errorf("BEAST should parse case-insensitively, got %v %v", f, err)
	}
	if f, err := formatFromScheme("avr"); err != nil || f.String() != "avr" {
		t.Errorf("avr should parse, got %v %v", f, err)
	}
}
