package report

import (
	"testing"

	"github.com/jetwatch/modes/lib/tracker/mode_s"
	"github.com/jetwatch/modes/lib/tracker/position"
)

func TestFromVariant_Identification(t *testing.T) {
	f, err := mode_s.ParseHex("8f3c64882010c234c8b820000000", false)
	if err != nil {
		t.Fatal(err)
	}
	v, err := mode_s.Decode(f, mode_s.VersionHint{})
	if err != nil {
		t.Fatal(err)
	}

	r := FromVariant(v, f, "test-feed", 1234, 0, nil)
	if r.Icao != "3C6488" {
		t.Errorf("Icao = %q, want 3C6488", r.Icao)
	}
	if r.Type != "Identification" {
		t.Errorf("Type = %q, want Identification", r.Type)
	}
	if r.Callsign == nil {
		t.Fatal("expected a callsign")
	}
	if r.Tag != "test-feed" {
		t.Errorf("Tag = %q", r.Tag)
	}
}

func TestFromVariant_PositionOverridesAltitude(t *testing.T) {
	f, err := mode_s.ParseHex("8d40064678000740000000000000", false)
	if err != nil {
		t.Fatal(err)
	}
	v, err := mode_s.Decode(f, mode_s.VersionHint{})
	if err != nil {
		t.Fatal(err)
	}

	lat, lon, altM := 52.25, 3.91, 3048.0 // 10,000 ft
	pos := &position.Position{Lat: &lat, Lon: &lon, AltMeters: &altM, Reasonable: true}
	r := FromVariant(v, f, "", 0, 0, pos)
	if r.Lat == nil || *r.Lat != lat {
		t.Error("position latitude should be carried onto the report")
	}
	if r.AltFeet == nil || *r.AltFeet != 10000 {
		t.Errorf("AltFeet = %v, want 10000", r.AltFeet)
	}
}

func TestIcaoString(t *testing.T) {
	if got := IcaoString([3]byte{0x7c, 0x49, 0xf8}); got != "7C49F8" {
		t.Errorf("IcaoString = %q, want 7C49F8", got)
	}
}
