package geo

import (
	"strings"
	"testing"

	"github.com/jetwatch/modes/lib/report"
)

func f64(v float64) *float64 { return &v }

func TestFeatureCollection_SkipsUnpositionedReports(t *testing.T) {
	reports := []report.Report{
		{Icao: "7C79B1", Type: "Identification"},
		{Icao: "3C6488", Type: "AirbornePosition", Lat: f64(-31.95), Lon: f64(115.86)},
	}
	fc := FeatureCollection(reports, nil)
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
}

func TestFeatureCollection_ClipsToBounds(t *testing.T) {
	reports := []report.Report{
		{Icao: "AAAAAA", Type: "AirbornePosition", Lat: f64(-31.95), Lon: f64(115.86)}, // Perth
		{Icao: "BBBBBB", Type: "AirbornePosition", Lat: f64(51.47), Lon: f64(-0.45)},  // London
	}
	perthish := &Bounds{MinLon: 110, MinLat: -40, MaxLon: 130, MaxLat: -20}
	fc := FeatureCollection(reports, perthish)
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature inside the window, got %d", len(fc.Features))
	}

	doc, err := Marshal(fc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc, "AAAAAA") || strings.Contains(doc, "BBBBBB") {
		t.Errorf("wrong aircraft survived the clip: %s", doc)
	}
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// London to Paris is approximately 344km.
	d := DistanceMeters(-0.1278, 51.5074, 2.3522, 48.8566)
	if d < 330000 || d > 360000 {
		t.Errorf("DistanceMeters(London, Paris) = %.0fm, want ~344000m", d)
	}
}
