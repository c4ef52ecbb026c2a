package cpr

import (
	"math"
	"testing"
)

func TestNL_SpecialCases(t *testing.T) {
	if got := NL(0); got != 59 {
		t.Errorf("NL(0) = %d, want 59", got)
	}
	if got := NL(87); got != 2 {
		t.Errorf("NL(87) = %d, want 2", got)
	}
	if got := NL(88); got != 1 {
		t.Errorf("NL(88) = %d, want 1", got)
	}
	if got := NL(-88); got != 1 {
		t.Errorf("NL(-88) = %d, want 1", got)
	}
}

// encode mirrors the CPR encoding formula (the inverse of LocalDecode's
// local-decode arithmetic) so tests can build a self-consistent even/odd
// pair for a chosen real-world position without depending on an external
// fixture's raw encoded integers.
func encode(lat, lon float64, surface, odd bool) EncodedPosition {
	dl := dlat(surface, odd)
	yz := math.Floor(scale*mod(lat, dl)/dl + 0.5)
	i := 0.0
	if odd {
		i = 1.0
	}
	deg := airborneDegrees
	if surface {
		deg = surfaceDegrees
	}
	nl := NL(lat)
	denom := math.Max(1, float64(nl)-i)
	dlon := deg / denom
	xz := math.Floor(scale*mod(lon, dlon)/dlon + 0.5)
	return EncodedPosition{Lat: uint32(yz) & 0x1ffff, Lon: uint32(xz) & 0x1ffff, Odd: odd}
}

func TestGlobalDecode_RoundTripsASelfConsistentPair(t *testing.T) {
	const wantLat, wantLon = 52.2572, 3.91937 // a point clear of any NL boundary

	even := encode(wantLat, wantLon, false, false)
	even.Time = 0
	odd := encode(wantLat, wantLon, false, true)
	odd.Time = 1

	lat, lon, err := GlobalDecode(even, odd, false, false, 0, 0)
	if err != nil {
		t.Fatalf("unexpected straddle: %v", err)
	}
	if d := Haversine(lat, lon, wantLat, wantLon); d > 10 {
		t.Errorf("global decode recovered (%.5f,%.5f), want within 10m of (%.5f,%.5f), got %.1fm", lat, lon, wantLat, wantLon, d)
	}

	localLat, localLon := LocalDecode(odd, false, lat, lon)
	if d := Haversine(lat, lon, localLat, localLon); d > 10 {
		t.Errorf("local decode using the global fix as a reference disagreed by %.1fm, want <=10m", d)
	}
}

func TestGlobalDecode_Straddle(t *testing.T) {
	// An even position just south of the NL 59/58 boundary (about 10.47
	// degrees) and an odd one just north of it: the recovered Rlat values
	// land in different NL zones and global decoding must refuse the pair.
	even := encode(10.46, 0, false, false)
	even.Time = 0
	odd := encode(10.48, 0, false, true)
	odd.Time = 1

	_, _, err := GlobalDecode(even, odd, false, false, 0, 0)
	if err == nil {
		t.Error("expected a straddle error for NL-mismatched latitudes")
	}
	if _, ok := err.(*StraddleError); !ok {
		t.Errorf("expected *StraddleError, got %T", err)
	}
}

func TestHaversine_ZeroDistanceForSamePoint(t *testing.T) {
	if d := Haversine(51.5, -0.1, 51.5, -0.1); d != 0 {
		t.Errorf("Haversine of identical points = %f, want 0", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// London to Paris is approximately 344km.
	d := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	if d < 330000 || d > 360000 {
		t.Errorf("Haversine(London, Paris) = %.0fm, want ~344000m", d)
	}
}
