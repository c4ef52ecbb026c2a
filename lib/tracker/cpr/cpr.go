// Package cpr implements Compact Position Reporting global and local
// decoding for airborne and surface ADS-B position messages, per RTCA
// DO-260B appendix A. Airborne zones span 360 degrees of latitude per
// encoding; surface zones span 90, which is what makes the surface
// longitude ambiguous and reference-dependent.
package cpr

import (
	"fmt"
	"math"
)

const (
	nz             = 15
	scale          = 131072.0 // 2^17
	airborneDegrees = 360.0
	surfaceDegrees  = 90.0
)

// StraddleError mirrors mode_s.PositionStraddleError without importing
// that package (cpr is a leaf used by both mode_s-adjacent callers and
// the session/position layer; avoiding the import keeps the dependency
// graph acyclic). Callers in lib/tracker/position translate this into
// the public PositionStraddleError.
type StraddleError struct {
	Reason string
}

func (e *StraddleError) Error() string { return fmt.Sprintf("position straddle: %s", e.Reason) }

// EncodedPosition is one received CPR-encoded lat/lon pair.
type EncodedPosition struct {
	Lat, Lon uint32 // 17-bit encoded values
	Odd      bool
	Time     float64 // seconds
}

func mod(a, b float64) float64 {
	return math.Mod(math.Mod(a, b)+b, b)
}

func dlat(surface bool, odd bool) float64 {
	deg := airborneDegrees
	if surface {
		deg = surfaceDegrees
	}
	i := 0.0
	if odd {
		i = 1.0
	}
	return deg / (4*nz - i)
}

// NL returns the number of longitude zones at latitude lat, via the
// analytic formula with the special cases at the poles and the equator.
func NL(lat float64) int {
	a := math.Abs(lat)
	if a == 0 {
		return 59
	}
	if a == 87 {
		return 2
	}
	if a > 87 {
		return 1
	}
	cosPart := 1 - (1-math.Cos(math.Pi/(2*nz)))/math.Pow(math.Cos(math.Pi*a/180), 2)
	if cosPart < -1 {
		return 1
	}
	if cosPart > 1 {
		return 59
	}
	return int(math.Floor(2 * math.Pi / math.Acos(cosPart)))
}

// GlobalDecode resolves an even/odd encoded pair into a latitude and
// longitude. The more recently received message's NL/Dlon applies. surface
// additionally needs a reference position to disambiguate among the 4
// candidate longitude offsets; pass refLat/refLon as 0,0 and
// haveRef=false for airborne.
func GlobalDecode(even, odd EncodedPosition, surface bool, haveRef bool, refLat, refLon float64) (lat, lon float64, err error) {
	dlat0 := dlat(surface, false)
	dlat1 := dlat(surface, true)

	j := math.Floor((59*float64(even.Lat) - 60*float64(odd.Lat)) / scale + 0.5)

	rlatEven := dlat0 * (mod(j, 60) + float64(even.Lat)/scale)
	rlatOdd := dlat1 * (mod(j, 59) + float64(odd.Lat)/scale)

	if !surface {
		rlatEven = wrapLat(rlatEven)
		rlatOdd = wrapLat(rlatOdd)
	}

	nlEven := NL(rlatEven)
	nlOdd := NL(rlatOdd)
	if nlEven != nlOdd {
		return 0, 0, &StraddleError{Reason: "even/odd frames span an NL transition latitude"}
	}

	var rlat float64
	var i float64
	var enc EncodedPosition
	if odd.Time >= even.Time {
		rlat = rlatOdd
		i = 1
		enc = odd
	} else {
		rlat = rlatEven
		i = 0
		enc = even
	}

	nl := nlEven
	denom := math.Max(1, float64(nl)-i)
	deg := airborneDegrees
	if surface {
		deg = surfaceDegrees
	}
	dlon := deg / denom

	m := math.Floor((float64(even.Lon)*(float64(nl)-1)-float64(odd.Lon)*float64(nl))/scale + 0.5)
	rlon := dlon * (mod(m, denom) + float64(enc.Lon)/scale)

	if surface {
		rlon = resolveSurfaceLongitude(rlon, dlon, haveRef, refLat, refLon, rlat)
	}

	return rlat, rlon, nil
}

func wrapLat(lat float64) float64 {
	if lat > 270 && lat <= 360 {
		return lat - 360
	}
	if lat >= -360 && lat < -270 {
		return lat + 360
	}
	return lat
}

// resolveSurfaceLongitude picks among the 4 candidate longitude offsets
// {0,90,180,270} by haversine distance to a reference point. Without a
// reference, the unshifted candidate is returned.
func resolveSurfaceLongitude(rlon, dlon float64, haveRef bool, refLat, refLon, rlat float64) float64 {
	if !haveRef {
		return rlon
	}
	best := rlon
	bestDist := math.Inf(1)
	for _, offset := range []float64{0, 90, 180, 270} {
		candidate := rlon + offset
		d := haversine(rlat, candidate, refLat, refLon)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	return best
}

// LocalDecode resolves a single encoded position against a reference
// point.
func LocalDecode(enc EncodedPosition, surface bool, refLat, refLon float64) (lat, lon float64) {
	i := 0.0
	if enc.Odd {
		i = 1.0
	}
	dl := dlat(surface, enc.Odd)

	j := math.Floor(refLat/dl) + math.Floor(0.5+mod(refLat, dl)/dl-float64(enc.Lat)/scale)
	rlat := dl * (j + float64(enc.Lat)/scale)

	nl := NL(rlat)
	deg := airborneDegrees
	if surface {
		deg = surfaceDegrees
	}
	denom := math.Max(1, float64(nl)-i)
	dlon := deg / denom

	m := math.Floor(refLon/dlon) + math.Floor(0.5+mod(refLon, dlon)/dlon-float64(enc.Lon)/scale)
	rlon := dlon * (m + float64(enc.Lon)/scale)

	return rlat, rlon
}

const earthRadiusMeters = 6371000.0

// haversine returns the great-circle distance in meters between two
// lat/lon points given in decimal degrees.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Haversine is the exported form used by lib/tracker/position's
// reasonableness tests.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2)
}
