// Package position implements the stateful CPR position decoder:
// per-aircraft even/odd caches, global/local CPR attempts and the
// reasonableness-testing pipeline that flags transponder malfunctions,
// straddle errors and impossible speeds.
package position

import (
	"fmt"
	"math"

	"github.com/jetwatch/modes/lib/tracker/cpr"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

// Position is a WGS-84 point with a reasonableness flag.
// Lat/Lon/AltMeters are pointers so "unknown" can be represented as nil
// rather than a sentinel value.
type Position struct {
	Lon        *float64
	Lat        *float64
	AltMeters  *float64
	Reasonable bool
}

// Input is one position-bearing ADS-B message as the decoder needs it.
type Input struct {
	Surface          bool
	Odd              bool
	EncodedLat       uint32
	EncodedLon       uint32
	GroundSpeedKnots float64
	HasGroundSpeed   bool
	AltitudeFeet     int32
	AltitudeValid    bool
	Time             float64 // seconds
}

// Receiver is the optional surveillance station position used by the
// receiver-distance sanity check.
type Receiver struct {
	Lat, Lon float64
	Known    bool
}

type slot struct {
	enc  cpr.EncodedPosition
	have bool
}

// Decoder holds the CPR + reasonableness state for a single aircraft.
// Not safe for concurrent use; the owning session decoder calls Decode
// after releasing its registry lock, so it does not serialize access.
type Decoder struct {
	evenAirborne, oddAirborne slot
	evenSurface, oddSurface   slot

	lastLat, lastLon float64
	haveLast         bool
	lastTime         float64

	numReasonable uint32
}

// New returns a fresh, empty per-aircraft position decoder.
func New() *Decoder {
	return &Decoder{}
}

const (
	airborneGlobalWindow    = 10.0
	surfaceGlobalWindow     = 25.0
	surfaceGlobalWindowSlow = 50.0
	airborneLocalWindow     = 640.0
	surfaceLocalWindow      = 1620.0

	suppressUntilReasonable = 3
	jitterMaxSeconds        = 0.7
	jitterMaxMeters         = 2000.0

	crossCheckMaxMeters   = 10.0
	receiverRangeMeters   = 700000.0
	airborneSpeedMaxKnots = 1000.0
	surfaceSpeedMaxKnots  = 100.0

	metersPerFoot = 0.3048
	knotsToMps    = 1852.0 / 3600.0
)

// Decode resolves one position message against the aircraft's state and
// returns the position, or nil if the message carries no usable position,
// the result is suppressed pending a run of reasonable outcomes, or both
// CPR attempts failed. Out-of-order timestamps are tolerated; the owning
// session decoder warns about them.
func (d *Decoder) Decode(in Input, recv Receiver) (*Position, error) {
	enc := cpr.EncodedPosition{Lat: in.EncodedLat, Lon: in.EncodedLon, Odd: in.Odd, Time: in.Time}

	canLocal := d.haveLast && math.Abs(in.Time-d.lastTime) < localWindow(in.Surface)

	var globalLat, globalLon float64
	haveGlobal := false
	var straddle error
	other := d.otherSlot(in)
	if other.have && math.Abs(in.Time-other.enc.Time) < globalWindow(in.Surface, in.HasGroundSpeed, in.GroundSpeedKnots) {
		var even, odd cpr.EncodedPosition
		if in.Odd {
			odd, even = enc, other.enc
		} else {
			even, odd = enc, other.enc
		}
		lat, lon, err := cpr.GlobalDecode(even, odd, in.Surface, d.haveLast, d.lastLat, d.lastLon)
		if err == nil {
			globalLat, globalLon = lat, lon
			haveGlobal = true
		} else if se, ok := err.(*cpr.StraddleError); ok {
			straddle = mode_s.NewPositionStraddle(se.Reason)
		}
		// On any error the global path stays disabled for this call.
	}

	var localLat, localLon float64
	haveLocal := false
	if canLocal {
		localLat, localLon = cpr.LocalDecode(enc, in.Surface, d.lastLat, d.lastLon)
		haveLocal = true
	}

	if !haveGlobal && !haveLocal {
		// Caches still update so a later pair can resolve; a straddled
		// pair with no local fallback reports the recoverable error.
		d.storeSlot(in)
		return nil, straddle
	}

	resultLat, resultLon := globalLat, globalLon
	if !haveGlobal {
		resultLat, resultLon = localLat, localLon
	}

	reasonable := d.checkReasonable(in, recv, other, haveGlobal, haveLocal,
		globalLat, globalLon, localLat, localLon, resultLat, resultLon)

	pos := &Position{Lat: f64ptr(resultLat), Lon: f64ptr(resultLon), Reasonable: reasonable}
	if in.AltitudeValid {
		pos.AltMeters = f64ptr(float64(in.AltitudeFeet) * metersPerFoot)
	}

	d.storeSlot(in)
	d.lastLat, d.lastLon = resultLat, resultLon
	d.haveLast = true
	d.lastTime = in.Time

	if !reasonable {
		d.numReasonable = 0
		return nil, nil
	}
	d.numReasonable++
	if d.numReasonable < suppressUntilReasonable {
		return nil, nil
	}
	return pos, nil
}

func localWindow(surface bool) float64 {
	if surface {
		return surfaceLocalWindow
	}
	return airborneLocalWindow
}

func globalWindow(surface, haveSpeed bool, speedKnots float64) float64 {
	if !surface {
		return airborneGlobalWindow
	}
	if haveSpeed && speedKnots <= 25 {
		return surfaceGlobalWindowSlow
	}
	return surfaceGlobalWindow
}

func (d *Decoder) otherSlot(in Input) slot {
	if in.Surface {
		if in.Odd {
			return d.evenSurface
		}
		return d.oddSurface
	}
	if in.Odd {
		return d.evenAirborne
	}
	return d.oddAirborne
}

func (d *Decoder) storeSlot(in Input) {
	s := slot{enc: cpr.EncodedPosition{Lat: in.EncodedLat, Lon: in.EncodedLon, Odd: in.Odd, Time: in.Time}, have: true}
	switch {
	case in.Surface && in.Odd:
		d.oddSurface = s
	case in.Surface && !in.Odd:
		d.evenSurface = s
	case !in.Surface && in.Odd:
		d.oddAirborne = s
	default:
		d.evenAirborne = s
	}
}

// checkReasonable is the gate that flags malfunctioning or spoofed
// transponders before their positions reach callers.
func (d *Decoder) checkReasonable(in Input, recv Receiver, other slot, haveGlobal, haveLocal bool, globalLat, globalLon, localLat, localLon, resultLat, resultLon float64) bool {
	if math.Abs(resultLon) > 180 || math.Abs(resultLat) > 90 {
		return false
	}

	if haveGlobal && haveLocal {
		if cpr.Haversine(globalLat, globalLon, localLat, localLon) > crossCheckMaxMeters {
			return false
		}
	}

	if haveGlobal {
		// Cross-check: re-decode this frame locally against the global
		// solution (must land back on it), then re-decode the other-parity
		// frame the same way and make sure the implied speed between the
		// pair stays plausible.
		enc := cpr.EncodedPosition{Lat: in.EncodedLat, Lon: in.EncodedLon, Odd: in.Odd, Time: in.Time}
		selfLat, selfLon := cpr.LocalDecode(enc, in.Surface, globalLat, globalLon)
		if cpr.Haversine(selfLat, selfLon, globalLat, globalLon) > crossCheckMaxMeters {
			return false
		}
		if other.have {
			oLat, oLon := cpr.LocalDecode(other.enc, in.Surface, globalLat, globalLon)
			if !speedPlausible(in.Surface, in.Time-other.enc.Time,
				cpr.Haversine(oLat, oLon, globalLat, globalLon)) {
				return false
			}
		}
	}

	if d.haveLast {
		dist := cpr.Haversine(resultLat, resultLon, d.lastLat, d.lastLon)
		if !speedPlausible(in.Surface, in.Time-d.lastTime, dist) {
			return false
		}
	}

	if recv.Known {
		if cpr.Haversine(recv.Lat, recv.Lon, resultLat, resultLon) > receiverRangeMeters {
			return false
		}
	}

	return true
}

// speedPlausible checks a traveled distance against the airborne/surface
// speed bound, with a small tolerance for receiver timestamp jitter on
// near-simultaneous frames.
func speedPlausible(surface bool, dt, distMeters float64) bool {
	threshold := airborneSpeedMaxKnots
	if surface {
		threshold = surfaceSpeedMaxKnots
	}
	maxDist := threshold * knotsToMps * math.Abs(dt)
	if distMeters <= maxDist {
		return true
	}
	return math.Abs(dt) < jitterMaxSeconds && distMeters < jitterMaxMeters
}

func f64ptr(v float64) *float64 { return &v }

// String implements fmt.Stringer for debug logging.
func (p Position) String() string {
	lat, lon := "?", "?"
	if p.Lat != nil {
		lat = fmt.Sprintf("%.5f", *p.Lat)
	}
	if p.Lon != nil {
		lon = fmt.Sprintf("%.5f", *p.Lon)
	}
	return fmt.Sprintf("(%s,%s reasonable=%v)", lat, lon, p.Reasonable)
}
