// Package report defines the flattened, sink-friendly view of a decoded
// message: what the bus publishes, the stores persist and the live
// websocket feed streams. Decoder variants stay strongly typed inside
// lib/tracker; a Report is the lossy projection the outside world sees.
package report

import (
	"fmt"
	"math"

	"github.com/jetwatch/modes/lib/tracker/bds"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
	"github.com/jetwatch/modes/lib/tracker/position"
)

// Report is one decoded frame flattened for transport and storage.
// Pointer fields are nil when the underlying message does not carry the
// value.
type Report struct {
	Icao     string `json:"icao"`
	Tag      string `json:"tag,omitempty"`
	Type     string `json:"type"`
	TimeMs   int64  `json:"time_ms"`
	RawFrame string `json:"raw"`

	Callsign *string  `json:"callsign,omitempty"`
	Squawk   *uint16  `json:"squawk,omitempty"`
	AltFeet  *int32   `json:"alt_ft,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	SpeedKts *float64 `json:"speed_kts,omitempty"`
	Heading  *float64 `json:"heading,omitempty"`
	VertRate *int32   `json:"vert_rate_fpm,omitempty"`
	OnGround bool     `json:"on_ground,omitempty"`
	BDS      *string  `json:"bds,omitempty"`

	SignalLevel byte `json:"signal,omitempty"`
}

// IcaoString renders a 3-byte transponder address the way every sink
// wants it: six upper-case hex digits.
func IcaoString(icao [3]byte) string {
	return fmt.Sprintf("%02X%02X%02X", icao[0], icao[1], icao[2])
}

// FromVariant projects a decoded variant onto a Report. pos may be nil;
// when present its lat/lon/alt override whatever the variant itself
// carries.
func FromVariant(v mode_s.Variant, f *mode_s.Frame, tag string, timeMs int64, signal byte, pos *position.Position) Report {
	r := Report{
		Icao:        IcaoString(v.ICAO24()),
		Tag:         tag,
		Type:        v.TypeName(),
		TimeMs:      timeMs,
		RawFrame:    f.HexMessage(),
		SignalLevel: signal,
	}

	switch m := v.(type) {
	case mode_s.Identification:
		cs := m.Callsign
		r.Callsign = &cs
	case mode_s.AirbornePosition:
		if m.AltitudeValid {
			alt := m.AltitudeFeet
			r.AltFeet = &alt
		}
	case mode_s.SurfacePosition:
		r.OnGround = true
		if m.GroundSpeedValid {
			spd := m.GroundSpeedKnots
			r.SpeedKts = &spd
		}
		if m.HeadingValid {
			hdg := m.HeadingDegrees
			r.Heading = &hdg
		}
	case mode_s.VelocityOverGround:
		if m.HeadingValid {
			spd, hdg := m.SpeedKnots, m.HeadingDegrees
			r.SpeedKts = &spd
			r.Heading = &hdg
		}
		if m.VerticalRateValid {
			vr := m.VerticalRateFpm
			r.VertRate = &vr
		}
	case mode_s.AirspeedHeading:
		if m.AirspeedValid {
			spd := m.AirspeedKnots
			r.SpeedKts = &spd
		}
		if m.HeadingValid {
			hdg := m.HeadingDegrees
			r.Heading = &hdg
		}
		if m.VerticalRateValid {
			vr := m.VerticalRateFpm
			r.VertRate = &vr
		}
	case mode_s.IdentifyReply:
		sq := m.Squawk
		r.Squawk = &sq
	case mode_s.EmergencyOrPriorityStatus:
		sq := m.Squawk
		r.Squawk = &sq
	case mode_s.AltitudeReply:
		if m.AltitudeValid {
			alt := m.AltitudeFeet
			r.AltFeet = &alt
		}
	case mode_s.ShortACAS:
		if m.AltitudeValid {
			alt := m.AltitudeFeet
			r.AltFeet = &alt
		}
	case mode_s.LongACAS:
		if m.AltitudeValid {
			alt := m.AltitudeFeet
			r.AltFeet = &alt
		}
	case mode_s.CommBAltitudeReply:
		if m.AltitudeValid {
			alt := m.AltitudeFeet
			r.AltFeet = &alt
		}
		var altRef *int32
		if m.AltitudeValid {
			altRef = &m.AltitudeFeet
		}
		applyCommB(&r, m.MB, altRef)
	case mode_s.CommBIdentifyReply:
		sq := m.Squawk
		r.Squawk = &sq
		applyCommB(&r, m.MB, nil)
	}

	if pos != nil {
		r.Lat = pos.Lat
		r.Lon = pos.Lon
		if pos.AltMeters != nil {
			alt := int32(math.Round(*pos.AltMeters / 0.3048))
			r.AltFeet = &alt
		}
	}

	return r
}

// applyCommB runs BDS register identification over a Comm-B payload and,
// when the winner is an identification register, lifts the callsign onto
// the report.
func applyCommB(r *Report, mb [7]byte, reportedAltitudeFeet *int32) {
	reg, _, ok := bds.Identify(mb, reportedAltitudeFeet)
	if !ok {
		return
	}
	s := string(reg)
	r.BDS = &s
	if reg == bds.BDS20 || reg == bds.BDS08 {
		if cs, ok := bds.Callsign(mb); ok {
			r.Callsign = &cs
		}
	}
}
