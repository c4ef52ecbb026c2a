package mode_s

import "github.com/jetwatch/modes/lib/bits"

// VersionHint lets a caller (typically the session decoder, which tracks
// ADS-B version per aircraft) steer version-dependent decode of position
// and operational-status messages. Pure Decode defaults to version 0.
type VersionHint struct {
	Version        uint8
	NICSupplementA bool
	NICSupplementB bool
	NICSupplementC bool
}

// Decode maps a parsed Frame to its semantic Variant by DF, then type
// code and subtype. It is pure: no per-aircraft state is consulted
// beyond the optional VersionHint the caller supplies (the session
// decoder in lib/tracker/session is what actually tracks that state
// across frames).
func Decode(f *Frame, hint VersionHint) (Variant, error) {
	switch f.downlinkFormat {
	case 0:
		return decodeShortACAS(f), nil
	case 4:
		return decodeAltitudeReply(f), nil
	case 5:
		return decodeIdentifyReply(f), nil
	case 11:
		return decodeAllCallReply(f), nil
	case 16:
		return decodeLongACAS(f), nil
	case 17:
		return decodeExtendedSquitter(f, f.firstField, hint)
	case 18:
		return decodeDF18(f, hint)
	case 19:
		return decodeDF19(f, hint)
	case 20:
		return decodeCommBAltitudeReply(f)
	case 21:
		return decodeCommBIdentifyReply(f)
	default:
		if f.downlinkFormat >= 24 {
			return decodeCommD(f), nil
		}
		return nil, newUnspecifiedFormat("downlink format has no decoded variant")
	}
}

func decodeShortACAS(f *Frame) Variant {
	p := f.payload
	alt, ok := decodeAC13(bits.Field(p, 11, 13))
	return ShortACAS{
		base:                   base{icao24: f.icao24},
		VerticalStatusAirborne: p[0]&0x80 == 0,
		CrossLinkCapable:       p[0]&0x40 != 0,
		SensitivityLevel:       (p[0] >> 3) & 0x07,
		ReplyInformation:       p[0]&0x07<<1 | p[1]>>7,
		AltitudeFeet:           alt,
		AltitudeValid:          ok,
	}
}

func decodeAltitudeReply(f *Frame) Variant {
	p := f.payload
	alt, ok := decodeAC13(bits.Field(p, 11, 13))
	return AltitudeReply{
		base:            base{icao24: f.icao24},
		FlightStatus:    f.firstField,
		DownlinkRequest: p[0] >> 3,
		UtilityMessage:  p[0]&0x07<<4 | p[1]>>4,
		AltitudeFeet:    alt,
		AltitudeValid:   ok,
	}
}

func decodeIdentifyReply(f *Frame) Variant {
	p := f.payload
	id := bits.Field(p, 11, 13)
	return IdentifyReply{
		base:            base{icao24: f.icao24},
		FlightStatus:    f.firstField,
		DownlinkRequest: p[0] >> 3,
		UtilityMessage:  p[0]&0x07<<4 | p[1]>>4,
		Squawk:          decodeSquawk(id),
	}
}

func decodeAllCallReply(f *Frame) Variant {
	return AllCallReply{base: base{icao24: f.icao24}, Capability: f.firstField}
}

func decodeLongACAS(f *Frame) Variant {
	p := f.payload
	alt, ok := decodeAC13(bits.Field(p, 11, 13))
	v := LongACAS{
		base:                   base{icao24: f.icao24},
		VerticalStatusAirborne: p[0]&0x80 == 0,
		CrossLinkCapable:       p[0]&0x40 != 0,
		SensitivityLevel:       (p[0] >> 3) & 0x07,
		ReplyInformation:       p[0]&0x07<<1 | p[1]>>7,
		AltitudeFeet:           alt,
		AltitudeValid:          ok,
		// Decoders in the wild disagree on whether payload[3]==0x30 means a
		// RAC record is present. We treat ==0x30 as "no RAC record",
		// matching DO-260B §3.1.2.8.3's MTE=0 "no maneuver" encoding, and
		// keep the raw bits in MV for callers that want them regardless.
		ValidRAC: p[3] != 0x30,
	}
	copy(v.MV[:], p[3:10])
	return v
}

func decodeCommBAltitudeReply(f *Frame) (Variant, error) {
	p := f.payload
	alt, ok := decodeAC13(bits.Field(p, 11, 13))
	v := CommBAltitudeReply{
		base:          base{icao24: f.icao24},
		FlightStatus:  f.firstField,
		AltitudeFeet:  alt,
		AltitudeValid: ok,
	}
	copy(v.MB[:], p[3:10])
	return v, nil
}

func decodeCommBIdentifyReply(f *Frame) (Variant, error) {
	p := f.payload
	id := bits.Field(p, 11, 13)
	v := CommBIdentifyReply{
		base:         base{icao24: f.icao24},
		FlightStatus: f.firstField,
		Squawk:       decodeSquawk(id),
	}
	copy(v.MB[:], p[3:10])
	return v, nil
}

func decodeCommD(f *Frame) Variant {
	v := CommDExtendedLengthMsg{
		base: base{icao24: f.icao24},
		KE:   f.payload[0] >> 4,
		ND:   f.payload[0] & 0x0f,
	}
	copy(v.MD[:], f.payload)
	return v
}

// decodeExtendedSquitter handles DF17 and the DF18/DF19 ADS-B body cases
// that share the TC dispatch table.
func decodeExtendedSquitter(f *Frame, firstField uint8, hint VersionHint) (Variant, error) {
	me := f.payload[3:10]
	tc := me[0] >> 3

	switch {
	case tc >= 1 && tc <= 4:
		return Identification{
			base:            base{icao24: f.icao24},
			TypeCode:        tc,
			EmitterCategory: me[0] & 0x07,
			Callsign:        decodeCallsign(me),
		}, nil
	case tc >= 5 && tc <= 8:
		return decodeSurfacePosition(f.icao24, me, tc, hint), nil
	case (tc >= 9 && tc <= 18) || (tc >= 20 && tc <= 22):
		return decodeAirbornePosition(f.icao24, me, tc, hint), nil
	case tc == 19:
		return decodeVelocity(f.icao24, me)
	case tc == 28:
		return decodeStatusMessage(f.icao24, me)
	case tc == 29:
		return decodeTargetStateAndStatus(f.icao24, me)
	case tc == 31:
		return decodeOperationalStatus(f.icao24, me)
	default:
		return OpaquePassthrough{base: base{icao24: f.icao24}, Reason: "unassigned type code", Payload: append([]byte(nil), me...)}, nil
	}
}

// decodeDF18 dispatches on the CF field: CF<2 is an ADS-B body sharing
// DF17's TC dispatch; CF=6 is
// ADS-R; CF in {0..3,5} (already covered) and CF=4 are TIS-B variants
// passed through opaque.
func decodeDF18(f *Frame, hint VersionHint) (Variant, error) {
	cf := f.firstField
	switch {
	case cf < 2:
		return decodeExtendedSquitter(f, cf, hint)
	case cf == 4:
		return OpaquePassthrough{base: base{icao24: f.icao24}, Reason: "TIS-B/ADS-R management", Payload: append([]byte(nil), f.payload...)}, nil
	case cf == 6:
		return OpaquePassthrough{base: base{icao24: f.icao24}, Reason: "ADS-R", Payload: append([]byte(nil), f.payload...)}, nil
	default:
		return OpaquePassthrough{base: base{icao24: f.icao24}, Reason: "TIS-B", Payload: append([]byte(nil), f.payload...)}, nil
	}
}

// decodeDF19 implements the AF-keyed military extended squitter case.
func decodeDF19(f *Frame, hint VersionHint) (Variant, error) {
	af := f.firstField
	if af == 0 {
		return decodeExtendedSquitter(f, af, hint)
	}
	return MilitaryExtendedSquitter{
		base:             base{icao24: f.icao24},
		ApplicationField: af,
		Payload:          append([]byte(nil), f.payload...),
	}, nil
}

func decodeSquawk(id13 uint32) uint16 {
	c1 := (id13 >> 12) & 1
	a1 := (id13 >> 11) & 1
	c2 := (id13 >> 10) & 1
	a2 := (id13 >> 9) & 1
	c4 := (id13 >> 8) & 1
	a4 := (id13 >> 7) & 1
	b1 := (id13 >> 5) & 1
	d1 := (id13 >> 4) & 1
	b2 := (id13 >> 3) & 1
	d2 := (id13 >> 2) & 1
	b4 := (id13 >> 1) & 1
	d4 := id13 & 1

	a := a4<<2 | a2<<1 | a1
	b := b4<<2 | b2<<1 | b1
	c := c4<<2 | c2<<1 | c1
	d := d4<<2 | d2<<1 | d1
	return uint16(a*1000 + b*100 + c*10 + d)
}
