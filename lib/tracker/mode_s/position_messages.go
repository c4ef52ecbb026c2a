package mode_s

// decodeAirbornePosition parses TC 9-18,20-22 ME fields. The
// CPR-encoded lat/lon are left as raw 17-bit integers for
// lib/tracker/cpr to resolve; this layer only extracts fields and
// altitude.
func decodeAirbornePosition(icao [3]byte, me []byte, tc uint8, hint VersionHint) Variant {
	ss := (me[0] >> 1) & 0x03
	nicB := me[0]&0x01 != 0
	altField := field48(me, 8, 12)
	alt, ok := decodeAC12(altField)
	timeSync := field48(me, 20, 1) != 0
	oddFormat := field48(me, 21, 1) != 0
	lat := field48(me, 22, 17)
	lon := field48(me, 39, 17)

	nic := airbornePositionNIC(tc, hint.Version, hint.NICSupplementA, nicB)

	return AirbornePosition{
		base:               base{icao24: icao},
		Version:            hint.Version,
		TypeCode:           tc,
		SurveillanceStatus: ss,
		NICSupplementB:     nicB,
		NIC:                nic.nic,
		HPLMeters:          nic.hplMeters,
		AltitudeFeet:       alt,
		AltitudeValid:      ok,
		TimeSync:           timeSync,
		OddFormat:          oddFormat,
		EncodedLat:         lat,
		EncodedLon:         lon,
	}
}

// decodeSurfacePosition parses TC 5-8 ME fields.
func decodeSurfacePosition(icao [3]byte, me []byte, tc uint8, hint VersionHint) Variant {
	movement := uint8(field48(me, 5, 7))
	speed, speedOK := decodeMovement(movement)
	headingStatus := field48(me, 12, 1) != 0
	heading := decodeSurfaceHeading(uint8(field48(me, 13, 7)))
	timeSync := field48(me, 20, 1) != 0
	oddFormat := field48(me, 21, 1) != 0
	lat := field48(me, 22, 17)
	lon := field48(me, 39, 17)

	return SurfacePosition{
		base:             base{icao24: icao},
		Version:          hint.Version,
		TypeCode:         tc,
		MovementCode:     movement,
		NICSupplementC:   hint.NICSupplementC,
		GroundSpeedKnots: speed,
		GroundSpeedValid: speedOK,
		HeadingValid:     headingStatus,
		HeadingDegrees:   heading,
		OddFormat:        oddFormat,
		TimeSync:         timeSync,
		EncodedLat:       lat,
		EncodedLon:       lon,
	}
}

// decodeVelocity parses TC 19, dispatching on subtype to either
// VelocityOverGround (1/2) or AirspeedHeading (3/4).
func decodeVelocity(icao [3]byte, me []byte) (Variant, error) {
	subtype := me[0] & 0x07
	switch subtype {
	case 1, 2:
		return decodeVelocityOverGround(icao, me, subtype), nil
	case 3, 4:
		return decodeAirspeedHeading(icao, me, subtype), nil
	default:
		return nil, newUnspecifiedFormat("velocity subtype not in [1,4]")
	}
}

func decodeVelocityOverGround(icao [3]byte, me []byte, subtype uint8) Variant {
	ewSign := field48(me, 13, 1)
	ewVel := int32(field48(me, 14, 10))
	nsSign := field48(me, 24, 1)
	nsVel := int32(field48(me, 25, 10))

	v := VelocityOverGround{
		base:          base{icao24: icao},
		Subtype:       subtype,
		Supersonic:    subtype == 2,
		EastVelocity:  ewVel - 1,
		EastIsWest:    ewSign != 0,
		NorthVelocity: nsVel - 1,
		NorthIsSouth:  nsSign != 0,
	}
	mul := 1.0
	if subtype == 2 {
		mul = 4.0
	}
	ew := float64(v.EastVelocity) * mul
	ns := float64(v.NorthVelocity) * mul
	if v.EastVelocity >= 0 && v.NorthVelocity >= 0 {
		v.SpeedKnots, v.HeadingDegrees, v.HeadingValid = velocityVector(ew, ns, v.EastIsWest, v.NorthIsSouth)
	}
	applyVerticalRateAndGeoBaro(&v.VerticalRateFpm, &v.VerticalRateValid, &v.VerticalRateSource, &v.GeoMinusBaro, &v.GeoMinusBaroValid, me)
	return v
}

func velocityVector(ew, ns float64, ewIsWest, nsIsSouth bool) (speedKnots, headingDeg float64, ok bool) {
	speedKnots = hypot(ew, ns)
	if speedKnots == 0 {
		return 0, 0, false
	}
	heading := atan2Deg(signed(ew, ewIsWest), signed(ns, nsIsSouth))
	if heading < 0 {
		heading += 360
	}
	return speedKnots, heading, true
}

func signed(v float64, negative bool) float64 {
	if negative {
		return -v
	}
	return v
}

func decodeAirspeedHeading(icao [3]byte, me []byte, subtype uint8) Variant {
	headingStatus := field48(me, 13, 1) != 0
	headingField := field48(me, 14, 10)
	asType := "IAS"
	if me[3]&0x80 != 0 { // ME bit 25 (1-based), airspeed type bit
		asType = "TAS"
	}
	asField := field48(me, 25, 10)

	v := AirspeedHeading{
		base:           base{icao24: icao},
		Subtype:        subtype,
		Supersonic:     subtype == 4,
		HeadingValid:   headingStatus,
		HeadingDegrees: float64(headingField) * 360.0 / 1024.0,
		AirspeedType:   asType,
	}
	if asField > 0 {
		mul := 1.0
		if subtype == 4 {
			mul = 4.0
		}
		v.AirspeedKnots = float64(asField-1) * mul
		v.AirspeedValid = true
	}
	applyVerticalRateAndGeoBaro(&v.VerticalRateFpm, &v.VerticalRateValid, nil, &v.GeoMinusBaro, &v.GeoMinusBaroValid, me)
	return v
}

// applyVerticalRateAndGeoBaro extracts the vertical-rate (source, sign,
// 9-bit magnitude) and geo-minus-baro (sign, 7-bit magnitude) fields
// shared by both TC19 subtype groups.
func applyVerticalRateAndGeoBaro(rateFpm *int32, rateValid *bool, rateSource *string, geoBaro *int32, geoBaroValid *bool, me []byte) {
	source := field48(me, 35, 1)
	sign := field48(me, 36, 1)
	raw := field48(me, 37, 9)
	if raw > 0 {
		v := int32(raw-1) * 64
		if sign != 0 {
			v = -v
		}
		*rateFpm = v
		*rateValid = true
		if rateSource != nil {
			if source != 0 {
				*rateSource = "geometric"
			} else {
				*rateSource = "barometric"
			}
		}
	}
	gbSign := field48(me, 48, 1)
	gbRaw := field48(me, 49, 7)
	if gbRaw > 0 {
		v := int32(gbRaw-1) * 25
		if gbSign != 0 {
			v = -v
		}
		*geoBaro = v
		*geoBaroValid = true
	}
}

// decodeStatusMessage parses TC 28 ME fields, subtype 1 (emergency or
// priority status) or 2 (TCAS RA).
func decodeStatusMessage(icao [3]byte, me []byte) (Variant, error) {
	subtype := me[0] & 0x07
	switch subtype {
	case 1:
		emergency := uint8(field48(me, 5, 3))
		id13 := field48(me, 8, 13)
		return EmergencyOrPriorityStatus{
			base:           base{icao24: icao},
			EmergencyState: emergency,
			Squawk:         decodeSquawk(id13),
		}, nil
	case 2:
		v := TCASResolutionAdvisory{
			base:            base{icao24: icao},
			ActiveRA:        uint16(field48(me, 5, 14)),
			RATerminated:    uint8(field48(me, 19, 4)),
			MultipleThreats: field48(me, 23, 1) != 0,
			ThreatType:      uint8(field48(me, 24, 2)),
		}
		if v.ThreatType == 1 {
			addr := field48(me, 26, 26)
			v.ThreatICAO = [3]byte{byte(addr >> 16), byte(addr >> 8), byte(addr)}
		}
		return v, nil
	default:
		return nil, newUnspecifiedFormat("status message subtype not in [1,2]")
	}
}

// decodeTargetStateAndStatus parses TC 29 subtype 1 (target state and
// status, the MCP/FCU selections). The subtype field here is the 2-bit
// one; reserved bits must be zero or the message is BadFormat. An
// all-zero altitude or pressure field means "not available".
func decodeTargetStateAndStatus(icao [3]byte, me []byte) (Variant, error) {
	subtype := (me[0] & 0x06) >> 1
	if subtype != 1 {
		return nil, newUnspecifiedFormat("target state and status subtype != 1")
	}
	if field48(me, 50, 1) != 0 || field48(me, 54, 2) != 0 {
		return nil, newBadFormat("target state and status reserved bits set", me)
	}

	v := TargetStateAndStatus{base: base{icao24: icao}}

	v.SelectedAltitudeIsFMS = field48(me, 8, 1) != 0
	altField := field48(me, 9, 11)
	if altField != 0 {
		v.SelectedAltitudeFeet = int32(altField-1) * 32
		v.SelectedAltitudeValid = true
	}

	baroField := field48(me, 20, 9)
	if baroField != 0 {
		v.BarometricMbar = 800 + float64(baroField-1)*0.8
		v.BarometricValid = true
	}

	headingStatus := field48(me, 29, 1)
	headingSign := field48(me, 30, 1)
	headingField := field48(me, 31, 8)
	if headingStatus != 0 {
		deg := float64(headingField) * 0.703125
		if headingSign != 0 {
			deg += 180
		}
		v.SelectedHeadingDegrees = deg
		v.SelectedHeadingValid = true
	}

	v.Mode.Autopilot = field48(me, 47, 1) != 0
	v.Mode.VNAV = field48(me, 48, 1) != 0
	v.Mode.AltitudeHold = field48(me, 49, 1) != 0
	v.Mode.ApproachMode = field48(me, 51, 1) != 0
	v.Mode.TCASOperational = field48(me, 52, 1) != 0
	v.Mode.LNAV = field48(me, 53, 1) != 0

	return v, nil
}
