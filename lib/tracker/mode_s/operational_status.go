package mode_s

// nicEntry is one row of the TC/version/NIC-supplement -> (NIC, HPL)
// lookup table. hplMeters is -1 for "not applicable".
type nicEntry struct {
	nic       uint8
	hplMeters float64
}

// airbornePositionNIC returns the navigation integrity category and
// horizontal protection limit for a given position type code, under the
// aircraft's current (version, NIC supplement A, NIC supplement B).
// Unlisted type codes return NIC=0, HPL=-1.
func airbornePositionNIC(tc uint8, version uint8, suppA, suppB bool) nicEntry {
	switch tc {
	case 9:
		return nicEntry{11, 7.5}
	case 10:
		return nicEntry{10, 25}
	case 11:
		if suppA && suppB {
			if version == 2 {
				return nicEntry{9, 75}
			}
			return nicEntry{9, 185.2}
		}
		if !suppA && version == 1 {
			return nicEntry{9, 185.2}
		}
		return nicEntry{8, 555.6}
	case 12:
		return nicEntry{7, 1111.2}
	case 13:
		return nicEntry{6, 1852}
	case 14:
		return nicEntry{5, 3704}
	case 15:
		return nicEntry{4, 7408}
	case 16:
		if suppA {
			return nicEntry{3, 14816}
		}
		return nicEntry{2, 18520}
	case 17:
		return nicEntry{1, 37040}
	case 18:
		return nicEntry{0, -1}
	case 20, 21, 22:
		return nicEntry{0, -1}
	default:
		return nicEntry{0, -1}
	}
}

// Capability class bits, airborne operational status (subtype 0). Bit
// positions are those of the 16-bit CC field in ME[1:3].
const (
	ccTCASOperational uint16 = 1 << 13
	cc1090ESIn        uint16 = 1 << 9
	ccARV             uint16 = 1 << 7
	ccTargetStateRpt  uint16 = 1 << 6
	ccTargetChangeRpt uint16 = 1 << 5
	ccUATIn           uint16 = 1 << 0
)

// Operational mode bits, shared by airborne and surface subtypes.
const (
	omTCASRAActive    uint16 = 1 << 13
	omIdentSwitch     uint16 = 1 << 12
	omSingleAntenna   uint16 = 1 << 11
	omSystemDesignAssurance uint16 = 0x0c00
)

// gvaMeters maps the 2-bit geometric vertical accuracy code to meters, or
// -1 when not available.
func gvaMeters(code uint8) float64 {
	switch code {
	case 0:
		return -1
	case 1:
		return 150
	case 2:
		return 45
	default:
		return -1
	}
}

// decodeOperationalStatus parses a TC 31 ME field into an OperationalStatus
// variant. subtype 0 is airborne, 1 is surface; subtype >= 2 is
// reserved and reported as UnspecifiedFormat.
func decodeOperationalStatus(icao [3]byte, me []byte) (Variant, error) {
	subtype := me[0] & 0x07
	version := (me[5] >> 5) & 0x07

	os := OperationalStatus{
		base:    base{icao24: icao},
		Version: version,
	}

	switch subtype {
	case 0:
		os.Surface = false
		os.CapabilityClass = uint16(me[1])<<8 | uint16(me[2])
		os.OperationalMode = uint16(me[3])<<8 | uint16(me[4])
		os.NICSupplementA = me[5]&0x10 != 0
		os.NACp = me[5] & 0x0f
		os.GeometricVerticalAccuracyMeters = gvaMeters((me[6] >> 6) & 0x03)
		os.SIL = (me[6] >> 4) & 0x03
		os.BarometricAltitudeIntegrity = me[6]&0x08 != 0
		os.HorizontalReferenceIsTrue = me[6]&0x04 != 0
		os.SILSupplement = (me[6] >> 1) & 0x01
	case 1:
		os.Surface = true
		dims := me[1] & 0x0f
		os.LengthMeters, os.WidthMeters = surfaceDimensions(dims)
		os.GPSAntennaOffsetValid = true
		os.NACv = (me[3] >> 1) & 0x07
		os.NICSupplementC = me[5]&0x01 != 0
		os.SIL = (me[6] >> 4) & 0x03
		os.HorizontalReferenceIsTrue = me[6]&0x04 != 0
	default:
		return nil, newUnspecifiedFormat("operational status subtype >= 2")
	}
	return os, nil
}

// surfaceDimensions decodes the 4-bit length/width code of surface
// operational status into meters, per the DO-260B Table 2-62 encoding.
func surfaceDimensions(code uint8) (length, width float64) {
	table := [16][2]float64{
		{0, 0}, {15, 23}, {25, 28.5}, {25, 34}, {35, 33}, {35, 38}, {45, 39.5}, {45, 45},
		{55, 45}, {55, 52}, {65, 59.5}, {65, 67}, {75, 72.5}, {85, 80}, {95, 80}, {105, 90},
	}
	return table[code][0], table[code][1]
}
