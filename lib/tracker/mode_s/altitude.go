package mode_s

import "github.com/jetwatch/modes/lib/bits"

// decodeAC13 decodes a 13-bit altitude field (AC13, as found in the
// short/long ACAS replies and the Comm-B altitude reply): the Q-bit
// selects between 25-ft binary steps and Gillham/Gray 100-ft steps.
func decodeAC13(field uint32) (feet int32, ok bool) {
	q := field & 0x10
	if q != 0 {
		n := ((field & 0x1f80) >> 2) | ((field & 0x0020) >> 1) | (field & 0x000f)
		return int32(n)*25 - 1000, true
	}
	return bits.GillhamAltitude(int32(field))
}

// decodeAC12 decodes the 12-bit altitude field of an AirbornePosition ME
// field: identical Q-bit scheme as AC13 but one bit narrower (no M-bit
// slot).
func decodeAC12(field uint32) (feet int32, ok bool) {
	q := field & 0x10
	if q != 0 {
		n := ((field & 0x0fe0) >> 1) | (field & 0x000f)
		return int32(n)*25 - 1000, true
	}
	// Re-widen into the AC13 bit positions (insert the always-zero M bit)
	// so the shared Gillham path can be reused unchanged.
	ac13 := ((field & 0x0fc0) << 1) | (field & 0x003f)
	return bits.GillhamAltitude(int32(ac13))
}

// movementBucket is one leg of the piecewise-linear surface ground-speed
// mapping: code -> (knots at the low end of the bucket, resolution within
// the bucket).
type movementBucket struct {
	loCode, hiCode int
	base           float64
	resolution     float64
}

var movementTable = []movementBucket{
	{1, 1, 0, 0},
	{2, 8, 0.125, 0.125},
	{9, 12, 1, 0.25},
	{13, 38, 2, 0.5},
	{39, 93, 15, 1},
	{94, 108, 70, 2},
	{109, 123, 100, 5},
	{124, 124, 175, 0},
}

// decodeMovement converts a 7-bit surface movement code into ground speed
// in knots. code 0 means "no information"; code 124 means ">= 175 kn".
func decodeMovement(code uint8) (knots float64, ok bool) {
	if code == 0 || code > 124 {
		return 0, false
	}
	for _, b := range movementTable {
		if int(code) >= b.loCode && int(code) <= b.hiCode {
			if b.resolution == 0 {
				return b.base, true
			}
			steps := float64(int(code) - b.loCode)
			return b.base + steps*b.resolution, true
		}
	}
	return 0, false
}

// decodeSurfaceHeading converts the 7-bit ground track field into degrees.
func decodeSurfaceHeading(field uint8) float64 {
	return float64(field) * 360.0 / 128.0
}
