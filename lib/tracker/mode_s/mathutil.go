package mode_s

import "math"

func hypot(a, b float64) float64 {
	return math.Hypot(a, b)
}

// atan2Deg returns the compass bearing (0=north, clockwise) for a
// north/east velocity pair, used by decodeVelocityOverGround.
func atan2Deg(east, north float64) float64 {
	return math.Atan2(east, north) * 180 / math.Pi
}
