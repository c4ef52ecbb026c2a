// Package bds identifies the Comm-B Data Selector register carried in a
// 7-byte Comm-B payload (DF20/21's MB field). A DF20/21 reply does not
// say which register it carries, so identification tries every known
// register, eliminates the ones whose reserved bits are set, and keeps
// the best-scoring survivor.
package bds

// Register identifies a Comm-B register by its BDS code, e.g. "0,5".
type Register string

const (
	BDS05 Register = "0,5" // extended squitter airborne position (duplicate)
	BDS08 Register = "0,8" // extended squitter identification
	BDS10 Register = "1,0" // data link capability report
	BDS20 Register = "2,0" // aircraft identification
	BDS30 Register = "3,0" // ACAS active resolution advisory
	BDSF1 Register = "F,1" // military applications
)

// Candidate is a register hypothesis with an accumulated confidence
// score: static non-zero fields matched count double weight.
type Candidate struct {
	Register   Register
	Confidence int
}

var allRegisters = []Register{BDS05, BDS08, BDS10, BDS20, BDS30, BDSF1}

// Identify ranks every known register against mb (7 bytes) and returns
// the winner, or a zero Register ("") when the top two candidates tie --
// callers should fall back to a generic/opaque BDS wrapper in that case.
// reportedAltitudeFeet, when non-nil, cross-checks BDS 0,5's decoded
// altitude (must be within +/-50 ft) as an additional confidence signal.
func Identify(mb [7]byte, reportedAltitudeFeet *int32) (Register, int, bool) {
	candidates := make([]Candidate, 0, len(allRegisters))
	for _, reg := range allRegisters {
		if score, ok := scoreRegister(reg, mb, reportedAltitudeFeet); ok {
			candidates = append(candidates, Candidate{Register: reg, Confidence: score})
		}
	}
	if len(candidates) == 0 {
		return "", 0, false
	}

	best := candidates[0]
	tie := false
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
			tie = false
		} else if c.Confidence == best.Confidence {
			tie = true
		}
	}
	if tie {
		return "", 0, false
	}
	return best.Register, best.Confidence, true
}

// scoreRegister eliminates a candidate whose reserved bits are non-zero
// where the register demands zero, then scores confidence by the count
// of matched static fields (weighted double) plus structural parse
// success.
func scoreRegister(reg Register, mb [7]byte, reportedAltitudeFeet *int32) (int, bool) {
	switch reg {
	case BDS08:
		return scoreBDS08(mb)
	case BDS20:
		return scoreBDS20(mb)
	case BDS10:
		return scoreBDS10(mb)
	case BDS30:
		return scoreBDS30(mb)
	case BDS05:
		return scoreBDS05(mb, reportedAltitudeFeet)
	default:
		return 0, false
	}
}

// scoreBDS08 (extended squitter aircraft identification, repeated in
// Comm-B) requires the top 5 bits of MB[0] to be a valid type code (1-4)
// and every decoded callsign character to come from the valid alphabet
// with at most one trailing run of spaces.
func scoreBDS08(mb [7]byte) (int, bool) {
	tc := mb[0] >> 3
	if tc < 1 || tc > 4 {
		return 0, false
	}
	score := 2 // static type-code field matched, weighted double
	trailingSpaces := false
	for i := 1; i <= 8; i++ {
		c := decodeBDSChar(mb, i)
		if c == 0 {
			return 0, false
		}
		if c == ' ' {
			trailingSpaces = true
		} else if trailingSpaces {
			return 0, false // space run must be trailing only
		} else {
			score++
		}
	}
	return score, true
}

func decodeBDSChar(mb [7]byte, charIndex int) byte {
	// characters 1..8 pack into bits 9-56, after the 8 bit register header
	bitPos := 8 + (charIndex-1)*6
	var v uint32
	for i := 0; i < 6; i++ {
		bit := bitPos + i
		byteIdx := bit / 8
		if byteIdx >= len(mb) {
			return 0
		}
		bitIdx := uint(7 - bit%8)
		v <<= 1
		v |= uint32((mb[byteIdx] >> bitIdx) & 1)
	}
	const charset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"
	if int(v) >= len(charset) {
		return 0
	}
	c := charset[v]
	if c == '#' {
		return 0
	}
	return c
}

// scoreBDS20 (aircraft identification register, BDS 2,0) requires MB[0]
// == 0x20 (the register's own type code byte).
func scoreBDS20(mb [7]byte) (int, bool) {
	if mb[0] != 0x20 {
		return 0, false
	}
	score := 2
	for i := 1; i <= 8; i++ {
		if c := decodeBDSChar(mb, i); c != 0 {
			score++
		}
	}
	return score, true
}

// Callsign decodes the 8 character aircraft identification of a BDS 2,0
// (or the callsign tail of a BDS 0,8) payload. ok is false when any
// character falls outside the valid alphabet.
func Callsign(mb [7]byte) (string, bool) {
	out := make([]byte, 8)
	for i := 1; i <= 8; i++ {
		c := decodeBDSChar(mb, i)
		if c == 0 {
			return "", false
		}
		out[i-1] = c
	}
	return string(out), true
}

// scoreBDS10 (data link capability report) requires reserved bits 24-39
// to be zero.
func scoreBDS10(mb [7]byte) (int, bool) {
	if mb[3] != 0 || mb[4] != 0 {
		return 0, false
	}
	return 2, true
}

// scoreBDS30 (ACAS RA report) requires the low 3 bits of MB[6] (reserved)
// to be zero.
func scoreBDS30(mb [7]byte) (int, bool) {
	if mb[6]&0x07 != 0 {
		return 0, false
	}
	return 2, true
}

// scoreBDS05 cross-checks the Comm-B payload interpreted as an airborne
// position ME field: if a reported altitude is known, the register's own
// 12-bit altitude field must agree within +/-50 ft.
func scoreBDS05(mb [7]byte, reportedAltitudeFeet *int32) (int, bool) {
	if reportedAltitudeFeet == nil {
		return 0, false
	}
	altField := field(mb[:], 8, 12)
	q := altField & 0x10
	if q == 0 {
		return 0, false
	}
	n := ((altField & 0x0fe0) >> 1) | (altField & 0x000f)
	feet := int32(n)*25 - 1000
	delta := feet - *reportedAltitudeFeet
	if delta < 0 {
		delta = -delta
	}
	if delta > 50 {
		return 0, false
	}
	return 3, true
}

func field(msg []byte, startBit, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		bit := startBit + i
		byteIdx := bit / 8
		if byteIdx >= len(msg) {
			break
		}
		bitIdx := uint(7 - bit%8)
		v <<= 1
		v |= uint32((msg[byteIdx] >> bitIdx) & 1)
	}
	return v
}
