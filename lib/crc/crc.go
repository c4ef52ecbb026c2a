// Package crc implements the 24-bit Mode S parity polynomial used to
// validate DF17/18 extended squitters and to recover the transponder
// address from address-parity-XOR'd frames (DF 0,4,5,11,16,20,21,24).
//
// The table-driven form is the classic dump1090 checksum table for the
// 24-bit Mode S polynomial (generator 0xFFF409). The table encodes, per
// bit position, the remainder contribution of that bit being set; the
// final 24 entries are zero because the parity field itself must not
// perturb the computed remainder.
package crc

// generator is the low 24 bits of the Mode S CRC generator polynomial.
const generator = 0xFFF409

// checksumTable holds the contribution of each of the 112 possible bit
// positions of a long Mode S message. Short (56 bit) messages reuse the
// last 56 entries, which is valid because the CRC register is linear: the
// contribution of the leading 56 (implicitly zero) bits of a short message
// is zero regardless of the table values assigned to them.
var checksumTable = [112]uint32{
	0x3935ea, 0x1c9af5, 0xf1b77e, 0x78dbbf, 0xc397db, 0x9e31e9, 0xb0e2f0, 0x587178,
	0x2c38bc, 0x161c5e, 0x0b0e2f, 0xfa7d13, 0x82c48d, 0xbe9842, 0x5f4c21, 0xd05c14,
	0x682e0a, 0x341705, 0xe5f186, 0x72f8c3, 0xc68665, 0x9cb936, 0x4e5c9b, 0xd8d449,
	0x939020, 0x49c810, 0x24e408, 0x127204, 0x093902, 0x049c81, 0xfdb444, 0x7eda22,
	0x3f6d11, 0xe04c8c, 0x702646, 0x381323, 0xe3f395, 0x8e03ce, 0x4701e7, 0xdc7af7,
	0x91c77f, 0xb719bb, 0xa476d9, 0xadc168, 0x56e0b4, 0x2b705a, 0x15b82d, 0xf52612,
	0x7a9309, 0xc2b380, 0x6159c0, 0x30ace0, 0x185670, 0x0c2b38, 0x06159c, 0x030ace,
	0x018567, 0xff38b7, 0x80665f, 0xbfc92b, 0xa01e91, 0xaff54c, 0x57faa6, 0x2bfd53,
	0xea04ad, 0x8af852, 0x457c29, 0xdd4410, 0x6ea208, 0x375104, 0x1ba882, 0x0dd441,
	0xf91024, 0x7c8812, 0x3e4409, 0xe0d800, 0x706c00, 0x383600, 0x1c1b00, 0x0e0d80,
	0x0706c0, 0x038360, 0x01c1b0, 0x00e0d8, 0x00706c, 0x003836, 0x001c1b, 0xfff409,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
}

// CalcParity computes the 24-bit Mode S remainder over a full 7 or 14 byte
// message. The trailing 3 bytes are conventionally the received parity
// field but their content does not affect the result (the table's final 24
// entries are zero): callers may pass the frame exactly as received.
func CalcParity(msg []byte) [3]byte {
	bits := len(msg) * 8
	offset := 0
	if bits != 112 {
		offset = 112 - bits
	}

	var rem uint32
	for j := 0; j < bits; j++ {
		sByte := j / 8
		sBitmask := byte(1) << uint(7-j%8)
		if msg[sByte]&sBitmask != 0 {
			rem ^= checksumTable[j+offset]
		}
	}
	return [3]byte{byte(rem >> 16), byte(rem >> 8), byte(rem)}
}

// CalcParityOverData computes the 3-byte remainder over a bare
// {DF, FF, payload} buffer with no parity field present at all. It pads
// with 3 zero bytes internally and defers to CalcParity.
func CalcParityOverData(data []byte) [3]byte {
	padded := make([]byte, len(data)+3)
	copy(padded, data)
	return CalcParity(padded)
}

// FixSingleBitError attempts to repair a single flipped bit in msg by
// trying every bit position and recomputing the checksum, returning the
// corrected bit index or -1 if no single-bit fix makes the checksum close.
// Used only as an opt-in repair step (see lib/tracker/mode_s); plain
// parsing never repairs messages implicitly.
func FixSingleBitError(msg []byte) int {
	bits := len(msg) * 8
	parityStart := len(msg) - 3
	aux := make([]byte, len(msg))

	for j := 0; j < bits; j++ {
		sByte := j / 8
		bitmask := byte(1) << uint(7-j%8)
		copy(aux, msg)
		aux[sByte] ^= bitmask

		got := [3]byte{aux[parityStart], aux[parityStart+1], aux[parityStart+2]}
		want := CalcParity(aux)
		if got == want {
			copy(msg, aux)
			return j
		}
	}
	return -1
}

// FixTwoBitErrors tries every pair of bit flips. It is slow (O(bits^2)) and
// is only offered for DF17/18 in aggressive repair modes.
func FixTwoBitErrors(msg []byte) (bitA, bitB int) {
	bits := len(msg) * 8
	parityStart := len(msg) - 3
	aux := make([]byte, len(msg))

	for j := 0; j < bits; j++ {
		byte1 := j / 8
		mask1 := byte(1) << uint(7-j%8)
		for i := j + 1; i < bits; i++ {
			byte2 := i / 8
			mask2 := byte(1) << uint(7-i%8)

			copy(aux, msg)
			aux[byte1] ^= mask1
			aux[byte2] ^= mask2

			got := [3]byte{aux[parityStart], aux[parityStart+1], aux[parityStart+2]}
			want := CalcParity(aux)
			if got == want {
				copy(msg, aux)
				return j, i
			}
		}
	}
	return -1, -1
}
