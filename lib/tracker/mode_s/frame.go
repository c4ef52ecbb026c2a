// Package mode_s decodes Mode S / ADS-B 1090 MHz downlink frames: the
// outer envelope (Frame), the CRC/parity engine wiring, and the tagged
// union of semantic message variants reached by DF/TC/subtype dispatch.
//
// Field layouts follow ICAO Annex 10 Vol. IV and RTCA DO-260B; the
// decoding conventions are those of the dump1090 family of receivers.
package mode_s

import (
	"fmt"
	"hash/fnv"

	"github.com/jetwatch/modes/lib/bits"
	"github.com/jetwatch/modes/lib/crc"
)

const (
	shortMsgBytes = 7
	longMsgBytes  = 14
)

// Frame is the parsed outer envelope of a Mode S downlink message:
// {downlink_format, first_field, icao24 candidate, payload, parity}. It is
// immutable after Parse and safe to share across goroutines.
type Frame struct {
	downlinkFormat uint8
	firstField     uint8
	icao24         [3]byte
	payload        []byte
	parity         [3]byte
	noCRC          bool
}

// addressParityFormats is the set of downlink formats whose ICAO24 is
// recovered by XORing the computed CRC with the transmitted parity field:
// DF 0,4,5,16,20,21 and DF24 (Comm-D).
var addressParityFormats = map[uint8]bool{
	0: true, 4: true, 5: true, 16: true, 20: true, 21: true, 24: true,
}

// squitterFormats carry the ICAO24 directly as the first 3 payload bytes.
var squitterFormats = map[uint8]bool{
	11: true, 17: true, 18: true,
}

// Parse parses a raw 7 or 14 byte downlink frame. noCRC indicates the
// parity field has already had the CRC subtracted out (it holds the bare
// address/interrogator code rather than address XOR CRC).
func Parse(raw []byte, noCRC bool) (*Frame, error) {
	if len(raw) != shortMsgBytes && len(raw) != longMsgBytes {
		return nil, newBadFormat(fmt.Sprintf("frame must be %d or %d bytes, got %d", shortMsgBytes, longMsgBytes, len(raw)), raw)
	}

	df := decodeDownlinkFormat(raw[0])
	wantLen := shortMsgBytes
	if df >= 16 {
		wantLen = longMsgBytes
	}
	if len(raw) != wantLen {
		return nil, newBadFormat(fmt.Sprintf("DF%d requires a %d byte frame, got %d", df, wantLen, len(raw)), raw)
	}

	f := &Frame{
		downlinkFormat: df,
		firstField:     raw[0] & 0x07,
		noCRC:          noCRC,
	}
	f.payload = append([]byte(nil), raw[1:len(raw)-3]...)
	copy(f.parity[:], raw[len(raw)-3:])
	f.deriveICAO(raw)

	return f, nil
}

// ParseHex decodes a hex-encoded frame (case-insensitive, 14 or 28 hex
// digits, optional AVR '*'/';' framing) and parses it.
func ParseHex(hex string, noCRC bool) (*Frame, error) {
	raw, err := bits.HexToBytes(hex)
	if err != nil {
		return nil, newBadFormat(err.Error(), nil)
	}
	return Parse(raw, noCRC)
}

// decodeDownlinkFormat implements the DF24 special case: the top two bits
// set (0xC0) signal a Comm-D Extended Length Message regardless of what the
// next three bits hold (those become the KE/ND field, not part of DF).
func decodeDownlinkFormat(b0 byte) uint8 {
	if b0&0xc0 == 0xc0 {
		return 24
	}
	return b0 >> 3
}

// deriveICAO fills in f.icao24 from the raw frame bytes per the DF class
// table.
func (f *Frame) deriveICAO(raw []byte) {
	switch {
	case squitterFormats[f.downlinkFormat]:
		copy(f.icao24[:], f.payload[0:3])
	case addressParityFormats[f.downlinkFormat]:
		if f.noCRC {
			f.icao24 = f.parity
		} else {
			f.icao24 = bits.XOR24(crc.CalcParity(raw), f.parity)
		}
	default:
		// DF has no address field of its own (e.g. a reply carrying only a
		// squawk/altitude); icao24 stays zero and callers must correlate by
		// other means (out of scope for this library).
	}
}

// CalcParity recomputes the Mode S CRC remainder over this frame's
// DF+FF+payload bytes.
func (f *Frame) CalcParity() [3]byte {
	return crc.CalcParityOverData(f.dfFFPayload())
}

func (f *Frame) dfFFPayload() []byte {
	out := make([]byte, 1+len(f.payload))
	out[0] = f.downlinkFormat<<3 | f.firstField
	copy(out[1:], f.payload)
	return out
}

// CheckParity compares the computed CRC against the transmitted parity.
// Meaningful for DF17/18; for DF11 it holds only when the interrogator
// code is zero (InterrogatorCode recovers and checks that code).
func (f *Frame) CheckParity() bool {
	return f.CalcParity() == f.parity
}

// InterrogatorCode returns the all-call interrogator code for DF11 frames:
// calc_parity XOR parity, valid only when the top 17 bits are zero and the
// resulting code label is in [0,4].
func (f *Frame) InterrogatorCode() (code uint8, ok bool) {
	if f.downlinkFormat != 11 {
		return 0, false
	}
	x := bits.XOR24(f.CalcParity(), f.parity)
	if x[0] != 0 || x[1] != 0 || x[2]&0x80 != 0 {
		return 0, false
	}
	if x[2]>>4 > 4 {
		return 0, false
	}
	return x[2], true
}

// HexMessage reassembles the frame into its original hex wire form,
// reinjecting the CRC into the parity field when NoCRC was set at parse
// time (parity <- parity XOR calc_parity).
func (f *Frame) HexMessage() string {
	raw := f.dfFFPayload()
	parity := f.parity
	if f.noCRC {
		parity = bits.XOR24(parity, f.CalcParity())
	}
	raw = append(raw, parity[:]...)
	return bits.BytesToHex(raw)
}

// Equal implements lenient frame equality: two frames match
// if DF, FF and payload coincide and any one of the parity/CRC
// cross-checks holds (handles comparing a CRC-bearing frame against one
// whose parity has already been reduced to an address, and vice-versa).
func (f *Frame) Equal(other *Frame) bool {
	if other == nil {
		return false
	}
	if f.downlinkFormat != other.downlinkFormat || f.firstField != other.firstField {
		return false
	}
	if len(f.payload) != len(other.payload) {
		return false
	}
	for i := range f.payload {
		if f.payload[i] != other.payload[i] {
			return false
		}
	}

	if f.parity == other.parity {
		return true
	}
	if f.parity == other.CalcParity() {
		return true
	}
	if f.CalcParity() == other.parity {
		return true
	}
	if f.downlinkFormat == 11 {
		if bits.XOR24(f.CalcParity(), f.parity) == bits.XOR24(other.CalcParity(), other.parity) {
			return true
		}
	}
	return false
}

// Hash is consistent with Equal: it is invariant to whether the parity
// field carries a raw CRC or an address/interrogator-XOR'd value, because
// it hashes the recovered ICAO24 rather than the raw parity bytes.
func (f *Frame) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte{f.downlinkFormat, f.firstField})
	_, _ = h.Write(f.payload)
	_, _ = h.Write(f.icao24[:])
	return h.Sum64()
}

// DownlinkFormat returns DF, 0..31.
func (f *Frame) DownlinkFormat() uint8 { return f.downlinkFormat }

// FirstField returns the 3 bits immediately following DF (CA/FS/CF
// depending on DF).
func (f *Frame) FirstField() uint8 { return f.firstField }

// ICAO24 returns the (possibly recovered) 24-bit transponder address.
func (f *Frame) ICAO24() [3]byte { return f.icao24 }

// ICAO24Uint returns ICAO24 packed into the low 24 bits of a uint32, the
// natural session-registry key.
func (f *Frame) ICAO24Uint() uint32 { return bits.To24(f.icao24) }

// Payload returns the DF-specific body between FF and parity (3 or 10
// bytes).
func (f *Frame) Payload() []byte { return f.payload }

// Parity returns the raw 3-byte parity/address-xor/interrogator-xor field.
func (f *Frame) Parity() [3]byte { return f.parity }

// NoCRC reports whether the parity field has already had the CRC
// subtracted out.
func (f *Frame) NoCRC() bool { return f.noCRC }

// IsLong reports whether this is a 112-bit (14 byte) frame.
func (f *Frame) IsLong() bool { return len(f.payload) == longMsgBytes-4 }
