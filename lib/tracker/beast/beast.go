// Package beast decodes the Beast binary serial protocol framing that
// wraps Mode S/ADS-B frames for transport from a receiver: a type byte,
// an escaped 6-byte MLAT timestamp, a signal level byte and the AVR
// body itself.
//
// The framing is the de-facto standard spoken by Mode-S Beast, AirSquitter
// and Radarcape receivers and by readsb/dump1090's --net-bo output.
package beast

import (
	"fmt"
	"math"

	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

const (
	escape = 0x1a

	msgTypeModeAC    = 0x31
	msgTypeModeSShort = 0x32
	msgTypeModeSLong  = 0x33
)

// Frame is a single deframed Beast message: the type byte, the 6-byte
// MLAT timestamp, the signal level and the Mode S/ADS-B body.
type Frame struct {
	raw           []byte
	msgType       byte
	mlatTimestamp []byte
	signalLevel   byte
	body          []byte

	hasDecoded bool
	decoded    *mode_s.Frame
}

// NewFrame deframes a single escaped Beast message (including its
// leading 0x1A type marker) into a Frame. radarcape selects the GPS
// timestamp variant used by Radarcape-branded receivers; it does not
// change the field layout this package extracts, only how callers would
// interpret mlatTimestamp's units.
func NewFrame(raw []byte, radarcape bool) (*Frame, error) {
	unescaped := unescape(raw)
	if len(unescaped) < 2 || unescaped[0] != escape {
		return nil, fmt.Errorf("beast: missing leading 0x1A marker")
	}

	msgType := unescaped[1]
	var bodyLen int
	switch msgType {
	case msgTypeModeAC:
		bodyLen = 2
	case msgTypeModeSShort:
		bodyLen = 7
	case msgTypeModeSLong:
		bodyLen = 14
	default:
		return nil, fmt.Errorf("beast: unknown message type 0x%02x", msgType)
	}

	wantLen := 2 + 6 + 1 + bodyLen
	if len(unescaped) != wantLen {
		return nil, fmt.Errorf("beast: message type 0x%02x requires %d bytes, got %d", msgType, wantLen, len(unescaped))
	}

	f := &Frame{
		raw:           append([]byte(nil), raw...),
		msgType:       msgType,
		mlatTimestamp: append([]byte(nil), unescaped[2:8]...),
		signalLevel:   unescaped[8],
		body:          append([]byte(nil), unescaped[9:]...),
	}
	return f, nil
}

// unescape removes the Beast protocol's 0x1A 0x1A byte-stuffing, except
// for the very first 0x1A which is the frame marker itself.
func unescape(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	out := make([]byte, 0, len(raw))
	out = append(out, raw[0])
	for i := 1; i < len(raw); i++ {
		if raw[i] == escape && i+1 < len(raw) && raw[i+1] == escape {
			out = append(out, escape)
			i++
			continue
		}
		out = append(out, raw[i])
	}
	return out
}

// Decode parses the Mode S body into a mode_s.Frame, caching the result.
// Mode A/C frames (msgType 0x31) have no Mode S body and Decode is a
// no-op for them.
func (f *Frame) Decode() error {
	if f.hasDecoded {
		return nil
	}
	if f.msgType == msgTypeModeAC {
		f.hasDecoded = true
		return nil
	}
	d, err := mode_s.Parse(f.body, false)
	if err != nil {
		return err
	}
	f.decoded = d
	f.hasDecoded = true
	return nil
}

// AvrFrame returns the decoded mode_s.Frame, decoding it first if
// necessary.
func (f *Frame) AvrFrame() *mode_s.Frame {
	if !f.hasDecoded {
		_ = f.Decode()
	}
	return f.decoded
}

// IcaoStr returns the hex transponder address of the decoded frame, or
// an empty string for Mode A/C frames.
func (f *Frame) IcaoStr() string {
	af := f.AvrFrame()
	if af == nil {
		return ""
	}
	icao := af.ICAO24()
	return fmt.Sprintf("%02X%02X%02X", icao[0], icao[1], icao[2])
}

// SignalRssi converts the Beast signal level byte into dBFS, per the
// dump1090-lineage formula 20*log10(level/255) with level 0 mapped to
// -Inf rather than a NaN/overflow.
func (f *Frame) SignalRssi() float64 {
	if f.signalLevel == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(f.signalLevel)/255.0)
}

// MessageType returns the raw Beast type byte (0x31/0x32/0x33).
func (f *Frame) MessageType() byte { return f.msgType }

// Body returns the undecoded Mode S/ADS-B body bytes.
func (f *Frame) Body() []byte { return f.body }

// ScanBeast is a bufio.SplitFunc that frames a raw Beast byte stream into
// individual escaped messages (each token starts with its 0x1A marker and
// is suitable for NewFrame). Garbage between frames and truncated frames
// at a reconnect boundary are skipped.
func ScanBeast(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for {
		i := indexFrameStart(data, start)
		if i < 0 {
			// no frame start in the buffer; discard what we have so far but
			// keep a trailing escape in case it is the start of the next frame
			if len(data) > 0 && data[len(data)-1] == escape {
				return len(data) - 1, nil, nil
			}
			return len(data), nil, nil
		}
		if i+1 >= len(data) {
			return i, nil, nil // need the type byte
		}

		var bodyLen int
		switch data[i+1] {
		case msgTypeModeAC:
			bodyLen = 2
		case msgTypeModeSShort:
			bodyLen = 7
		case msgTypeModeSLong:
			bodyLen = 14
		default:
			start = i + 1
			continue
		}
		need := 2 + 6 + 1 + bodyLen // unescaped length incl. marker+type

		count := 2
		j := i + 2
		truncated := false
		for count < need {
			if j >= len(data) {
				if atEOF {
					return len(data), nil, nil
				}
				return i, nil, nil // need more data
			}
			if data[j] == escape {
				if j+1 >= len(data) {
					if atEOF {
						return len(data), nil, nil
					}
					return i, nil, nil
				}
				if data[j+1] != escape {
					// a new frame marker inside this one: the frame was cut
					// short, resync at the new marker
					truncated = true
					break
				}
				j += 2
				count++
				continue
			}
			j++
			count++
		}
		if truncated {
			start = j
			continue
		}
		return j, data[i:j], nil
	}
}

// indexFrameStart finds the next 0x1A at or after start that is a frame
// marker rather than the second half of an escaped data byte.
func indexFrameStart(data []byte, start int) int {
	for i := start; i < len(data); i++ {
		if data[i] != escape {
			continue
		}
		if i+1 < len(data) && data[i+1] == escape {
			i++ // escaped pair, skip both
			continue
		}
		return i
	}
	return -1
}

// SignalLevel returns the raw signal level byte.
func (f *Frame) SignalLevel() byte { return f.signalLevel }
