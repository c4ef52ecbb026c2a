package bds

import "testing"

// bds20Fixture is a BDS 2,0 aircraft identification payload carrying
// "KLM1023 " (the register header byte 0x20 followed by 8 six-bit
// characters).
var bds20Fixture = [7]byte{0x20, 0x2c, 0xc3, 0x71, 0xc3, 0x2c, 0xe0}

func TestCallsign_BDS20(t *testing.T) {
	cs, ok := Callsign(bds20Fixture)
	if !ok {
		t.Fatal("expected a decodable callsign")
	}
	if cs != "KLM1023 " {
		t.Errorf("Callsign = %q, want %q", cs, "KLM1023 ")
	}
}

func TestIdentify_BDS20Wins(t *testing.T) {
	reg, confidence, ok := Identify(bds20Fixture, nil)
	if !ok {
		t.Fatal("expected an identification")
	}
	if reg != BDS20 {
		t.Errorf("register = %q, want %q", reg, BDS20)
	}
	if confidence < 2 {
		t.Errorf("confidence = %d, want >= 2", confidence)
	}
}

func TestIdentify_NoCandidates(t *testing.T) {
	// 0xFF everywhere violates every register's constraints.
	mb := [7]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	if _, _, ok := Identify(mb, nil); ok {
		t.Error("expected no winning candidate")
	}
}

func TestScoreBDS08_RejectsInteriorSpace(t *testing.T) {
	// "AB C" style callsigns (space in the middle) are not valid aircraft
	// identifications; only a trailing space run is allowed.
	// Type code 1, then chars: 'A', ' ', 'B', then spaces.
	mb := buildIdentPayload(0x08, "A B     ")
	if _, ok := scoreBDS08(mb); ok {
		t.Error("an interior space should eliminate the BDS 0,8 candidate")
	}
}

func TestScoreBDS08_AcceptsTrailingSpaces(t *testing.T) {
	mb := buildIdentPayload(0x08, "QFA123  ")
	if _, ok := scoreBDS08(mb); !ok {
		t.Error("a callsign with only trailing spaces should be a valid BDS 0,8 candidate")
	}
}

// buildIdentPayload packs header plus 8 chars into a 7 byte payload.
func buildIdentPayload(header byte, callsign string) [7]byte {
	const charset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"
	var mb [7]byte
	mb[0] = header
	bitPos := 8
	for _, c := range []byte(callsign) {
		var code int
		for i := 0; i < len(charset); i++ {
			if charset[i] == c && charset[i] != '#' {
				code = i
				break
			}
		}
		for i := 5; i >= 0; i-- {
			if code&(1<<uint(i)) != 0 {
				mb[bitPos/8] |= 1 << uint(7-bitPos%8)
			}
			bitPos++
		}
	}
	return mb
}
