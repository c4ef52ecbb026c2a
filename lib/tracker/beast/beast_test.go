package beast

import (
	"bufio"
	"bytes"
	"fmt"
	"reflect"
	"testing"
)

var (
	beastModeAc     = []byte{0x1A, 0x31, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	beastModeSShort = []byte{0x1a, 0x32, 0x22, 0x1b, 0x54, 0xf0, 0x81, 0x2b, 0x26, 0x5d, 0x7c, 0x49, 0xf8, 0x28, 0xe9, 0x43}
	beastModeSLong  = []byte{0x1a, 0x33, 0x22, 0x1b, 0x54, 0xac, 0xc2, 0xe9, 0x28, 0x8d, 0x7c, 0x49, 0xf8, 0x58, 0x41, 0xd2, 0x6c, 0xca, 0x39, 0x33, 0xe4, 0x1e, 0xcf}
)

func TestNewBeastMsgModeAC(t *testing.T) {
	f, err := NewFrame(beastModeAc, false)
	if err != nil {
		t.Fatal("did not get a beast message")
	}
	if f.msgType != 0x31 {
		t.Error("incorrect msg type")
	}
}

func TestNewBeastMsgModeSShort(t *testing.T) {
	f, err := NewFrame(beastModeSShort, false)
	if err != nil {
		t.Fatal("did not get a beast message")
	}
	if !bytes.Equal(beastModeSShort, f.raw) {
		t.Errorf("failed to copy the short beast message correctly (%X != %X)", beastModeSShort, f.raw)
	}
	if f.msgType != 0x32 {
		t.Error("incorrect msg type")
	}
	if len(f.mlatTimestamp) != 6 {
		t.Errorf("incorrect timestamp len, expected 6 got %d", len(f.mlatTimestamp))
	}
	if f.signalLevel != 38 {
		t.Errorf("did not get the signal level correctly, got %d", f.signalLevel)
	}
	if len(f.body) != 7 {
		t.Errorf("incorrect body len, expected 7 got %d", len(f.body))
	}
}

func TestNewBeastMsgModeSLong(t *testing.T) {
	f, err := NewFrame(beastModeSLong, false)
	if err != nil {
		t.Fatalf("did not get a beast message: %s", err)
	}
	if !bytes.Equal(beastModeSLong, f.raw) {
		t.Error("failed to copy the long beast message correctly")
	}
	if f.msgType != 0x33 {
		t.Error("incorrect msg type")
	}
	if len(f.mlatTimestamp) != 6 {
		t.Errorf("incorrect timestamp len, expected 6 got %d", len(f.mlatTimestamp))
	}
	if f.signalLevel != 40 {
		t.Errorf("did not get the signal level correctly, got %d", f.signalLevel)
	}
	if len(f.body) != 14 {
		t.Errorf("incorrect body len, expected 14 got %d", len(f.body))
	}
}

func Test_newBeastMsg_rejectsShortInput(t *testing.T) {
	for n := 0; n < 10; n++ {
		raw := make([]byte, n)
		if _, err := NewFrame(raw, false); err == nil {
			t.Errorf("len %d: expected bad decode", n)
		}
	}
}

func TestFrame_SignalRssi(t *testing.T) {
	tests := []struct {
		name string
		args []byte
		want string
	}{
		{name: "AC", args: beastModeAc, want: "-Inf"},
		{name: "Short", args: beastModeSShort, want: "-16.5"},
		{name: "Long", args: beastModeSLong, want: "-16.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFrame(tt.args, false)
			if err != nil {
				t.Fatal(err)
			}
			if got := fmt.Sprintf("%0.1f", f.SignalRssi()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SignalRssi() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFrame_decodesIcao(t *testing.T) {
	frame, err := NewFrame(beastModeSShort, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := frame.Decode(); err != nil {
		t.Fatal(err)
	}
	if !frame.hasDecoded {
		t.Error("should have decoded")
	}
	if frame.AvrFrame() == nil {
		t.Fatal("expected a decoded mode_s frame")
	}
}

var (
	messages = map[string][]byte{
		"DF00_MT00_ST00": {0x1A, 0x32, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0xE1, 0x98, 0x38, 0x5F, 0x1A, 0x9D},
		"DF04_MT00_ST00": {0x1A, 0x32, 0x80, 0x61, 0xEA, 0xEA, 0x5D, 0xB0, 0x14, 0x20, 0x00, 0x17, 0x30, 0xE3, 0x07, 0x9D},
		"DF05_MT00_ST00": {0x1A, 0x32, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x28, 0x00, 0x09, 0xA3, 0xE0, 0x29, 0x52},
		"DF11_MT00_ST00": {0x1A, 0x32, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x5D, 0x48, 0xC2, 0x34, 0x18, 0x27, 0x15},
		"DF16_MT00_ST00": {0x1A, 0x33, 0x08, 0x39, 0xD4, 0x35, 0x7A, 0x17, 0x63, 0x80, 0xE1, 0x99, 0x98, 0x60, 0xCD, 0x81, 0x03, 0x4E, 0x5E, 0xAC, 0x22, 0x14, 0x15},
		"DF17_MT04_ST00": {0x1A, 0x33, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x8D, 0x4B, 0x8D, 0xEE, 0x23, 0x0C, 0x12, 0x78, 0xC3, 0x4C, 0x20, 0x40, 0x2C, 0xA1},
		"DF18_MT00_ST00": {0x1A, 0x33, 0x00, 0xD0, 0x11, 0xB0, 0xCA, 0x83, 0xD0, 0x91, 0x20, 0x10, 0x2A, 0xC1, 0x05, 0x0D, 0x37, 0xBD, 0x83, 0xF0, 0x5E, 0x9E, 0x53},
		"DF20_MT00_ST00": {0x1A, 0x33, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xA0, 0x00, 0x17, 0xB1, 0xB1, 0x29, 0xFB, 0x30, 0xE0, 0x04, 0x00, 0x2D, 0x88, 0xFB},
		"DF21_MT00_ST00": {0x1A, 0x33, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xA8, 0x00, 0x08, 0x00, 0x99, 0x6C, 0x09, 0xF0, 0xA8, 0x00, 0x00, 0xC8, 0xCE, 0x43},
		"DF24_MT00_ST00": {0x1A, 0x33, 0x04, 0x92, 0xE3, 0x82, 0x04, 0x84, 0x1E, 0xC5, 0x53, 0x2D, 0x86, 0x50, 0xF3, 0x51, 0x5B, 0x29, 0xBE, 0x13, 0x0D, 0xBA, 0xAD},
	}
	keys = []string{
		"DF00_MT00_ST00", "DF04_MT00_ST00", "DF05_MT00_ST00", "DF11_MT00_ST00",
		"DF16_MT00_ST00", "DF17_MT04_ST00", "DF18_MT00_ST00", "DF20_MT00_ST00",
		"DF21_MT00_ST00", "DF24_MT00_ST00",
	}
)

func BenchmarkNewFrameAndDecode(b *testing.B) {
	for _, name := range keys {
		arg := messages[name]
		b.Run(name, func(bb *testing.B) {
			for n := 0; n < bb.N; n++ {
				frame, err := NewFrame(arg, false)
				if err != nil {
					bb.Fatal(err)
				}
				if err := frame.Decode(); err != nil {
					bb.Fatal(err)
				}
			}
		})
	}
}

func TestScanBeast_SplitsAStreamWithGarbage(t *testing.T) {
	stream := append([]byte{0x00, 0xff}, beastModeSShort...)
	stream = append(stream, 0x47, 0x11)
	stream = append(stream, beastModeSLong...)
	stream = append(stream, beastModeAc...)

	scanner := bufio.NewScanner(bytes.NewReader(stream))
	scanner.Split(ScanBeast)

	var tokens [][]byte
	for scanner.Scan() {
		tokens = append(tokens, append([]byte(nil), scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(tokens))
	}
	if !bytes.Equal(tokens[0], beastModeSShort) {
		t.Errorf("token 0 = %X, want the short frame", tokens[0])
	}
	if !bytes.Equal(tokens[1], beastModeSLong) {
		t.Errorf("token 1 = %X, want the long frame", tokens[1])
	}
	if !bytes.Equal(tokens[2], beastModeAc) {
		t.Errorf("token 2 = %X, want the mode a/c frame", tokens[2])
	}
}

func TestScanBeast_HandlesEscapedTimestampBytes(t *testing.T) {
	// A frame whose MLAT timestamp contains a 0x1A data byte, doubled on
	// the wire; the splitter must not treat it as a new frame marker.
	escaped := []byte{0x1a, 0x32, 0x1a, 0x1a, 0x1b, 0x54, 0xf0, 0x81, 0x2b, 0x26, 0x5d, 0x7c, 0x49, 0xf8, 0x28, 0xe9, 0x43}
	scanner := bufio.NewScanner(bytes.NewReader(escaped))
	scanner.Split(ScanBeast)

	if !scanner.Scan() {
		t.Fatalf("expected one frame, got none (err=%v)", scanner.Err())
	}
	f, err := NewFrame(scanner.Bytes(), false)
	if err != nil {
		t.Fatal(err)
	}
	if f.mlatTimestamp[0] != 0x1a {
		t.Errorf("timestamp[0] = %02X, want the unescaped 0x1A", f.mlatTimestamp[0])
	}
}
