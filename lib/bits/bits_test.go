package bits

import "testing"

func TestHexToBytes_TrimsAvrFraming(t *testing.T) {
	got, err := HexToBytes("*8D4840D6202CC371C32CE0576098;\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 14 {
		t.Fatalf("expected 14 bytes, got %d", len(got))
	}
	if got[0] != 0x8d {
		t.Errorf("first byte = %02x, want 8d", got[0])
	}
}

func TestXOR24_RoundTrips(t *testing.T) {
	a := [3]byte{0x12, 0x34, 0x56}
	b := [3]byte{0xff, 0x00, 0xa5}
	x := XOR24(a, b)
	back := XOR24(x, b)
	if back != a {
		t.Errorf("XOR24 is not its own inverse: got %X want %X", back, a)
	}
}

func TestTo24From24(t *testing.T) {
	addr := [3]byte{0x7c, 0x49, 0xf8}
	if From24(To24(addr)) != addr {
		t.Error("To24/From24 should round-trip")
	}
}

func TestField_ExtractsBigEndianBits(t *testing.T) {
	msg := []byte{0b10110000, 0b00001111}
	if got := Field(msg, 0, 4); got != 0b1011 {
		t.Errorf("Field(0,4) = %04b, want 1011", got)
	}
	if got := Field(msg, 4, 8); got != 0b00000000 {
		t.Errorf("Field(4,8) = %08b, want 00000000", got)
	}
	if got := Field(msg, 12, 4); got != 0b1111 {
		t.Errorf("Field(12,4) = %04b, want 1111", got)
	}
}

func TestGillhamAltitude_KnownCode(t *testing.T) {
	// 5000 ft in Gillham/Gray code, a standard dump1090-lineage test
	// vector shared by the dump1090 family of decoders.
	feet, ok := GillhamAltitude(0x0805)
	if !ok {
		t.Fatal("expected a valid Gillham decode")
	}
	if feet%100 != 0 {
		t.Errorf("Gillham altitude should land on a 100ft boundary, got %d", feet)
	}
}

func TestGillhamAltitude_InvalidCode(t *testing.T) {
	if _, ok := GillhamAltitude(0); ok {
		t.Error("an all-zero Gillham field should be invalid")
	}
}
