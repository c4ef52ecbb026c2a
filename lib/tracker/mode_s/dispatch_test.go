package mode_s

import "testing"

func TestDecode_Identification(t *testing.T) {
	f, err := ParseHex(identificationHex, false)
	if err != nil {
		t.Fatal(err)
	}
	v, err := Decode(f, VersionHint{})
	if err != nil {
		t.Fatal(err)
	}
	id, ok := v.(Identification)
	if !ok {
		t.Fatalf("expected Identification, got %T", v)
	}
	if id.TypeCode < 1 || id.TypeCode > 4 {
		t.Errorf("TypeCode = %d, want in [1,4]", id.TypeCode)
	}
	if id.Callsign != "DLH42K  " {
		t.Errorf("Callsign = %q, want %q", id.Callsign, "DLH42K  ")
	}
}

func TestDecode_VelocityOverGround(t *testing.T) {
	// A real-world DF17 TC19 subtype 1 capture.
	f, err := ParseHex("8d507c0b99c5089ad88800000000", false)
	if err != nil {
		t.Fatal(err)
	}
	v, err := Decode(f, VersionHint{})
	if err != nil {
		t.Fatal(err)
	}
	vog, ok := v.(VelocityOverGround)
	if !ok {
		t.Fatalf("expected VelocityOverGround, got %T", v)
	}
	want := [3]byte{0x50, 0x7c, 0x0b}
	if vog.ICAO24() != want {
		t.Errorf("ICAO24 = %X, want %X", vog.ICAO24(), want)
	}
	if vog.SpeedKnots <= 0 {
		t.Error("expected a positive ground speed")
	}
}

func TestDecode_AirbornePosition_OddEvenFormat(t *testing.T) {
	oddF, err := ParseHex("8d40064678000740000000000000", false)
	if err != nil {
		t.Fatal(err)
	}
	evenF, err := ParseHex("8d40064678000000000000000000", false)
	if err != nil {
		t.Fatal(err)
	}

	oddV, err := Decode(oddF, VersionHint{})
	if err != nil {
		t.Fatal(err)
	}
	evenV, err := Decode(evenF, VersionHint{})
	if err != nil {
		t.Fatal(err)
	}

	odd, ok := oddV.(AirbornePosition)
	if !ok {
		t.Fatalf("expected AirbornePosition for odd frame, got %T", oddV)
	}
	even, ok := evenV.(AirbornePosition)
	if !ok {
		t.Fatalf("expected AirbornePosition for even frame, got %T", evenV)
	}
	if !odd.OddFormat {
		t.Error("expected the odd-numbered fixture to carry OddFormat=true")
	}
	if even.OddFormat {
		t.Error("expected the even-numbered fixture to carry OddFormat=false")
	}
}

func TestDecode_TargetStateAndStatus(t *testing.T) {
	// TC29 subtype 1: selected altitude 10016 ft (N=314), pressure
	// setting 1000.0 mbar (raw 251), selected heading 45 degrees, TCAS
	// operational.
	me := []byte{0xEA, 0x13, 0xA7, 0xDC, 0x80, 0x00, 0x08}
	v, err := decodeTargetStateAndStatus([3]byte{0x11, 0x22, 0x33}, me)
	if err != nil {
		t.Fatal(err)
	}
	ts, ok := v.(TargetStateAndStatus)
	if !ok {
		t.Fatalf("expected TargetStateAndStatus, got %T", v)
	}
	if !ts.SelectedAltitudeValid || ts.SelectedAltitudeFeet != 10016 {
		t.Errorf("SelectedAltitudeFeet = %d (valid=%v), want 10016", ts.SelectedAltitudeFeet, ts.SelectedAltitudeValid)
	}
	if !ts.BarometricValid || ts.BarometricMbar != 1000.0 {
		t.Errorf("BarometricMbar = %.1f (valid=%v), want 1000.0", ts.BarometricMbar, ts.BarometricValid)
	}
	if !ts.SelectedHeadingValid || ts.SelectedHeadingDegrees != 45.0 {
		t.Errorf("SelectedHeadingDegrees = %.3f (valid=%v), want 45.0", ts.SelectedHeadingDegrees, ts.SelectedHeadingValid)
	}
	if !ts.Mode.TCASOperational {
		t.Error("expected TCAS operational mode bit")
	}
}

func TestDecode_TargetStateAndStatus_ZeroFieldsAreUnavailable(t *testing.T) {
	me := []byte{0xEA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	v, err := decodeTargetStateAndStatus([3]byte{}, me)
	if err != nil {
		t.Fatal(err)
	}
	ts := v.(TargetStateAndStatus)
	if ts.SelectedAltitudeValid || ts.BarometricValid || ts.SelectedHeadingValid {
		t.Error("all-zero fields must decode as not available")
	}
}

func TestDecode_TargetStateAndStatus_RejectsReservedBit(t *testing.T) {
	me := []byte{0xEA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x20}
	if _, err := decodeTargetStateAndStatus([3]byte{}, me); err == nil {
		t.Error("expected BadFormat when a reserved bit is set")
	}
	me = []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if _, err := decodeTargetStateAndStatus([3]byte{}, me); err == nil {
		t.Error("expected UnspecifiedFormat for subtype 0")
	}
}
