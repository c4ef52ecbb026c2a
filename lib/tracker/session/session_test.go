package session

import (
	"testing"

	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

func TestDecode_TracksAdsbVersionFromOperationalStatus(t *testing.T) {
	d := New()
	icao := [3]byte{0x11, 0x22, 0x33}

	// TC31 subtype 0 airborne operational status, version 2 in ME[5] bits 5-7.
	me := []byte{0xf8, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00}
	f, err := syntheticDF17(icao, me)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Decode(f); err != nil {
		t.Fatal(err)
	}

	st := d.getOrCreate(f.ICAO24Uint())
	if st.adsbVersion != 2 {
		t.Errorf("adsbVersion = %d, want 2", st.adsbVersion)
	}
}

func TestDecodePosition_GCEvictsStaleAircraft(t *testing.T) {
	d := New()
	d.messageCount = gcMessageThreshold + 1
	for i := 0; i < gcAircraftThreshold+1; i++ {
		d.aircraft[uint32(i)] = &aircraftState{lastUsedTime: 0}
	}
	d.latestTimestamp = gcAgeSeconds * 2

	d.GC()

	if len(d.aircraft) != 0 {
		t.Errorf("expected gc to evict all stale aircraft, %d remain", len(d.aircraft))
	}
}

func TestDecodePosition_GCKeepsRecentAircraft(t *testing.T) {
	d := New()
	d.aircraft[1] = &aircraftState{lastUsedTime: 100}
	d.latestTimestamp = 110

	d.GC()

	if len(d.aircraft) != 1 {
		t.Error("a recently used aircraft should not be evicted")
	}
}

// syntheticDF17 builds a minimal, CRC-correct DF17 frame with the given
// ME field so session tests can exercise Decode without depending on a
// specific captured fixture.
func syntheticDF17(icao [3]byte, me []byte) (*mode_s.Frame, error) {
	raw := make([]byte, 14)
	raw[0] = 17 << 3 // DF17, CA=0
	copy(raw[1:4], icao[:])
	copy(raw[4:11], me)
	return mode_s.Parse(raw, true) // noCRC: the all-zero parity slot counts as already CRC-stripped
}

func TestDecode_StrictAddressCheckRejectsUnconfirmedAP(t *testing.T) {
	d := New(WithStrictAddressCheck())

	// A DF4 altitude reply whose address was never confirmed by a clean
	// squitter: under strict checking it must be rejected.
	raw := []byte{0x20, 0x00, 0x04, 0x12, 0x34, 0x56, 0x78}
	f, err := mode_s.Parse(raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Decode(f); err == nil {
		t.Fatal("expected an unverified-address rejection")
	}

	// After a clean squitter from the same address, the reply goes through.
	icao := f.ICAO24()
	sq, err := syntheticDF17(icao, []byte{0x20, 0x4d, 0x10, 0xc2, 0x34, 0xc8, 0xb8})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Decode(sq); err != nil {
		t.Fatal(err)
	}
	f2, err := mode_s.Parse(raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Decode(f2); err != nil {
		t.Errorf("confirmed address should decode: %v", err)
	}
}
