package position

import (
	"math"
	"testing"

	"github.com/jetwatch/modes/lib/tracker/cpr"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

// encodeCPR mirrors the CPR encode formula so tests can build a
// self-consistent even/odd pair for a chosen position, rather than
// guessing raw 17-bit integers by hand.
func encodeCPR(lat, lon float64, odd bool) (uint32, uint32) {
	const scale = 131072.0
	i := 0.0
	if odd {
		i = 1.0
	}
	dlat := 360.0 / (60 - i)
	mod := func(a, b float64) float64 { return math.Mod(math.Mod(a, b)+b, b) }
	yz := math.Floor(scale*mod(lat, dlat)/dlat + 0.5)

	nl := cpr.NL(lat)
	dlon := 360.0 / math.Max(1, float64(nl)-i)
	xz := math.Floor(scale*mod(lon, dlon)/dlon + 0.5)

	return uint32(yz) & 0x1ffff, uint32(xz) & 0x1ffff
}

func TestDecode_SuppressesUntilThreeReasonableResults(t *testing.T) {
	d := New()
	recv := Receiver{}

	const lat, lon = 52.2572, 3.91937
	evenLat, evenLon := encodeCPR(lat, lon, false)
	oddLat, oddLon := encodeCPR(lat, lon, true)

	even := Input{Surface: false, Odd: false, EncodedLat: evenLat, EncodedLon: evenLon}
	odd := Input{Surface: false, Odd: true, EncodedLat: oddLat, EncodedLon: oddLon}

	var lastPos *Position
	for i := 0; i < 6; i++ {
		even.Time = float64(i * 2)
		odd.Time = float64(i*2 + 1)
		if _, err := d.Decode(even, recv); err != nil {
			t.Fatalf("iteration %d (even): %v", i, err)
		}
		pos, err := d.Decode(odd, recv)
		if err != nil {
			t.Fatalf("iteration %d (odd): %v", i, err)
		}
		if pos != nil {
			lastPos = pos
		}
	}
	if lastPos == nil {
		t.Fatal("expected a position to eventually be returned once num_reasonable exceeds the suppression threshold")
	}
}

func TestDecode_NoPositionWhenNoCache(t *testing.T) {
	d := New()
	in := Input{Surface: false, Odd: false, EncodedLat: 1000, EncodedLon: 1000, Time: 0}
	pos, err := d.Decode(in, Receiver{})
	if err != nil {
		t.Fatal(err)
	}
	if pos != nil {
		t.Error("a single frame with no cached opposite parity and no last position should yield no position")
	}
}

func TestCheckReasonable_RejectsOutOfBoundsCoordinates(t *testing.T) {
	d := New()
	reasonable := d.checkReasonable(Input{Surface: false, Time: 0}, Receiver{}, slot{}, false, false, 0, 0, 0, 0, 200, 500)
	if reasonable {
		t.Error("coordinates with |lon|>180 should be flagged unreasonable")
	}
}

func TestCheckReasonable_RejectsImpossibleSpeed(t *testing.T) {
	d := New()
	d.haveLast = true
	d.lastLat, d.lastLon = 51.5, -0.1
	d.lastTime = 0

	// ~100km in 10s is far beyond the 1000kn airborne threshold.
	farLat, farLon := 52.4, -0.1
	reasonable := d.checkReasonable(Input{Surface: false, Time: 10}, Receiver{}, slot{}, false, false, 0, 0, 0, 0, farLat, farLon)
	if reasonable {
		t.Error("a 100km jump in 10s should fail the speed reasonableness test")
	}
}

func TestCheckReasonable_AcceptsReceiverJitter(t *testing.T) {
	d := New()
	d.haveLast = true
	d.lastLat, d.lastLon = 51.5, -0.1
	d.lastTime = 0

	reasonable := d.checkReasonable(Input{Surface: false, Time: 0.5}, Receiver{}, slot{}, false, false, 0, 0, 0, 0, 51.501, -0.1)
	if !reasonable {
		t.Error("small receiver jitter within tolerance should be accepted")
	}
}

func TestDecode_ImpossibleJumpResetsReasonableRun(t *testing.T) {
	d := New()
	recv := Receiver{}

	const lat, lon = 52.2572, 3.91937
	evenLat, evenLon := encodeCPR(lat, lon, false)
	oddLat, oddLon := encodeCPR(lat, lon, true)

	for i := 0; i < 4; i++ {
		_, _ = d.Decode(Input{Odd: false, EncodedLat: evenLat, EncodedLon: evenLon, Time: float64(i * 2)}, recv)
		_, _ = d.Decode(Input{Odd: true, EncodedLat: oddLat, EncodedLon: oddLon, Time: float64(i*2 + 1)}, recv)
	}
	if d.numReasonable == 0 {
		t.Fatal("expected a run of reasonable results before the jump")
	}

	// ~100km north, 10 seconds later: beyond the 1000 kn bound.
	farEvenLat, farEvenLon := encodeCPR(lat+0.9, lon, false)
	pos, err := d.Decode(Input{Odd: false, EncodedLat: farEvenLat, EncodedLon: farEvenLon, Time: 17}, recv)
	if err != nil {
		t.Fatal(err)
	}
	if pos != nil {
		t.Error("position after an impossible jump must be suppressed")
	}
	if d.numReasonable != 0 {
		t.Errorf("numReasonable = %d after an unreasonable outcome, want 0", d.numReasonable)
	}
}

func TestDecode_StraddledPairSurfacesPositionStraddle(t *testing.T) {
	d := New()

	// Two frames on either side of the NL 59/58 boundary (about 10.47
	// degrees): global decoding straddles, and with no last position there
	// is no local fallback.
	evenLat, evenLon := encodeCPR(10.46, 0, false)
	oddLat, oddLon := encodeCPR(10.48, 0, true)

	if _, err := d.Decode(Input{Odd: false, EncodedLat: evenLat, EncodedLon: evenLon, Time: 0}, Receiver{}); err != nil {
		t.Fatal(err)
	}
	pos, err := d.Decode(Input{Odd: true, EncodedLat: oddLat, EncodedLon: oddLon, Time: 1}, Receiver{})
	if pos != nil {
		t.Error("a straddled pair must not yield a position")
	}
	if _, ok := err.(*mode_s.PositionStraddleError); !ok {
		t.Errorf("expected *mode_s.PositionStraddleError, got %T (%v)", err, err)
	}

	// The pair is cached: a matching even frame moments later resolves.
	evenLat2, evenLon2 := encodeCPR(10.48, 0, false)
	if _, err := d.Decode(Input{Odd: false, EncodedLat: evenLat2, EncodedLon: evenLon2, Time: 2}, Receiver{}); err != nil {
		t.Errorf("a consistent later pair should decode cleanly, got %v", err)
	}
}
