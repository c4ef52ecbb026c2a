// Package session implements the process-wide decode registry:
// transponder address -> {ADS-B version, NIC supplements, geo-baro
// offset, position decoder}, specializing each parsed frame and running
// periodic garbage collection.
package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jetwatch/modes/lib/bits"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
	"github.com/jetwatch/modes/lib/tracker/position"
)

// aircraftState is everything the registry remembers about one
// transponder address.
type aircraftState struct {
	adsbVersion      uint8
	nicSupplA        bool
	nicSupplC        bool
	geoMinusBaro     int32
	haveGeoMinusBaro bool
	posDecoder       *position.Decoder
	lastUsedTime     float64
}

const (
	gcMessageThreshold  = 100000
	gcAircraftThreshold = 30000
	gcAgeSeconds        = 3600.0

	// Addresses confirmed by a CRC-clean squitter stay on the allow-list
	// this long; AP-recovered addresses older than that are treated as
	// unverified under strict address checking.
	confirmedAddressTTL = 60 * time.Second
)

// Decoder is the single-threaded session registry. It is NOT safe for
// concurrent mutation; callers needing parallelism must shard by
// transponder address.
type Decoder struct {
	mu              sync.Mutex
	aircraft        map[uint32]*aircraftState
	messageCount    uint64
	latestTimestamp float64

	// confirmedAddresses holds ICAO24s recently seen with a clean CRC on a
	// squitter format (DF11/17/18). Address-parity formats XOR the address
	// into the parity field, so a bit error there silently fabricates a
	// brand-new "aircraft"; checking AP-recovered addresses against this
	// cache keeps those out of the registry.
	confirmedAddresses *cache.Cache
	strictAddressCheck bool
}

// Option configures a session decoder.
type Option func(*Decoder)

// WithStrictAddressCheck makes Decode reject address-parity frames
// (DF 0,4,5,16,20,21,24) whose recovered ICAO24 has not recently been
// confirmed by a CRC-clean DF11/17/18 from the same address.
func WithStrictAddressCheck() Option {
	return func(d *Decoder) { d.strictAddressCheck = true }
}

// New returns an empty session decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		aircraft:           make(map[uint32]*aircraftState),
		confirmedAddresses: cache.New(confirmedAddressTTL, 5*time.Minute),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

var addressParityFormats = map[uint8]bool{
	0: true, 4: true, 5: true, 16: true, 20: true, 21: true, 24: true,
}

// Decode runs DF/TC/subtype dispatch for frame, consulting (and
// updating) the aircraft's tracked ADS-B version and NIC supplements.
func (d *Decoder) Decode(f *mode_s.Frame) (mode_s.Variant, error) {
	// Frames whose DF carries no transponder address decode pure: a
	// zero address must not become a registry entry shared by every
	// unaddressed frame.
	if bits.IsZero24(f.ICAO24()) {
		return mode_s.Decode(f, mode_s.VersionHint{})
	}

	d.mu.Lock()
	df := f.DownlinkFormat()
	addr := f.ICAO24Uint()

	if (df == 11 || df == 17 || df == 18) && (f.NoCRC() || f.CheckParity()) {
		d.confirmedAddresses.SetDefault(addressKey(addr), struct{}{})
	}
	if d.strictAddressCheck && addressParityFormats[df] && !f.NoCRC() {
		if _, ok := d.confirmedAddresses.Get(addressKey(addr)); !ok {
			d.mu.Unlock()
			return nil, mode_s.NewUnverifiedAddress(f.ICAO24())
		}
	}

	st := d.getOrCreate(addr)
	hint := mode_s.VersionHint{
		Version:        st.adsbVersion,
		NICSupplementA: st.nicSupplA,
		NICSupplementC: st.nicSupplC,
	}
	d.mu.Unlock()

	v, err := mode_s.Decode(f, hint)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch m := v.(type) {
	case mode_s.OperationalStatus:
		st.adsbVersion = m.Version
		if !m.Surface {
			st.nicSupplA = m.NICSupplementA
		} else {
			st.nicSupplC = m.NICSupplementC
		}
	case mode_s.VelocityOverGround:
		if m.GeoMinusBaroValid {
			st.geoMinusBaro = m.GeoMinusBaro
			st.haveGeoMinusBaro = true
		}
	}
	return v, nil
}

// DecodePosition routes a position-bearing variant to the aircraft's
// position decoder. tMillis is milliseconds on this public surface;
// conversion to the internal seconds clock happens here.
func (d *Decoder) DecodePosition(tMillis int64, icao [3]byte, in position.Input, recv position.Receiver) (*position.Position, error) {
	d.mu.Lock()
	st := d.getOrCreate(bits.To24(icao))
	pd := st.posDecoder
	tSeconds := float64(tMillis) / 1000.0
	if tSeconds < st.lastUsedTime {
		log.Warn().
			Hex("icao", icao[:]).
			Float64("time", tSeconds).
			Float64("last", st.lastUsedTime).
			Msg("position message out of order")
	}
	in.Time = tSeconds
	st.lastUsedTime = tSeconds
	if tSeconds > d.latestTimestamp {
		d.latestTimestamp = tSeconds
	}
	d.messageCount++
	needGC := d.messageCount > gcMessageThreshold && len(d.aircraft) > gcAircraftThreshold
	d.mu.Unlock()

	pos, err := pd.Decode(in, recv)

	if needGC {
		d.GC()
	}
	return pos, err
}

// GeoMinusBaro returns the latest geometric-minus-barometric altitude
// delta (feet) reported by the aircraft's velocity messages.
func (d *Decoder) GeoMinusBaro(icao [3]byte) (int32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.aircraft[bits.To24(icao)]
	if !ok || !st.haveGeoMinusBaro {
		return 0, false
	}
	return st.geoMinusBaro, true
}

func (d *Decoder) getOrCreate(addr uint32) *aircraftState {
	st, ok := d.aircraft[addr]
	if !ok {
		st = &aircraftState{posDecoder: position.New()}
		d.aircraft[addr] = st
	}
	return st
}

// GC evicts aircraft whose last-used time is older than one hour
// relative to the most recent timestamp observed.
func (d *Decoder) GC() {
	d.mu.Lock()
	defer d.mu.Unlock()
	cutoff := d.latestTimestamp - gcAgeSeconds
	evicted := 0
	for addr, st := range d.aircraft {
		if st.lastUsedTime < cutoff {
			delete(d.aircraft, addr)
			evicted++
		}
	}
	d.messageCount = 0
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Int("remaining", len(d.aircraft)).Msg("session gc")
	}
}

// AircraftCount returns the number of tracked transponder addresses.
func (d *Decoder) AircraftCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.aircraft)
}

func addressKey(addr uint32) string {
	b := bits.From24(addr)
	return string(b[:])
}
