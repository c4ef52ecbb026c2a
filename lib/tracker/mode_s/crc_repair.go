package mode_s

import "github.com/jetwatch/modes/lib/crc"

// RepairMode selects how aggressively ParseWithRepair tries to recover a
// corrupted extended squitter before giving up. Parse never repairs
// implicitly; this is an opt-in extra step callers take instead of Parse.
type RepairMode int

const (
	// RepairNone performs no correction; identical to plain Parse.
	RepairNone RepairMode = iota
	// RepairSingleBit retries with every single-bit flip until CRC closes.
	// Safe to enable broadly; DF17/18 are the only formats where a clean
	// CRC match is meaningful corroboration.
	RepairSingleBit
	// RepairTwoBit additionally retries every pair of bit flips. O(bits^2)
	// per frame; only worth enabling for DF17 in a low-volume aggressive
	// mode.
	RepairTwoBit
)

// ParseWithRepair behaves like Parse, but for DF17/18 frames whose CRC
// does not close, attempts bit-error correction per mode before giving up.
// A successful repair mutates a copy of raw in place and re-parses it.
func ParseWithRepair(raw []byte, noCRC bool, mode RepairMode) (*Frame, error) {
	f, err := Parse(raw, noCRC)
	if err != nil {
		return nil, err
	}
	if mode == RepairNone || noCRC {
		return f, nil
	}
	if f.downlinkFormat != 17 && f.downlinkFormat != 18 {
		return f, nil
	}
	if f.CheckParity() {
		return f, nil
	}

	fixed := append([]byte(nil), raw...)
	if crc.FixSingleBitError(fixed) >= 0 {
		return Parse(fixed, noCRC)
	}
	if mode == RepairTwoBit {
		fixed = append([]byte(nil), raw...)
		if a, _ := crc.FixTwoBitErrors(fixed); a >= 0 {
			return Parse(fixed, noCRC)
		}
	}
	return f, nil
}
