package mode_s

import "fmt"

// BadFormatError is raised when a frame or ME field violates an invariant:
// wrong length, wrong type code for a claimed subtype, non-zero reserved
// bits. It is raised at parse time and is not retried.
type BadFormatError struct {
	Reason   string
	Original []byte
}

func (e *BadFormatError) Error() string {
	if len(e.Original) == 0 {
		return fmt.Sprintf("bad format: %s", e.Reason)
	}
	return fmt.Sprintf("bad format: %s (%X)", e.Reason, e.Original)
}

func newBadFormat(reason string, original []byte) error {
	return &BadFormatError{Reason: reason, Original: original}
}

// UnspecifiedFormatError is raised for a reserved subtype that the
// specification does not assign semantics to (e.g. operational status
// subtype >= 2). The raw frame should be retained by the caller for
// diagnostics.
type UnspecifiedFormatError struct {
	Reason string
}

func (e *UnspecifiedFormatError) Error() string {
	return fmt.Sprintf("unspecified format: %s", e.Reason)
}

func newUnspecifiedFormat(reason string) error {
	return &UnspecifiedFormatError{Reason: reason}
}

// MissingInformationError is raised when a getter is called on a field
// whose availability flag is false. Callers are expected to check
// availability predicates first; this is the exceptional path.
type MissingInformationError struct {
	Field string
}

func (e *MissingInformationError) Error() string {
	return fmt.Sprintf("missing information: %s", e.Field)
}

func newMissingInformation(field string) error {
	return &MissingInformationError{Field: field}
}

// PositionStraddleError indicates that global CPR decoding could not
// complete because the even/odd pair spans a latitude at which NL changes.
// Recoverable: the caller should wait for a later pair.
type PositionStraddleError struct {
	Reason string
}

func (e *PositionStraddleError) Error() string {
	return fmt.Sprintf("position straddle: %s", e.Reason)
}

// NewPositionStraddle builds a PositionStraddleError; the position
// decoder uses it to translate a straddled even/odd pair into the
// public error surface.
func NewPositionStraddle(reason string) error {
	return &PositionStraddleError{Reason: reason}
}

// UnverifiedAddressError is returned by strict session decoding when an
// address-parity frame's recovered ICAO24 has not recently been confirmed
// by a CRC-clean squitter. A single flipped bit in an AP frame's parity
// field fabricates a plausible-looking address, so unverified ones are
// not trusted.
type UnverifiedAddressError struct {
	ICAO24 [3]byte
}

func (e *UnverifiedAddressError) Error() string {
	return fmt.Sprintf("unverified address: %X not recently confirmed by a clean squitter", e.ICAO24)
}

// NewUnverifiedAddress builds an UnverifiedAddressError for addr.
func NewUnverifiedAddress(addr [3]byte) error {
	return &UnverifiedAddressError{ICAO24: addr}
}
