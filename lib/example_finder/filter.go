// Package example_finder filters a frame stream down to the interesting
// ones: specific aircraft, specific downlink formats or specific extended
// squitter type codes. Used by the example-capture tooling to harvest
// real-world frames matching a shape under investigation.
package example_finder

import (
	"bytes"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jetwatch/modes/lib/source"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

type (
	Filter struct {
		listIcaos    []uint32
		listDfType   []byte
		listDfMeType []byte

		log zerolog.Logger
	}
	Option func(*Filter)
)

// WithDownlinkFormatType adds a downlink format to allow, e.g. for ADSB/DF17 - WithDownlinkFormatType(17)
func WithDownlinkFormatType(dfType byte) Option {
	return func(filter *Filter) {
		filter.listDfType = append(filter.listDfType, dfType)
	}
}

// WithDF17MessageType adds an extended squitter type code to allow
func WithDF17MessageType(meType byte) Option {
	return func(filter *Filter) {
		filter.listDfMeType = append(filter.listDfMeType, meType)
	}
}

// WithDF17MessageTypeLocation adds all location type updates
func WithDF17MessageTypeLocation() Option {
	return func(filter *Filter) {
		filter.listDfType = append(filter.listDfType, 17)
		filter.listDfMeType = append(filter.listDfMeType, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 20, 21, 22)
	}
}

// WithPlaneIcao adds a specific plane to allow
func WithPlaneIcao(icao uint32) Option {
	return func(filter *Filter) {
		filter.listIcaos = append(filter.listIcaos, icao)
	}
}

// WithPlaneIcaoStr adds a specific plane to allow, by hex address
func WithPlaneIcaoStr(icaoStr string) Option {
	return func(f *Filter) {
		icao, err := strconv.ParseUint(icaoStr, 16, 32)
		if nil != err {
			f.log.Error().Err(err).Msg("Unable to understand this ICAO")
		} else {
			f.listIcaos = append(f.listIcaos, uint32(icao))
			f.log.Info().Str("ICAO", icaoStr).Msg("With Plane")
		}
	}
}

func NewFilter(opts ...Option) *Filter {
	f := &Filter{}
	f.log = log.With().Str("section", "example-finder").Logger()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) String() string {
	return "Example Finder/Filter"
}

// Handle returns the event's frame when it passes the filter, nil
// otherwise.
func (f *Filter) Handle(fe *source.FrameEvent) *mode_s.Frame {
	if nil == fe || nil == fe.Frame {
		return nil
	}
	frame := fe.Frame

	// if we are filtering for one or more planes, then exclude anything that is not
	if len(f.listIcaos) > 0 {
		found := false
		for _, icao := range f.listIcaos {
			if icao == frame.ICAO24Uint() {
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	if len(f.listDfType) > 0 || len(f.listDfMeType) > 0 {
		if f.IsOk(frame) {
			return frame
		}
		return nil
	}
	return frame
}

// IsOk checks a frame against the DF and type-code allow lists.
func (f *Filter) IsOk(frame *mode_s.Frame) bool {
	if len(f.listDfType) > 0 && !bytes.Contains(f.listDfType, []byte{frame.DownlinkFormat()}) {
		return false
	}
	if len(f.listDfMeType) > 0 {
		if frame.DownlinkFormat() != 17 && frame.DownlinkFormat() != 18 {
			return false
		}
		tc := frame.Payload()[3] >> 3
		if !bytes.Contains(f.listDfMeType, []byte{tc}) {
			return false
		}
	}
	icao := frame.ICAO24()
	f.log.Info().
		Str("AVR", frame.HexMessage()).
		Int("DF", int(frame.DownlinkFormat())).
		Hex("icao", icao[:]).
		Msg("Found Frame")
	return true
}
