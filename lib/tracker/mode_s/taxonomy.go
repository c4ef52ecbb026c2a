package mode_s

// Variant is the tagged union of semantic message types a Frame can
// decode into. Each concrete type below implements Variant by way of its
// TypeName method; callers type-switch on the concrete type to reach
// bit-exact fields.
type Variant interface {
	TypeName() string
	ICAO24() [3]byte
}

type base struct {
	icao24 [3]byte
}

// ICAO24 returns the transponder address carried by the owning frame.
func (b base) ICAO24() [3]byte { return b.icao24 }

// Identification is TC 1-4: emitter category plus an 8 character callsign.
type Identification struct {
	base
	TypeCode       uint8
	EmitterCategory uint8
	Callsign        string
}

func (Identification) TypeName() string { return "Identification" }

// AirbornePosition is TC 9-18,20-22.
type AirbornePosition struct {
	base
	Version      uint8
	TypeCode     uint8
	SurveillanceStatus uint8
	NICSupplementB bool
	NIC            uint8
	HPLMeters      float64
	AltitudeFeet   int32
	AltitudeValid  bool
	TimeSync       bool
	OddFormat      bool
	EncodedLat     uint32
	EncodedLon     uint32
}

func (AirbornePosition) TypeName() string { return "AirbornePosition" }

// SurfacePosition is TC 5-8.
type SurfacePosition struct {
	base
	Version       uint8
	TypeCode      uint8
	MovementCode  uint8
	NICSupplementC bool
	GroundSpeedKnots float64
	GroundSpeedValid bool
	HeadingValid  bool
	HeadingDegrees float64
	OddFormat     bool
	TimeSync      bool
	EncodedLat    uint32
	EncodedLon    uint32
}

func (SurfacePosition) TypeName() string { return "SurfacePosition" }

// VelocityOverGround is TC 19 subtype 1/2.
type VelocityOverGround struct {
	base
	Subtype      uint8
	Supersonic   bool
	EastVelocity int32
	EastIsWest   bool
	NorthVelocity int32
	NorthIsSouth  bool
	SpeedKnots    float64
	HeadingDegrees float64
	HeadingValid   bool
	VerticalRateFpm int32
	VerticalRateValid bool
	VerticalRateSource string
	GeoMinusBaro    int32
	GeoMinusBaroValid bool
}

func (VelocityOverGround) TypeName() string { return "VelocityOverGround" }

// AirspeedHeading is TC 19 subtype 3/4.
type AirspeedHeading struct {
	base
	Subtype        uint8
	Supersonic     bool
	HeadingValid   bool
	HeadingDegrees float64
	AirspeedType   string
	AirspeedKnots  float64
	AirspeedValid  bool
	VerticalRateFpm int32
	VerticalRateValid bool
	GeoMinusBaro    int32
	GeoMinusBaroValid bool
}

func (AirspeedHeading) TypeName() string { return "AirspeedHeading" }

// EmergencyOrPriorityStatus is TC 28 subtype 1.
type EmergencyOrPriorityStatus struct {
	base
	EmergencyState uint8
	Squawk         uint16
}

func (EmergencyOrPriorityStatus) TypeName() string { return "EmergencyOrPriorityStatus" }

// TCASResolutionAdvisory is TC 28 subtype 2.
type TCASResolutionAdvisory struct {
	base
	ActiveRA       uint16
	RATerminated   uint8
	MultipleThreats bool
	ThreatType     uint8
	ThreatICAO     [3]byte
}

func (TCASResolutionAdvisory) TypeName() string { return "TCASResolutionAdvisory" }

// TargetStateAndStatus is TC 29 subtype 1.
type TargetStateAndStatus struct {
	base
	SelectedAltitudeIsFMS bool
	SelectedAltitudeFeet int32
	SelectedAltitudeValid bool
	BarometricMbar       float64
	BarometricValid      bool
	SelectedHeadingDegrees float64
	SelectedHeadingValid   bool
	Mode                 struct {
		Autopilot, VNAV, AltitudeHold, ApproachMode, TCASOperational, LNAV bool
	}
}

func (TargetStateAndStatus) TypeName() string { return "TargetStateAndStatus" }

// OperationalStatus is TC 31; fields populated depend on Surface.
type OperationalStatus struct {
	base
	Surface       bool
	Version       uint8
	CapabilityClass uint16
	OperationalMode uint16
	NICSupplementA  bool
	NACp            uint8
	GeometricVerticalAccuracyMeters float64
	SIL             uint8
	SILSupplement   uint8
	BarometricAltitudeIntegrity bool
	HorizontalReferenceIsTrue   bool
	// surface-only
	LengthMeters  float64
	WidthMeters   float64
	GPSAntennaOffsetValid bool
	NACv          uint8
	NICSupplementC bool
}

func (OperationalStatus) TypeName() string { return "OperationalStatus" }

// ShortACAS is DF 0.
type ShortACAS struct {
	base
	VerticalStatusAirborne bool
	CrossLinkCapable       bool
	SensitivityLevel       uint8
	ReplyInformation       uint8
	AltitudeFeet           int32
	AltitudeValid          bool
}

func (ShortACAS) TypeName() string { return "ShortACAS" }

// AltitudeReply is DF 4.
type AltitudeReply struct {
	base
	FlightStatus uint8
	DownlinkRequest uint8
	UtilityMessage uint8
	AltitudeFeet int32
	AltitudeValid bool
}

func (AltitudeReply) TypeName() string { return "AltitudeReply" }

// IdentifyReply is DF 5.
type IdentifyReply struct {
	base
	FlightStatus uint8
	DownlinkRequest uint8
	UtilityMessage uint8
	Squawk       uint16
}

func (IdentifyReply) TypeName() string { return "IdentifyReply" }

// AllCallReply is DF 11.
type AllCallReply struct {
	base
	Capability uint8
}

func (AllCallReply) TypeName() string { return "AllCallReply" }

// LongACAS is DF 16.
type LongACAS struct {
	base
	VerticalStatusAirborne bool
	CrossLinkCapable       bool
	SensitivityLevel       uint8
	ReplyInformation       uint8
	AltitudeFeet           int32
	AltitudeValid          bool
	MV                     [7]byte
	ValidRAC               bool
}

func (LongACAS) TypeName() string { return "LongACAS" }

// CommBAltitudeReply is DF 20.
type CommBAltitudeReply struct {
	base
	FlightStatus uint8
	AltitudeFeet int32
	AltitudeValid bool
	MB           [7]byte
}

func (CommBAltitudeReply) TypeName() string { return "CommBAltitudeReply" }

// CommBIdentifyReply is DF 21.
type CommBIdentifyReply struct {
	base
	FlightStatus uint8
	Squawk       uint16
	MB           [7]byte
}

func (CommBIdentifyReply) TypeName() string { return "CommBIdentifyReply" }

// CommDExtendedLengthMsg is DF 24 and above (Comm-D).
type CommDExtendedLengthMsg struct {
	base
	KE   uint8
	ND   uint8
	MD   [10]byte
}

func (CommDExtendedLengthMsg) TypeName() string { return "CommDExtendedLengthMsg" }

// MilitaryExtendedSquitter is DF 19 with a non-zero application field.
type MilitaryExtendedSquitter struct {
	base
	ApplicationField uint8
	Payload          []byte
}

func (MilitaryExtendedSquitter) TypeName() string { return "MilitaryExtendedSquitter" }

// OpaquePassthrough covers ADS-R / TIS-B / TIS-B-ADS-R-management (DF18
// CF values the dispatch table marks opaque) and unrecognised extended
// squitter type codes: the payload is retained verbatim for callers that
// want to re-emit or log it, with no semantic decode attempted.
type OpaquePassthrough struct {
	base
	Reason  string
	Payload []byte
}

func (OpaquePassthrough) TypeName() string { return "OpaquePassthrough" }

// Altitude returns the barometric altitude in feet, or a
// MissingInformationError when the frame's altitude field was empty.
// Callers that prefer flag-checking can read AltitudeFeet/AltitudeValid
// directly.
func (v AirbornePosition) Altitude() (int32, error) {
	if !v.AltitudeValid {
		return 0, newMissingInformation("airborne position altitude")
	}
	return v.AltitudeFeet, nil
}

// GroundSpeed returns the surface ground speed in knots, or a
// MissingInformationError when the movement field carried no
// information.
func (v SurfacePosition) GroundSpeed() (float64, error) {
	if !v.GroundSpeedValid {
		return 0, newMissingInformation("surface position ground speed")
	}
	return v.GroundSpeedKnots, nil
}
