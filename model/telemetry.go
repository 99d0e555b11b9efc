package model

// Status classifies a sample's signal quality against the configured
// SNR threshold.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDegraded Status = "DEGRADED"
)

// TrackedObject identifies one satellite from the startup catalog.
// The set of tracked objects is fixed for the process lifetime; the TLE
// handle that drives propagation lives with the catalog entry, not here.
type TrackedObject struct {
	ID   uint32 // catalog (NORAD) number
	Name string
}

// GeoPoint is a geodetic (latitude, longitude) pair in degrees, as stored
// in an object's ghost trace.
type GeoPoint struct {
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
}

// GroundStation is the fixed reference location that range and range-rate
// are measured against.
type GroundStation struct {
	Name   string
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// TelemetrySample is one observation of one object in one sampling cycle.
// Samples are immutable after the Harvester assembles them and are consumed
// exactly once by the StorageMultiplexer.
type TelemetrySample struct {
	ObjectID   uint32  `json:"id"`
	Name       string  `json:"name"`
	LatDeg     float64 `json:"lat"`
	LonDeg     float64 `json:"lon"`
	AltKm      float64 `json:"alt"`
	RangeKm    float64 `json:"range_km"`
	DopplerGHz float64 `json:"doppler_ghz"`
	PathLossDB float64 `json:"path_loss_db"`
	SNRdB      float64 `json:"snr_db"`
	Status     Status  `json:"status"`
	// Timestamp is seconds since the Unix epoch, fractional.
	Timestamp float64 `json:"timestamp"`
}
