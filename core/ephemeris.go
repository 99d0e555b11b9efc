package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/telemetry-harvester/catalog"
	"github.com/signalsfoundry/telemetry-harvester/model"
)

// Observation is one ephemeris answer: where an object is at an instant and
// how it moves relative to the ground station.
type Observation struct {
	LatDeg       float64
	LonDeg       float64
	AltKm        float64
	RangeKm      float64
	RangeRateKmS float64
}

// Ephemeris resolves a tracked object's geometry at a given time. The
// harvester treats it as an opaque collaborator; per-object failures are
// isolated by the caller.
type Ephemeris interface {
	Observe(id uint32, at time.Time) (Observation, error)
}

// SGP4Ephemeris propagates TLE catalog entries with SGP4 and measures range
// against a fixed ground station.
type SGP4Ephemeris struct {
	station Vec3
	sats    map[uint32]satellite.Satellite
}

// rangeRateStep is the finite-difference step used to estimate range rate.
// Propagating twice and differencing keeps the maths inside go-satellite
// instead of hand-rolling an ECI-to-ECEF velocity transform.
const rangeRateStep = time.Second

// NewSGP4Ephemeris builds propagation state for every catalog entry.
func NewSGP4Ephemeris(entries []catalog.Entry, station model.GroundStation) *SGP4Ephemeris {
	sats := make(map[uint32]satellite.Satellite, len(entries))
	for _, e := range entries {
		sats[e.Object.ID] = satellite.TLEToSat(e.Line1, e.Line2, satellite.GravityWGS72)
	}
	return &SGP4Ephemeris{
		station: GeodeticToECEF(station.LatDeg, station.LonDeg, station.AltKm),
		sats:    sats,
	}
}

// Observe propagates the object to the requested time.
func (e *SGP4Ephemeris) Observe(id uint32, at time.Time) (Observation, error) {
	sat, ok := e.sats[id]
	if !ok {
		return Observation{}, fmt.Errorf("ephemeris: unknown object %d", id)
	}

	pos, lat, lon, alt, err := propagate(sat, at)
	if err != nil {
		return Observation{}, fmt.Errorf("ephemeris: object %d: %w", id, err)
	}
	later, _, _, _, err := propagate(sat, at.Add(rangeRateStep))
	if err != nil {
		return Observation{}, fmt.Errorf("ephemeris: object %d: %w", id, err)
	}

	rangeKm := pos.DistanceTo(e.station)
	rangeRate := (later.DistanceTo(e.station) - rangeKm) / rangeRateStep.Seconds()

	return Observation{
		LatDeg:       lat,
		LonDeg:       lon,
		AltKm:        alt,
		RangeKm:      rangeKm,
		RangeRateKmS: rangeRate,
	}, nil
}

// propagate runs SGP4 for one instant and converts the result to ECEF plus
// geodetic coordinates.
func propagate(sat satellite.Satellite, at time.Time) (pos Vec3, latDeg, lonDeg, altKm float64, err error) {
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	eci, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	if math.IsNaN(eci.X) || math.IsNaN(eci.Y) || math.IsNaN(eci.Z) {
		return Vec3{}, 0, 0, 0, fmt.Errorf("SGP4 propagation failed at %s", at.Format(time.RFC3339))
	}

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)

	ecef := satellite.ECIToECEF(eci, gmst)
	alt, _, ll := satellite.ECIToLLA(eci, gmst)

	const radToDeg = 180.0 / math.Pi
	lon := math.Mod(ll.Longitude*radToDeg+540, 360) - 180

	return Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}, ll.Latitude * radToDeg, lon, alt, nil
}
