package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/telemetry-harvester/catalog"
	"github.com/signalsfoundry/telemetry-harvester/model"
)

var issEntry = catalog.Entry{
	Object: model.TrackedObject{ID: 25544, Name: "ISS (ZARYA)"},
	Line1:  "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
	Line2:  "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760",
}

var testStation = model.GroundStation{Name: "Portland", LatDeg: 45.523062, LonDeg: -122.676482}

func TestSGP4ObserveNearEpoch(t *testing.T) {
	eph := NewSGP4Ephemeris([]catalog.Entry{issEntry}, testStation)

	// Close to the TLE epoch (day 275 of 2021) the propagation is healthy.
	at := time.Date(2021, 10, 2, 14, 11, 0, 0, time.UTC)
	obs, err := eph.Observe(25544, at)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if obs.LatDeg < -90 || obs.LatDeg > 90 {
		t.Errorf("latitude %v out of range", obs.LatDeg)
	}
	if obs.LonDeg < -180 || obs.LonDeg > 180 {
		t.Errorf("longitude %v out of range", obs.LonDeg)
	}
	// ISS orbits at roughly 420 km; allow generous slack for the spherical
	// Earth model.
	if obs.AltKm < 300 || obs.AltKm > 500 {
		t.Errorf("altitude %v km implausible for the ISS", obs.AltKm)
	}
	if obs.RangeKm <= obs.AltKm {
		t.Errorf("range %v km cannot be below altitude %v km for this station", obs.RangeKm, obs.AltKm)
	}
	// LEO radial velocity versus a ground site stays well inside ±8 km/s.
	if math.Abs(obs.RangeRateKmS) > 8 {
		t.Errorf("range rate %v km/s implausible", obs.RangeRateKmS)
	}
}

func TestSGP4ObserveUnknownObject(t *testing.T) {
	eph := NewSGP4Ephemeris([]catalog.Entry{issEntry}, testStation)
	if _, err := eph.Observe(99999, time.Now()); err == nil {
		t.Fatal("expected error for object not in the catalog")
	}
}

func TestSGP4ObserveIsDeterministic(t *testing.T) {
	eph := NewSGP4Ephemeris([]catalog.Entry{issEntry}, testStation)
	at := time.Date(2021, 10, 2, 14, 11, 0, 0, time.UTC)

	a, err := eph.Observe(25544, at)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	b, err := eph.Observe(25544, at)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if a != b {
		t.Fatalf("same instant produced different observations: %+v vs %+v", a, b)
	}
}
