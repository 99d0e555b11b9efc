package core

import (
	"math"
	"testing"
)

func TestGeodeticToECEFEquator(t *testing.T) {
	p := GeodeticToECEF(0, 0, 0)
	if math.Abs(p.X-EarthRadiusKm) > 1e-9 || math.Abs(p.Y) > 1e-9 || math.Abs(p.Z) > 1e-9 {
		t.Fatalf("equator/prime-meridian point = %+v, want (%v, 0, 0)", p, EarthRadiusKm)
	}
}

func TestGeodeticToECEFPole(t *testing.T) {
	p := GeodeticToECEF(90, 0, 0)
	if math.Abs(p.Z-EarthRadiusKm) > 1e-6 {
		t.Fatalf("north pole Z = %v, want %v", p.Z, EarthRadiusKm)
	}
}

func TestGeodeticToECEFAltitude(t *testing.T) {
	p := GeodeticToECEF(45.523062, -122.676482, 0.1)
	if got := p.Norm(); math.Abs(got-(EarthRadiusKm+0.1)) > 1e-6 {
		t.Fatalf("norm = %v, want %v", got, EarthRadiusKm+0.1)
	}
}

func TestDistanceTo(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	if got := a.DistanceTo(b); got != 5 {
		t.Fatalf("distance = %v, want 5", got)
	}
}
