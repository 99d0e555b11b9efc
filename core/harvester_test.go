package core

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/telemetry-harvester/model"
	"github.com/signalsfoundry/telemetry-harvester/timectrl"
)

// fakeEphemeris serves canned observations and can fail per object.
type fakeEphemeris struct {
	observations map[uint32]Observation
	failing      map[uint32]bool
}

func (f *fakeEphemeris) Observe(id uint32, at time.Time) (Observation, error) {
	if f.failing[id] {
		return Observation{}, fmt.Errorf("simulated propagation failure for %d", id)
	}
	obs, ok := f.observations[id]
	if !ok {
		return Observation{}, fmt.Errorf("unknown object %d", id)
	}
	return obs, nil
}

var issObservation = Observation{
	LatDeg:       12.42,
	LonDeg:       144.12,
	AltKm:        410.0,
	RangeKm:      800.0,
	RangeRateKmS: 4.5,
}

func issObjects() []model.TrackedObject {
	return []model.TrackedObject{{ID: 25544, Name: "ISS (ZARYA)"}}
}

func TestHarvesterISSScenario(t *testing.T) {
	eph := &fakeEphemeris{observations: map[uint32]Observation{25544: issObservation}}
	bus := NewTelemetryBus(10)
	vault := NewGhostVault(50)
	clock := timectrl.NewManualClock(time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC))

	h := NewHarvester(issObjects(), eph, bus, vault, HarvesterConfig{
		Interval:    time.Second,
		CarrierGHz:  12.0,
		ActiveSNRdB: 15.0,
	}, clock, nil, nil)

	if err := h.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	s, ok := bus.Pop(time.Second)
	if !ok {
		t.Fatal("no sample produced")
	}

	if s.ObjectID != 25544 || s.Name != "ISS (ZARYA)" {
		t.Errorf("identity = %d %q", s.ObjectID, s.Name)
	}
	if math.Abs(s.DopplerGHz-1.801e-4) > 1e-7 {
		t.Errorf("doppler = %v GHz, want ≈1.801e-4", s.DopplerGHz)
	}
	if math.Abs(s.PathLossDB-172.095) > 0.01 {
		t.Errorf("path loss = %v dB, want ≈172.095", s.PathLossDB)
	}
	if math.Abs(s.SNRdB-13.95) > 0.01 {
		t.Errorf("SNR = %v dB, want ≈13.95", s.SNRdB)
	}
	if s.Status != model.StatusDegraded {
		t.Errorf("status = %v, want DEGRADED", s.Status)
	}
	wantTS := float64(clock.Now().UnixNano()) / 1e9
	if s.Timestamp != wantTS {
		t.Errorf("timestamp = %v, want %v", s.Timestamp, wantTS)
	}

	trace := vault.Snapshot(25544)
	if len(trace) != 1 || trace[0].LatDeg != 12.42 || trace[0].LonDeg != 144.12 {
		t.Errorf("ghost trace = %+v, want one (12.42, 144.12) point", trace)
	}
}

// A zero threshold selects the 15 dB default, not a 0 dB cutoff.
func TestHarvesterZeroThresholdUsesDefault(t *testing.T) {
	eph := &fakeEphemeris{observations: map[uint32]Observation{25544: issObservation}}
	bus := NewTelemetryBus(10)

	h := NewHarvester(issObjects(), eph, bus, NewGhostVault(50), HarvesterConfig{
		Interval:   time.Second,
		CarrierGHz: 12.0,
	}, nil, nil, nil)

	if err := h.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	s, ok := bus.Pop(time.Second)
	if !ok {
		t.Fatal("no sample produced")
	}
	// SNR ≈ 13.95 sits between 0 and 15: only the default threshold
	// classifies it DEGRADED.
	if s.Status != model.StatusDegraded {
		t.Fatalf("status = %v, want DEGRADED under the default 15 dB threshold", s.Status)
	}
}

// One failing object must not abort the cycle for the others.
func TestHarvesterIsolatesObjectFailures(t *testing.T) {
	objects := []model.TrackedObject{
		{ID: 1, Name: "GOOD-1"},
		{ID: 2, Name: "BAD"},
		{ID: 3, Name: "GOOD-2"},
	}
	eph := &fakeEphemeris{
		observations: map[uint32]Observation{
			1: issObservation,
			3: issObservation,
		},
		failing: map[uint32]bool{2: true},
	}
	bus := NewTelemetryBus(10)
	vault := NewGhostVault(50)

	h := NewHarvester(objects, eph, bus, vault, HarvesterConfig{
		Interval:   time.Second,
		CarrierGHz: 12.0,
	}, nil, nil, nil)

	if err := h.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if got := bus.Depth(); got != 2 {
		t.Fatalf("bus depth = %d, want 2 (bad object skipped)", got)
	}
	first, _ := bus.Pop(time.Second)
	second, _ := bus.Pop(time.Second)
	if first.ObjectID != 1 || second.ObjectID != 3 {
		t.Fatalf("cycle order = %d, %d; want 1, 3", first.ObjectID, second.ObjectID)
	}
	if vault.Len(2) != 0 {
		t.Fatal("failed object must not gain a ghost point")
	}
}

func TestHarvesterRunStopsOnCancel(t *testing.T) {
	eph := &fakeEphemeris{observations: map[uint32]Observation{25544: issObservation}}
	bus := NewTelemetryBus(100)

	h := NewHarvester(issObjects(), eph, bus, NewGhostVault(50), HarvesterConfig{
		Interval:   5 * time.Millisecond,
		CarrierGHz: 12.0,
	}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on cooperative stop", err)
		}
	case <-time.After(time.Second):
		t.Fatal("harvester did not stop after cancellation")
	}
	if bus.Depth() == 0 {
		t.Fatal("harvester produced no samples before stopping")
	}
}

// Samples from a single object are enqueued in production order.
func TestHarvesterPerObjectOrdering(t *testing.T) {
	eph := &fakeEphemeris{observations: map[uint32]Observation{25544: issObservation}}
	bus := NewTelemetryBus(100)
	clock := timectrl.NewManualClock(time.Unix(1_700_000_000, 0))

	h := NewHarvester(issObjects(), eph, bus, NewGhostVault(50), HarvesterConfig{
		Interval:   time.Second,
		CarrierGHz: 12.0,
	}, clock, nil, nil)

	for i := 0; i < 3; i++ {
		if err := h.cycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		clock.Advance(2 * time.Second)
	}

	var last float64
	for i := 0; i < 3; i++ {
		s, ok := bus.Pop(time.Second)
		if !ok {
			t.Fatalf("missing sample %d", i)
		}
		if s.Timestamp <= last && i > 0 {
			t.Fatalf("timestamps out of order: %v after %v", s.Timestamp, last)
		}
		last = s.Timestamp
	}
}
