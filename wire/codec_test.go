package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/telemetry-harvester/model"
)

func TestEncodeSize(t *testing.T) {
	b := Encode(model.TelemetrySample{ObjectID: 25544})
	if len(b) != PacketSize {
		t.Fatalf("encoded size = %d, want %d", len(b), PacketSize)
	}
}

func TestRoundTrip(t *testing.T) {
	s := model.TelemetrySample{
		ObjectID:   25544,
		LatDeg:     12.42,
		LonDeg:     144.12,
		AltKm:      410.0,
		DopplerGHz: 1.801e-4,
		Timestamp:  1700000123.456,
	}

	rec, err := Decode(Encode(s))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if rec.ObjectID != s.ObjectID {
		t.Errorf("ObjectID = %d, want %d", rec.ObjectID, s.ObjectID)
	}
	if rec.Timestamp != s.Timestamp {
		t.Errorf("Timestamp = %v, want %v (must survive exactly)", rec.Timestamp, s.Timestamp)
	}

	// Float fields survive within float32 rounding only.
	checkF32 := func(name string, got float32, want float64) {
		t.Helper()
		if float32(want) != got {
			t.Errorf("%s = %v, want float32(%v) = %v", name, got, want, float32(want))
		}
		if math.Abs(float64(got)-want) > math.Abs(want)*1e-6+1e-9 {
			t.Errorf("%s = %v drifted past float32 tolerance from %v", name, got, want)
		}
	}
	checkF32("LatDeg", rec.LatDeg, s.LatDeg)
	checkF32("LonDeg", rec.LonDeg, s.LonDeg)
	checkF32("AltKm", rec.AltKm, s.AltKm)
	checkF32("DopplerGHz", rec.DopplerGHz, s.DopplerGHz)
}

func TestDecodeWrongLength(t *testing.T) {
	for _, n := range []int{0, 27, 29, 56} {
		if _, err := Decode(make([]byte, n)); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("Decode(%d bytes) err = %v, want ErrMalformedRecord", n, err)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := ReadHeader(&buf); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	if err := ReadHeader(bytes.NewBufferString("NOT-A-LOG")); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
