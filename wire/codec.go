// Package wire implements the fixed-layout binary telemetry record and the
// binary log header.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/signalsfoundry/telemetry-harvester/model"
)

// Magic is the ASCII header written once at the start of every binary log.
// Records follow back to back with no delimiters.
const Magic = "SFTLM-V1\n"

// PacketSize is the exact encoded size of one record:
// uint32 id | float32 lat | float32 lon | float32 alt | float32 doppler |
// float64 timestamp, all big-endian.
const PacketSize = 28

// ErrMalformedRecord is returned by Decode when the input is not exactly
// PacketSize bytes. Decode never substitutes zeros for bad input.
var ErrMalformedRecord = errors.New("wire: malformed record")

// Record is the decoded form of a binary packet. Latitude, longitude,
// altitude and doppler are narrowed to float32 on encode; the loss of
// precision (~7 significant digits) is an accepted trade-off of the format.
type Record struct {
	ObjectID   uint32
	LatDeg     float32
	LonDeg     float32
	AltKm      float32
	DopplerGHz float32
	Timestamp  float64
}

// Encode packs a sample into its 28-byte wire form.
func Encode(s model.TelemetrySample) []byte {
	buf := make([]byte, PacketSize)
	binary.BigEndian.PutUint32(buf[0:4], s.ObjectID)
	binary.BigEndian.PutUint32(buf[4:8], math.Float32bits(float32(s.LatDeg)))
	binary.BigEndian.PutUint32(buf[8:12], math.Float32bits(float32(s.LonDeg)))
	binary.BigEndian.PutUint32(buf[12:16], math.Float32bits(float32(s.AltKm)))
	binary.BigEndian.PutUint32(buf[16:20], math.Float32bits(float32(s.DopplerGHz)))
	binary.BigEndian.PutUint64(buf[20:28], math.Float64bits(s.Timestamp))
	return buf
}

// Decode is the inverse of Encode.
func Decode(b []byte) (Record, error) {
	if len(b) != PacketSize {
		return Record{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedRecord, len(b), PacketSize)
	}
	return Record{
		ObjectID:   binary.BigEndian.Uint32(b[0:4]),
		LatDeg:     math.Float32frombits(binary.BigEndian.Uint32(b[4:8])),
		LonDeg:     math.Float32frombits(binary.BigEndian.Uint32(b[8:12])),
		AltKm:      math.Float32frombits(binary.BigEndian.Uint32(b[12:16])),
		DopplerGHz: math.Float32frombits(binary.BigEndian.Uint32(b[16:20])),
		Timestamp:  math.Float64frombits(binary.BigEndian.Uint64(b[20:28])),
	}, nil
}

// WriteHeader writes the magic header to a fresh binary log.
func WriteHeader(w io.Writer) error {
	_, err := io.WriteString(w, Magic)
	return err
}

// ReadHeader consumes and verifies the magic header at the start of a
// binary log.
func ReadHeader(r io.Reader) error {
	buf := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("wire: read header: %w", err)
	}
	if string(buf) != Magic {
		return fmt.Errorf("wire: bad magic %q", buf)
	}
	return nil
}
