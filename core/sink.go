package core

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/signalsfoundry/telemetry-harvester/model"
	"github.com/signalsfoundry/telemetry-harvester/timectrl"
	"github.com/signalsfoundry/telemetry-harvester/wire"
)

// The sinks hold their file handles open for the pipeline's lifetime and
// sync after every record, so each accepted sample reaches stable storage
// before the next one is taken. The storage multiplexer is the only writer.

// BinaryLog appends fixed-size wire packets after a one-time magic header.
type BinaryLog struct {
	f *os.File
}

// OpenBinaryLog opens (or creates) the binary log for appending, writing
// the magic header when the file is empty.
func OpenBinaryLog(path string) (*BinaryLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("binary log: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("binary log: stat %q: %w", path, err)
	}
	if info.Size() == 0 {
		if err := wire.WriteHeader(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("binary log: write header: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("binary log: sync header: %w", err)
		}
	}
	return &BinaryLog{f: f}, nil
}

// Append encodes and durably writes one record.
func (l *BinaryLog) Append(s model.TelemetrySample) error {
	if _, err := l.f.Write(wire.Encode(s)); err != nil {
		return fmt.Errorf("binary log: write: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("binary log: sync: %w", err)
	}
	return nil
}

func (l *BinaryLog) Close() error { return l.f.Close() }

// StructuredLog appends one JSON object per line per sample.
type StructuredLog struct {
	f *os.File
}

// OpenStructuredLog opens (or creates) the structured log for appending.
func OpenStructuredLog(path string) (*StructuredLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("structured log: open %q: %w", path, err)
	}
	return &StructuredLog{f: f}, nil
}

// Append durably writes one newline-delimited JSON record.
func (l *StructuredLog) Append(s model.TelemetrySample) error {
	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("structured log: marshal: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("structured log: write: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("structured log: sync: %w", err)
	}
	return nil
}

func (l *StructuredLog) Close() error { return l.f.Close() }

// AnomalyLog records one plain-text line per degraded-signal event.
type AnomalyLog struct {
	f     *os.File
	clock timectrl.Clock
}

// OpenAnomalyLog opens (or creates) the anomaly log for appending. A nil
// clock falls back to the wall clock.
func OpenAnomalyLog(path string, clock timectrl.Clock) (*AnomalyLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("anomaly log: open %q: %w", path, err)
	}
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	return &AnomalyLog{f: f, clock: clock}, nil
}

// Append durably writes one warning line naming the object and its SNR.
func (l *AnomalyLog) Append(s model.TelemetrySample) error {
	line := fmt.Sprintf("[%s] WARN: object %d (%s) signal weak (%.2f dB)\n",
		l.clock.Now().Format(time.RFC3339), s.ObjectID, s.Name, s.SNRdB)
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("anomaly log: write: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("anomaly log: sync: %w", err)
	}
	return nil
}

func (l *AnomalyLog) Close() error { return l.f.Close() }
