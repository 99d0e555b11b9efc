package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/telemetry-harvester/internal/logging"
	"github.com/signalsfoundry/telemetry-harvester/internal/observability"
	"github.com/signalsfoundry/telemetry-harvester/model"
)

// StorageMultiplexerConfig carries the consumer-side parameters.
type StorageMultiplexerConfig struct {
	// PopTimeout bounds how long a pop blocks, so the shutdown state is
	// re-checked at this interval even when the bus is idle.
	PopTimeout time.Duration
	// DegradedSNRdB: samples strictly below it get an anomaly-log line.
	// Zero selects the 20 dB default; a literal 0 dB threshold is reserved.
	DegradedSNRdB float64
}

// StorageMultiplexer drains the bus and fans each sample out to the three
// sinks. The three appends are independent best-effort writes: one sink's
// failure is logged and counted, and the other two are still attempted.
// It is the sole consumer of the bus and the sole writer of all sinks.
type StorageMultiplexer struct {
	bus        *TelemetryBus
	binary     *BinaryLog
	structured *StructuredLog
	anomaly    *AnomalyLog
	cfg        StorageMultiplexerConfig

	log     logging.Logger
	metrics *observability.PipelineCollector
}

// NewStorageMultiplexer wires the consumer. log and metrics may be nil.
func NewStorageMultiplexer(
	bus *TelemetryBus,
	binary *BinaryLog,
	structured *StructuredLog,
	anomaly *AnomalyLog,
	cfg StorageMultiplexerConfig,
	log logging.Logger,
	metrics *observability.PipelineCollector,
) *StorageMultiplexer {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}
	if cfg.DegradedSNRdB == 0 {
		cfg.DegradedSNRdB = 20.0
	}
	if log == nil {
		log = logging.Noop()
	}
	return &StorageMultiplexer{
		bus:        bus,
		binary:     binary,
		structured: structured,
		anomaly:    anomaly,
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
	}
}

// Run consumes until the bus is closed and fully drained, so every sample
// accepted before shutdown is persisted. It never exits on sink errors.
// Cancelling ctx stops the loop only while the bus is still open; once the
// bus is closed the drain runs to completion regardless.
func (m *StorageMultiplexer) Run(ctx context.Context) error {
	m.log.Info(ctx, "storage multiplexer started",
		logging.String("pop_timeout", m.cfg.PopTimeout.String()),
		logging.Float64("degraded_snr_db", m.cfg.DegradedSNRdB),
	)

	for {
		sample, ok := m.bus.Pop(m.cfg.PopTimeout)
		if !ok {
			if m.bus.Drained() {
				m.log.Info(ctx, "storage multiplexer drained, stopping")
				return nil
			}
			if !m.bus.Closed() && ctx.Err() != nil {
				m.log.Warn(ctx, "storage multiplexer cancelled before bus close", logging.Err(ctx.Err()))
				return ctx.Err()
			}
			continue
		}
		m.persist(ctx, sample)
		m.metrics.SetBusDepth(m.bus.Depth())
	}
}

// persist runs the three isolated sink appends for one sample.
func (m *StorageMultiplexer) persist(ctx context.Context, s model.TelemetrySample) {
	if err := m.binary.Append(s); err != nil {
		m.metrics.RecordSinkError("binary")
		m.log.Error(ctx, "binary sink write failed", logging.Uint32("id", s.ObjectID), logging.Err(err))
	} else {
		m.metrics.RecordSinkWrite("binary")
	}

	if err := m.structured.Append(s); err != nil {
		m.metrics.RecordSinkError("structured")
		m.log.Error(ctx, "structured sink write failed", logging.Uint32("id", s.ObjectID), logging.Err(err))
	} else {
		m.metrics.RecordSinkWrite("structured")
	}

	if s.SNRdB < m.cfg.DegradedSNRdB {
		m.metrics.RecordAnomaly()
		if err := m.anomaly.Append(s); err != nil {
			m.metrics.RecordSinkError("anomaly")
			m.log.Error(ctx, "anomaly sink write failed", logging.Uint32("id", s.ObjectID), logging.Err(err))
		} else {
			m.metrics.RecordSinkWrite("anomaly")
		}
	}
}
