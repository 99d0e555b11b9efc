package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/signalsfoundry/telemetry-harvester/model"
)

// ErrBusClosed is returned by Push once shutdown has begun. Consumers may
// keep draining after close; producers may not add.
var ErrBusClosed = errors.New("telemetry bus: closed")

// TelemetryBus is the bounded FIFO connecting the harvester to the storage
// multiplexer. A full bus blocks the producer; that backpressure throttling
// of the sampling cadence is intentional.
type TelemetryBus struct {
	ch        chan model.TelemetrySample
	done      chan struct{}
	closeOnce sync.Once
}

// NewTelemetryBus constructs a bus holding at most capacity samples.
func NewTelemetryBus(capacity int) *TelemetryBus {
	if capacity <= 0 {
		capacity = 1000
	}
	return &TelemetryBus{
		ch:   make(chan model.TelemetrySample, capacity),
		done: make(chan struct{}),
	}
}

// Push enqueues a sample, blocking while the bus is full. It fails with
// ErrBusClosed once Close has been called, or with the context error if the
// caller is cancelled while blocked.
func (b *TelemetryBus) Push(ctx context.Context, s model.TelemetrySample) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.ch <- s:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop dequeues the next sample, waiting up to timeout. ok is false on
// timeout so the consumer loop can re-check the shutdown signal; an empty
// bus is not an error.
func (b *TelemetryBus) Pop(timeout time.Duration) (s model.TelemetrySample, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s = <-b.ch:
		return s, true
	case <-timer.C:
		return model.TelemetrySample{}, false
	}
}

// Close moves the bus into its closing state: subsequent pushes fail while
// buffered samples remain poppable. Idempotent.
func (b *TelemetryBus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Closed reports whether Close has been called.
func (b *TelemetryBus) Closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Drained reports whether the bus is closed and empty, i.e. the consumer
// has nothing left to persist.
func (b *TelemetryBus) Drained() bool {
	return b.Closed() && len(b.ch) == 0
}

// Depth returns the number of samples currently buffered.
func (b *TelemetryBus) Depth() int { return len(b.ch) }

// Capacity returns the configured bound.
func (b *TelemetryBus) Capacity() int { return cap(b.ch) }
