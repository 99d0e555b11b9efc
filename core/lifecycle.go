package core

import (
	"context"
	"sync"
)

// Controller owns the cooperative shutdown signal and coordinates the
// orderly drain of in-flight samples. Neither task is preempted: the
// harvester observes cancellation at cycle boundaries, and the bus is
// closed only after the harvester has returned, so the multiplexer can
// drain everything that was accepted first.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController derives the pipeline's cancellation scope from parent.
func NewController(parent context.Context) *Controller {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Controller{ctx: ctx, cancel: cancel}
}

// Context is the cancellation scope both tasks run under.
func (c *Controller) Context() context.Context { return c.ctx }

// Shutdown requests a cooperative stop. Idempotent.
func (c *Controller) Shutdown() { c.cancel() }

// ShuttingDown reports whether shutdown has been requested.
func (c *Controller) ShuttingDown() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Run drives the two long-lived tasks until shutdown: it starts the
// harvester and the multiplexer, waits for the harvester to observe the
// shutdown signal and return, closes the bus so no producer can slip in a
// late sample, then waits for the multiplexer to finish draining. No sample
// accepted before shutdown is lost.
func (c *Controller) Run(h *Harvester, m *StorageMultiplexer, bus *TelemetryBus) error {
	var wg sync.WaitGroup
	var harvestErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		harvestErr = h.Run(c.ctx)
	}()

	// The multiplexer must keep draining after shutdown is requested; bus
	// closure, not cancellation, is what ends its run.
	muxErr := make(chan error, 1)
	go func() {
		muxErr <- m.Run(context.WithoutCancel(c.ctx))
	}()

	wg.Wait()
	bus.Close()
	drainErr := <-muxErr

	if harvestErr != nil {
		return harvestErr
	}
	return drainErr
}
