// Package timectrl provides the clock abstraction used for sample and log
// timestamps, so tests can pin time deterministically.
package timectrl

import (
	"sync"
	"time"
)

// Clock is the time source injected into the harvester and sinks.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// WallClock reads the system clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now().UTC() }

// ManualClock is a Clock advanced explicitly by tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock constructs a manual clock pinned at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start.UTC()}
}

// Now returns the pinned time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock at t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
