package core

import (
	"sort"
	"sync"

	"github.com/signalsfoundry/telemetry-harvester/model"
)

// GhostVault keeps the bounded rolling position history ("ghost trace") of
// every object the harvester has observed. The harvester is the only
// writer; concurrent readers get snapshot copies, never live slices, so an
// in-progress append cannot be observed torn. Traces live for the process
// lifetime once an object is first seen.
type GhostVault struct {
	mu     sync.RWMutex
	depth  int
	traces map[uint32][]model.GeoPoint
}

// NewGhostVault constructs a vault keeping at most depth points per object.
func NewGhostVault(depth int) *GhostVault {
	if depth <= 0 {
		depth = 50
	}
	return &GhostVault{
		depth:  depth,
		traces: make(map[uint32][]model.GeoPoint),
	}
}

// Append inserts a point at the tail of the object's trace, evicting from
// the head once the trace exceeds the configured depth.
func (v *GhostVault) Append(id uint32, p model.GeoPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()

	trace := append(v.traces[id], p)
	if len(trace) > v.depth {
		copy(trace, trace[1:])
		trace = trace[:v.depth]
	}
	v.traces[id] = trace
}

// Snapshot returns a copy of the object's trace, oldest point first. A nil
// slice means the object has never been observed.
func (v *GhostVault) Snapshot(id uint32) []model.GeoPoint {
	v.mu.RLock()
	defer v.mu.RUnlock()

	trace := v.traces[id]
	if trace == nil {
		return nil
	}
	out := make([]model.GeoPoint, len(trace))
	copy(out, trace)
	return out
}

// Len returns the current trace length for the object.
func (v *GhostVault) Len(id uint32) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.traces[id])
}

// Objects returns the IDs with at least one recorded point, sorted.
func (v *GhostVault) Objects() []uint32 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := make([]uint32, 0, len(v.traces))
	for id := range v.traces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
