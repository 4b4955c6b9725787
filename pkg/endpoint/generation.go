package endpoint

import "sync/atomic"

// Generation is one complete, atomically-swappable unit of Targets and their
// runtime state. Targets and state are created together and discarded
// together: a request never sees targets from one generation paired with
// state from another.
//
// The polling cursor lives on the generation so round-robin position is
// shared across all requests of the current generation and resets naturally
// on reconfiguration.
type Generation struct {
	id      int64
	targets []*Target
	states  []*State
	sampler *Sampler
	cursor  atomic.Uint64
}

// ID returns the generation's monotonically increasing identifier.
func (g *Generation) ID() int64 {
	return g.id
}

// Targets returns the generation's targets in priority order.
// The returned slice must not be modified.
func (g *Generation) Targets() []*Target {
	return g.targets
}

// Len returns the number of targets, which also bounds the attempt count of
// a proxy session.
func (g *Generation) Len() int {
	return len(g.targets)
}

// State returns the runtime health record for the target at index i.
func (g *Generation) State(i int) *State {
	return g.states[i]
}

// Sampler returns the generation's latency sampler.
func (g *Generation) Sampler() *Sampler {
	return g.sampler
}

// NextCursor advances the shared round-robin cursor and returns its previous
// value. The polling strategy maps it onto the target list modulo Len.
func (g *Generation) NextCursor() uint64 {
	return g.cursor.Add(1) - 1
}
