package routing

import "beacon-hq/ferry/pkg/endpoint"

// Fallback selects the first healthy, untried endpoint in priority order.
// It is deterministic: every request favors the lowest-order endpoint that
// is currently selectable, falling down the list only as endpoints are
// banned or exhausted within the session.
type Fallback struct{}

// NewFallback creates a fallback strategy.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Select returns the first healthy untried target in priority order.
func (f *Fallback) Select(gen *endpoint.Generation, tried []bool) (*endpoint.Target, error) {
	for _, t := range gen.Targets() {
		if tried[t.Index] {
			continue
		}
		if gen.State(t.Index).Healthy() {
			return t, nil
		}
	}
	return nil, ErrNoCandidates
}

// Name returns the strategy name.
func (f *Fallback) Name() string {
	return NameFallback
}
