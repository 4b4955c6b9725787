package routing

import "beacon-hq/ferry/pkg/endpoint"

// Polling distributes load round-robin across healthy endpoints. The cursor
// is shared across all requests of the current generation (it lives on the
// generation), so consecutive requests walk the endpoint list evenly and
// position survives between requests. Banned or already-tried endpoints are
// skipped by scanning forward from the cursor position.
type Polling struct{}

// NewPolling creates a polling strategy.
func NewPolling() *Polling {
	return &Polling{}
}

// Select advances the shared cursor one step and returns the first healthy
// untried target scanning forward from it, wrapping modulo the endpoint
// count.
func (p *Polling) Select(gen *endpoint.Generation, tried []bool) (*endpoint.Target, error) {
	n := gen.Len()
	if n == 0 {
		return nil, ErrNoCandidates
	}

	start := gen.NextCursor()
	for off := 0; off < n; off++ {
		idx := int((start + uint64(off)) % uint64(n))
		if tried[idx] {
			continue
		}
		if gen.State(idx).Healthy() {
			return gen.Targets()[idx], nil
		}
	}
	return nil, ErrNoCandidates
}

// Name returns the strategy name.
func (p *Polling) Name() string {
	return NamePolling
}
