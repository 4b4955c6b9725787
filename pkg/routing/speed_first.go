package routing

import (
	"time"

	"beacon-hq/ferry/pkg/endpoint"
)

// SpeedFirst selects the healthy endpoint with the lowest trusted average
// latency. An endpoint's average is trusted once its in-window sample count
// reaches the sampler's configured minimum; until some endpoint qualifies,
// selection degrades to fallback ordering so cold starts still route by
// priority.
type SpeedFirst struct {
	fallback *Fallback
}

// NewSpeedFirst creates a speed-first strategy.
func NewSpeedFirst() *SpeedFirst {
	return &SpeedFirst{fallback: NewFallback()}
}

// Select returns the healthy untried target with the lowest trusted average
// latency, or falls back to priority ordering when no candidate has a
// trusted sample yet.
func (s *SpeedFirst) Select(gen *endpoint.Generation, tried []bool) (*endpoint.Target, error) {
	sampler := gen.Sampler()

	var best *endpoint.Target
	var bestAvg time.Duration
	for _, t := range gen.Targets() {
		if tried[t.Index] || !gen.State(t.Index).Healthy() {
			continue
		}
		avg, ok := sampler.Average(t.Index)
		if !ok {
			continue
		}
		if best == nil || avg < bestAvg {
			best = t
			bestAvg = avg
		}
	}
	if best != nil {
		return best, nil
	}

	// No trusted ranking yet: behave like fallback.
	return s.fallback.Select(gen, tried)
}

// Name returns the strategy name.
func (s *SpeedFirst) Name() string {
	return NameSpeedFirst
}
