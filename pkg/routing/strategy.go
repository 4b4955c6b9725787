package routing

import (
	"fmt"

	"beacon-hq/ferry/pkg/endpoint"
)

// Strategy is the interface all endpoint-selection policies implement.
//
// Implementations must be thread-safe: Select is called concurrently from
// goroutines handling simultaneous requests. Per-request exclusion is
// carried by the tried set, per-generation shared state (the polling
// cursor, the sampler) lives on the generation itself, so strategies hold
// no mutable state of their own.
type Strategy interface {
	// Select picks the next endpoint for one proxy-session attempt from
	// gen's targets, excluding indices already marked in tried.
	// Candidates must be Healthy. Returns ErrNoCandidates when every
	// endpoint is banned or already tried this session.
	Select(gen *endpoint.Generation, tried []bool) (*endpoint.Target, error)

	// Name returns the strategy name for logging and status output.
	Name() string
}

// Strategy names.
const (
	NameFallback   = "fallback"
	NamePolling    = "polling"
	NameSpeedFirst = "speed_first"
)

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	switch name {
	case NameFallback:
		return NewFallback(), nil
	case NamePolling:
		return NewPolling(), nil
	case NameSpeedFirst:
		return NewSpeedFirst(), nil
	default:
		return nil, fmt.Errorf("unknown routing strategy %q", name)
	}
}
