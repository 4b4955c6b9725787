package relay

import (
	"context"
	"fmt"

	"beacon-hq/ferry/pkg/endpoint"
	"beacon-hq/ferry/pkg/history"
)

// EndpointProbe is the initial reachability result for one endpoint of a
// freshly applied generation.
type EndpointProbe struct {
	Name      string `json:"name"`
	Order     int    `json:"order"`
	Reachable bool   `json:"reachable"`
	RTTMillis int64  `json:"rtt_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReconfigureResult reports the outcome of a successful reconfiguration.
type ReconfigureResult struct {
	Generation int64           `json:"generation"`
	Endpoints  []EndpointProbe `json:"endpoints"`
}

// Reconfigure atomically replaces the endpoint set.
//
// The new generation is built and probed before anything visible changes;
// if the definitions yield no usable targets, the active generation stays
// untouched and requests keep flowing against it. On success the pointer is
// swapped, probers are restarted against the new generation, and sessions
// already in flight finish on the generation they started with.
//
// Unreachable endpoints do not fail the reconfiguration; they are reported
// in the result and begin life healthy, to be banned by real traffic or
// skipped once probes confirm the failure.
func (r *Relay) Reconfigure(ctx context.Context, defs []endpoint.Definition) (*ReconfigureResult, error) {
	// Concurrent reconfigurations (config watcher vs control surface) are
	// applied strictly one at a time, so generation ids only ever move
	// forward and the last call to finish owns the active set.
	r.reconfigMu.Lock()
	defer r.reconfigMu.Unlock()

	gen, err := r.registry.Build(defs)
	if err != nil {
		return nil, fmt.Errorf("rejecting reconfiguration: %w", err)
	}

	// Probe the new targets before the swap so the result carries real
	// reachability data and speed-first ranking starts warm.
	probes := make([]EndpointProbe, 0, gen.Len())
	for _, t := range gen.Targets() {
		p := EndpointProbe{Name: t.Name, Order: t.Order}
		rtt, err := r.pinger.Ping(ctx, t)
		if err != nil {
			p.Error = err.Error()
			if r.metrics != nil {
				r.metrics.RecordProbe("health", false)
			}
		} else {
			p.Reachable = true
			p.RTTMillis = rtt.Milliseconds()
			gen.Sampler().Record(t.Index, rtt)
			if r.metrics != nil {
				r.metrics.RecordProbe("health", true)
			}
		}
		probes = append(probes, p)
	}

	r.mu.Lock()
	old := r.gen.Load()
	r.stopProbers()
	r.gen.Store(gen)
	if r.running {
		r.startProbers(context.WithoutCancel(ctx), gen)
	}
	r.mu.Unlock()

	r.publishHealth(gen)
	if r.metrics != nil {
		r.metrics.RecordReconfiguration(gen.ID())
	}
	r.logger.Info("endpoint set reconfigured",
		"old_generation", old.ID(),
		"new_generation", gen.ID(),
		"endpoints", gen.Len(),
	)
	r.recordEvent(history.Event{
		Type:       history.EventReconfigure,
		Generation: gen.ID(),
		Detail:     fmt.Sprintf("%d endpoints replaced generation %d", gen.Len(), old.ID()),
	})

	return &ReconfigureResult{Generation: gen.ID(), Endpoints: probes}, nil
}
