package relay

import "time"

// EndpointStatus is the reported state of one endpoint in a status snapshot.
type EndpointStatus struct {
	Name           string     `json:"name"`
	BaseURL        string     `json:"base_url"`
	Order          int        `json:"order"`
	Model          string     `json:"model,omitempty"`
	Healthy        bool       `json:"healthy"`
	BannedUntil    *time.Time `json:"banned_until,omitempty"`
	Failures       int        `json:"consecutive_failures,omitempty"`
	LastFailure    string     `json:"last_failure,omitempty"`
	AvgLatencyMS   int64      `json:"avg_latency_ms,omitempty"`
	LatencySamples int        `json:"latency_samples"`
}

// Snapshot is a point-in-time view of the relay for the status endpoint.
type Snapshot struct {
	Generation int64            `json:"generation"`
	Strategy   string           `json:"strategy"`
	Endpoints  []EndpointStatus `json:"endpoints"`
}

// Snapshot reports the active generation and per-endpoint health without
// disturbing routing. Credentials are never included.
func (r *Relay) Snapshot() Snapshot {
	gen := r.gen.Load()

	endpoints := make([]EndpointStatus, 0, gen.Len())
	for _, t := range gen.Targets() {
		state := gen.State(t.Index).Snapshot()
		es := EndpointStatus{
			Name:           t.Name,
			BaseURL:        t.BaseURL.String(),
			Order:          t.Order,
			Model:          t.Model,
			Healthy:        !state.Banned,
			Failures:       state.ConsecutiveFailures,
			LastFailure:    state.LastFailure,
			LatencySamples: gen.Sampler().Count(t.Index),
		}
		if state.Banned {
			until := state.BannedUntil
			es.BannedUntil = &until
		}
		if avg, ok := gen.Sampler().Average(t.Index); ok {
			es.AvgLatencyMS = avg.Milliseconds()
		}
		endpoints = append(endpoints, es)
	}

	return Snapshot{
		Generation: gen.ID(),
		Strategy:   r.strategy.Name(),
		Endpoints:  endpoints,
	}
}
