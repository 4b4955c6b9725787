package probe

import (
	"context"
	"log/slog"
	"time"

	"beacon-hq/ferry/pkg/endpoint"
)

// HealthProber periodically probes currently-banned endpoints of one
// generation and lifts bans early when a probe succeeds. Healthy endpoints
// are never probed; live traffic already reports on them, and probing them
// would cost upstream quota for nothing.
//
// A prober is bound to a single generation. Reconfiguration cancels the old
// prober's context and starts a fresh prober against the new generation, so
// a swapped-out generation is never probed again.
type HealthProber struct {
	gen      *endpoint.Generation
	pinger   *Pinger
	interval time.Duration
	logger   *slog.Logger

	// OnRecover, if set, is invoked after an early recovery with the
	// recovered target. The relay uses it for history and metrics.
	OnRecover func(t *endpoint.Target)
}

// NewHealthProber creates a health prober for gen.
func NewHealthProber(gen *endpoint.Generation, pinger *Pinger, interval time.Duration, logger *slog.Logger) *HealthProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthProber{
		gen:      gen,
		pinger:   pinger,
		interval: interval,
		logger:   logger.With("component", "probe.health", "generation", gen.ID()),
	}
}

// Run executes probe rounds every interval until ctx is cancelled. The
// in-flight round finishes before Run returns; individual probes carry the
// pinger's own timeout, so that wait is bounded.
func (p *HealthProber) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("health prober started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("health prober stopped")
			return
		case <-ticker.C:
			p.probeBanned(ctx)
		}
	}
}

// probeBanned probes every currently-banned endpoint once. A success
// recovers the endpoint immediately; a failure is absorbed and the ban
// simply runs to its natural expiry.
func (p *HealthProber) probeBanned(ctx context.Context) {
	for _, t := range p.gen.Targets() {
		if ctx.Err() != nil {
			return
		}
		state := p.gen.State(t.Index)
		if state.Healthy() {
			continue
		}

		rtt, err := p.pinger.Ping(ctx, t)
		if err != nil {
			p.logger.Debug("probe failed, ban continues",
				"endpoint", t.Name,
				"error", err,
			)
			continue
		}

		state.RecordSuccess()
		p.logger.Info("endpoint recovered early via probe",
			"endpoint", t.Name,
			"rtt_ms", rtt.Milliseconds(),
		)
		if p.OnRecover != nil {
			p.OnRecover(t)
		}
	}
}
