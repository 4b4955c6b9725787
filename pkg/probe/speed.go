package probe

import (
	"context"
	"log/slog"
	"time"

	"beacon-hq/ferry/pkg/endpoint"
)

// SpeedTester periodically measures round-trip time to each healthy
// endpoint of one generation and feeds the results into the generation's
// latency sampler, so speed-first ranking stays fresh through idle periods
// when no real traffic produces samples.
//
// Like the HealthProber, a tester is bound to a single generation and is
// cancelled and recreated on reconfiguration.
type SpeedTester struct {
	gen      *endpoint.Generation
	pinger   *Pinger
	interval time.Duration
	logger   *slog.Logger

	// OnSample, if set, is invoked for each successful measurement.
	OnSample func(t *endpoint.Target, rtt time.Duration)
}

// SpeedResult is the outcome of measuring one endpoint.
type SpeedResult struct {
	Target *endpoint.Target
	RTT    time.Duration
	Err    error
}

// NewSpeedTester creates a speed tester for gen.
func NewSpeedTester(gen *endpoint.Generation, pinger *Pinger, interval time.Duration, logger *slog.Logger) *SpeedTester {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeedTester{
		gen:      gen,
		pinger:   pinger,
		interval: interval,
		logger:   logger.With("component", "probe.speed", "generation", gen.ID()),
	}
}

// Run executes measurement rounds every interval until ctx is cancelled.
func (s *SpeedTester) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("speed tester started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("speed tester stopped")
			return
		case <-ticker.C:
			s.TestAll(ctx)
		}
	}
}

// TestAll measures every healthy endpoint once, records successful
// round-trips in the sampler, and returns the per-endpoint results. It is
// also called directly during reconfiguration to seed the new generation's
// ranking. Failed measurements are absorbed; they never ban an endpoint.
func (s *SpeedTester) TestAll(ctx context.Context) []SpeedResult {
	// Aged samples from idle endpoints go first, so the ranking never
	// mixes eras.
	s.gen.Sampler().Sweep()

	results := make([]SpeedResult, 0, s.gen.Len())
	for _, t := range s.gen.Targets() {
		if ctx.Err() != nil {
			return results
		}
		if !s.gen.State(t.Index).Healthy() {
			continue
		}

		rtt, err := s.pinger.Ping(ctx, t)
		if err != nil {
			s.logger.Debug("speed test failed",
				"endpoint", t.Name,
				"error", err,
			)
			results = append(results, SpeedResult{Target: t, Err: err})
			continue
		}

		s.gen.Sampler().Record(t.Index, rtt)
		if s.OnSample != nil {
			s.OnSample(t, rtt)
		}
		s.logger.Debug("speed test sample recorded",
			"endpoint", t.Name,
			"rtt_ms", rtt.Milliseconds(),
		)
		results = append(results, SpeedResult{Target: t, RTT: rtt})
	}
	return results
}
