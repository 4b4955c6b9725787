package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"beacon-hq/ferry/pkg/config"
	"beacon-hq/ferry/pkg/endpoint"
	"beacon-hq/ferry/pkg/history"
	"beacon-hq/ferry/pkg/probe"
	"beacon-hq/ferry/pkg/routing"
	"beacon-hq/ferry/pkg/telemetry/metrics"
)

// Relay coordinates the active endpoint generation, the selection strategy,
// and the background probers. It is the single writer of the generation
// pointer; readers (proxy sessions, control handlers) load it lock-free.
type Relay struct {
	registry *endpoint.Registry
	strategy routing.Strategy
	client   *http.Client
	pinger   *probe.Pinger

	gen atomic.Pointer[endpoint.Generation]

	banDuration    time.Duration
	healthEnabled  bool
	healthInterval time.Duration
	speedInterval  time.Duration

	logger  *slog.Logger
	metrics *metrics.Collector
	events  *history.Store

	// mu guards the prober lifecycle, never the request hot path.
	mu            sync.Mutex
	cancelProbers context.CancelFunc
	proberWG      sync.WaitGroup
	running       bool

	// reconfigMu serializes whole Reconfigure calls, so a generation is
	// always swapped in the order it was built. The config watcher and the
	// control surface reconfigure independently; without this, a slower
	// earlier build could overwrite a later generation after its swap.
	reconfigMu sync.Mutex
}

// Options configures relay construction. Metrics and Events are optional;
// nil disables the corresponding reporting.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Events  *history.Store
}

// New builds a relay from configuration, including the initial generation.
// It fails when the endpoint list yields no usable targets or the strategy
// name is unknown.
func New(cfg *config.Config, opts Options) (*Relay, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "relay")

	strategyName := cfg.Routing.Strategy
	if cfg.Routing.Enabled != nil && !*cfg.Routing.Enabled {
		// Routing disabled still proxies, but always in strict priority
		// order with no alternatives beyond ban skipping.
		strategyName = routing.NameFallback
	}
	strategy, err := routing.New(strategyName)
	if err != nil {
		return nil, err
	}

	registry := endpoint.NewRegistry(endpoint.RegistryOptions{
		SampleWindow: cfg.Routing.SpeedFirst.Window,
		MinSamples:   cfg.Routing.SpeedFirst.MinSamples,
		Logger:       logger,
	})

	gen, err := registry.Build(definitions(cfg.Endpoints))
	if err != nil {
		return nil, fmt.Errorf("building initial endpoint generation: %w", err)
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: cfg.Proxy.UpstreamHeaderTimeout,
		},
		// Redirects are passed through to the caller untouched.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	r := &Relay{
		registry:       registry,
		strategy:       strategy,
		client:         client,
		pinger:         probe.NewPinger(client, cfg.Routing.ProbePath, cfg.Proxy.UpstreamHeaderTimeout),
		banDuration:    cfg.Routing.Ban.Duration,
		healthEnabled:  cfg.Routing.HealthCheck.Enabled == nil || *cfg.Routing.HealthCheck.Enabled,
		healthInterval: cfg.Routing.HealthCheck.Interval,
		speedInterval:  cfg.Routing.SpeedFirst.TestInterval,
		logger:         logger,
		metrics:        opts.Metrics,
		events:         opts.Events,
	}
	r.gen.Store(gen)
	r.publishHealth(gen)

	logger.Info("relay initialized",
		"strategy", strategy.Name(),
		"endpoints", gen.Len(),
		"generation", gen.ID(),
	)
	return r, nil
}

// definitions converts configured endpoints into registry input.
func definitions(eps []config.EndpointConfig) []endpoint.Definition {
	defs := make([]endpoint.Definition, 0, len(eps))
	for _, ep := range eps {
		defs = append(defs, endpoint.Definition{
			Name:    ep.Name,
			BaseURL: ep.BaseURL,
			APIKey:  ep.APIKey,
			Order:   ep.Order,
			Model:   ep.Model,
		})
	}
	return defs
}

// Generation returns the active generation. Sessions must call this once
// and keep the result for their whole lifetime.
func (r *Relay) Generation() *endpoint.Generation {
	return r.gen.Load()
}

// Strategy returns the configured selection strategy.
func (r *Relay) Strategy() routing.Strategy {
	return r.strategy
}

// Client returns the shared upstream HTTP client.
func (r *Relay) Client() *http.Client {
	return r.client
}

// Start launches the background probers for the active generation.
func (r *Relay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	r.startProbers(ctx, r.gen.Load())
}

// Stop cancels the probers and waits for them to drain.
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.stopProbers()
}

// startProbers must be called with mu held.
func (r *Relay) startProbers(ctx context.Context, gen *endpoint.Generation) {
	proberCtx, cancel := context.WithCancel(ctx)
	r.cancelProbers = cancel

	if r.healthEnabled {
		prober := probe.NewHealthProber(gen, r.pinger, r.healthInterval, r.logger)
		prober.OnRecover = func(t *endpoint.Target) {
			if r.metrics != nil {
				r.metrics.RecordProbe("health", true)
			}
			r.recordRecovery(gen, t)
		}
		r.proberWG.Add(1)
		go func() {
			defer r.proberWG.Done()
			prober.Run(proberCtx)
		}()
	}

	if r.strategy.Name() == routing.NameSpeedFirst {
		tester := probe.NewSpeedTester(gen, r.pinger, r.speedInterval, r.logger)
		tester.OnSample = func(t *endpoint.Target, rtt time.Duration) {
			if r.metrics != nil {
				r.metrics.RecordProbe("speed", true)
			}
		}
		r.proberWG.Add(1)
		go func() {
			defer r.proberWG.Done()
			tester.Run(proberCtx)
		}()
	}
}

// stopProbers must be called with mu held.
func (r *Relay) stopProbers() {
	if r.cancelProbers != nil {
		r.cancelProbers()
		r.cancelProbers = nil
	}
	r.proberWG.Wait()
}

// ReportSuccess records a successful request against a target of gen.
// It refreshes health state and feeds the latency sample used by
// speed-first ranking.
func (r *Relay) ReportSuccess(gen *endpoint.Generation, t *endpoint.Target, rtt time.Duration) {
	wasHealthy := gen.State(t.Index).Healthy()
	gen.State(t.Index).RecordSuccess()
	gen.Sampler().Record(t.Index, rtt)

	if r.metrics != nil {
		r.metrics.RecordRequest(t.Name, "success", rtt)
		r.metrics.SetEndpointHealthy(t.Name, true)
	}
	if !wasHealthy {
		r.recordRecovery(gen, t)
	}
}

// ReportFailure bans a target of gen after a failed attempt and emits the
// ban event. outcome distinguishes upstream 5xx responses from transport
// errors in metrics.
func (r *Relay) ReportFailure(gen *endpoint.Generation, t *endpoint.Target, outcome, reason string) {
	wasHealthy := gen.State(t.Index).Healthy()
	gen.State(t.Index).RecordFailure(r.banDuration, reason)

	if r.metrics != nil {
		r.metrics.RecordRequest(t.Name, outcome, 0)
		if wasHealthy {
			r.metrics.RecordBan(t.Name)
		}
	}
	if wasHealthy {
		r.logger.Warn("endpoint banned",
			"endpoint", t.Name,
			"generation", gen.ID(),
			"ban_duration", r.banDuration,
			"reason", reason,
		)
		r.recordEvent(history.Event{
			Type:       history.EventBan,
			Endpoint:   t.Name,
			Generation: gen.ID(),
			Detail:     reason,
		})
	}
}

// ReportExhaustion records that a request ran out of usable endpoints.
func (r *Relay) ReportExhaustion(gen *endpoint.Generation, detail string) {
	r.logger.Error("all endpoints exhausted",
		"generation", gen.ID(),
		"detail", detail,
	)
	r.recordEvent(history.Event{
		Type:       history.EventExhaustion,
		Generation: gen.ID(),
		Detail:     detail,
	})
}

// recordRecovery emits the recovery event for a target that left the
// banned state, whether a probe or live traffic brought it back. Probe
// accounting stays with the prober hook.
func (r *Relay) recordRecovery(gen *endpoint.Generation, t *endpoint.Target) {
	if r.metrics != nil {
		r.metrics.SetEndpointHealthy(t.Name, true)
	}
	r.recordEvent(history.Event{
		Type:       history.EventRecover,
		Endpoint:   t.Name,
		Generation: gen.ID(),
	})
}

// recordEvent writes to the history store when one is configured. Failures
// are logged and absorbed; history never blocks routing.
func (r *Relay) recordEvent(ev history.Event) {
	if r.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.events.Record(ctx, ev); err != nil {
		r.logger.Warn("failed to record routing event",
			"type", ev.Type,
			"error", err,
		)
	}
}

// publishHealth seeds per-endpoint health gauges for a generation.
func (r *Relay) publishHealth(gen *endpoint.Generation) {
	if r.metrics == nil {
		return
	}
	r.metrics.ResetEndpoints()
	for _, t := range gen.Targets() {
		r.metrics.SetEndpointHealthy(t.Name, gen.State(t.Index).Healthy())
	}
}

// BanDuration returns the configured ban duration.
func (r *Relay) BanDuration() time.Duration {
	return r.banDuration
}
