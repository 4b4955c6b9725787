package endpoint

import (
	"log/slog"
	"net/url"
	"sort"
	"sync/atomic"
	"time"
)

// Registry validates caller-supplied endpoint definitions and turns them
// into generations. It owns the generation counter; every successful Build
// yields a generation with a higher id than the last.
type Registry struct {
	sampleWindow time.Duration
	minSamples   int
	logger       *slog.Logger
	nextGen      atomic.Int64
}

// RegistryOptions configures generation construction.
type RegistryOptions struct {
	// SampleWindow is the latency sample relevance window for each new
	// generation's sampler.
	SampleWindow time.Duration

	// MinSamples is the trusted-sample minimum for each new generation's
	// sampler.
	MinSamples int

	// Logger receives filter warnings. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewRegistry creates a registry.
func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sampleWindow: opts.SampleWindow,
		minSamples:   opts.MinSamples,
		logger:       logger.With("component", "endpoint.registry"),
	}
}

// Build validates and filters defs and constructs a new generation.
//
// Entries missing a base URL or API key, or whose base URL does not parse,
// are filtered out with a warning. Survivors are sorted ascending by order
// (stable, so ties preserve input order). If nothing survives, Build returns
// a ConfigurationError and the registry's generation counter is untouched.
func (r *Registry) Build(defs []Definition) (*Generation, error) {
	targets := make([]*Target, 0, len(defs))
	for i, def := range defs {
		if def.BaseURL == "" || def.APIKey == "" {
			r.logger.Warn("skipping endpoint definition missing base URL or API key",
				"index", i,
				"name", def.Name,
			)
			continue
		}
		base, err := url.Parse(def.BaseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			r.logger.Warn("skipping endpoint definition with unparsable base URL",
				"index", i,
				"name", def.Name,
				"base_url", def.BaseURL,
			)
			continue
		}

		name := def.Name
		if name == "" {
			name = base.Host
		}
		targets = append(targets, &Target{
			Name:    name,
			BaseURL: base,
			APIKey:  def.APIKey,
			Order:   def.Order,
			Model:   def.Model,
		})
	}

	if len(targets) == 0 {
		return nil, &ConfigurationError{Reason: "no usable endpoints"}
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Order < targets[j].Order
	})
	for i, t := range targets {
		t.Index = i
	}

	genID := r.nextGen.Add(1)
	states := make([]*State, len(targets))
	for i := range states {
		states[i] = &State{}
	}

	gen := &Generation{
		id:      genID,
		targets: targets,
		states:  states,
		sampler: NewSampler(len(targets), r.sampleWindow, r.minSamples),
	}

	r.logger.Info("built endpoint generation",
		"generation", gen.id,
		"endpoints", len(targets),
		"filtered", len(defs)-len(targets),
	)
	return gen, nil
}
