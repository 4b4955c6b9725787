package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Strategy names accepted by RoutingConfig.Strategy.
const (
	StrategyFallback   = "fallback"
	StrategyPolling    = "polling"
	StrategySpeedFirst = "speed_first"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors that would prevent the
// proxy from starting. It assumes ApplyDefaults has already run.
//
// Endpoint entries missing a base URL or API key are not errors here; the
// registry filters them. Validation fails only when no usable endpoint
// would remain, since that is fatal for server start.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Proxy.ListenAddress == "" {
		errs = append(errs, &ValidationError{Field: "proxy.listen_address", Message: "must not be empty"})
	}

	switch cfg.Routing.Strategy {
	case StrategyFallback, StrategyPolling, StrategySpeedFirst:
	default:
		errs = append(errs, &ValidationError{
			Field:   "routing.strategy",
			Message: fmt.Sprintf("unknown strategy %q (expected %s, %s, or %s)", cfg.Routing.Strategy, StrategyFallback, StrategyPolling, StrategySpeedFirst),
		})
	}

	if !strings.HasPrefix(cfg.Routing.ProbePath, "/") {
		errs = append(errs, &ValidationError{Field: "routing.probe_path", Message: "must start with /"})
	}

	usable := 0
	for i, ep := range cfg.Endpoints {
		if ep.BaseURL == "" || ep.APIKey == "" {
			continue
		}
		base, err := url.Parse(ep.BaseURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("endpoints[%d].base_url", i),
				Message: fmt.Sprintf("invalid URL %q (needs scheme and host)", ep.BaseURL),
			})
			continue
		}
		usable++
	}
	if usable == 0 {
		errs = append(errs, &ValidationError{
			Field:   "endpoints",
			Message: "no usable endpoints (each needs base_url and api_key)",
		})
	}

	if cfg.Telemetry.Tracing.Enabled && cfg.Telemetry.Tracing.Endpoint == "" {
		errs = append(errs, &ValidationError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
	}
	if r := cfg.Telemetry.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, &ValidationError{Field: "telemetry.tracing.sample_ratio", Message: "must be in [0, 1]"})
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d validation error(s): %w", len(errs), joinErrors(errs))
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
