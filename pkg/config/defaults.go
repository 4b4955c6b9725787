package config

import "time"

// Bounds for routing sub-configuration. Out-of-range values are clamped
// rather than rejected so a sloppy config still yields a working proxy.
const (
	MinHealthCheckInterval = 10 * time.Second
	MaxHealthCheckInterval = 300 * time.Second
	MinBanDuration         = 60 * time.Second
	MaxBanDuration         = 3600 * time.Second
	MinSpeedWindow         = 1 * time.Minute
	MaxSpeedWindow         = 1 * time.Hour
	MinSpeedSamples        = 1
	MaxSpeedSamples        = 20
)

// ApplyDefaults fills in default values for any unset configuration fields
// and clamps routing bounds. It is called automatically by LoadConfig.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(&cfg.Proxy)
	applyRoutingDefaults(&cfg.Routing)
	applyHistoryDefaults(&cfg.History)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyProxyDefaults(p *ProxyConfig) {
	if p.ListenAddress == "" {
		p.ListenAddress = "127.0.0.1:8484"
	}
	if p.ReadHeaderTimeout == 0 {
		p.ReadHeaderTimeout = 10 * time.Second
	}
	if p.IdleTimeout == 0 {
		p.IdleTimeout = 120 * time.Second
	}
	if p.ShutdownTimeout == 0 {
		p.ShutdownTimeout = 30 * time.Second
	}
	if p.MaxHeaderBytes == 0 {
		p.MaxHeaderBytes = 1 << 20
	}
	if p.UpstreamHeaderTimeout == 0 {
		p.UpstreamHeaderTimeout = 60 * time.Second
	}
	if p.MaxBufferedBodyBytes == 0 {
		p.MaxBufferedBodyBytes = 4 << 20
	}
}

func applyRoutingDefaults(r *RoutingConfig) {
	if r.Enabled == nil {
		r.Enabled = boolPtr(true)
	}
	if r.Strategy == "" {
		r.Strategy = StrategyFallback
	}
	if r.ProbePath == "" {
		r.ProbePath = "/v1/models"
	}

	if r.HealthCheck.Enabled == nil {
		r.HealthCheck.Enabled = boolPtr(true)
	}
	if r.HealthCheck.Interval == 0 {
		r.HealthCheck.Interval = 30 * time.Second
	}
	r.HealthCheck.Interval = clampDuration(r.HealthCheck.Interval, MinHealthCheckInterval, MaxHealthCheckInterval)

	if r.Ban.Duration == 0 {
		r.Ban.Duration = 300 * time.Second
	}
	r.Ban.Duration = clampDuration(r.Ban.Duration, MinBanDuration, MaxBanDuration)

	if r.SpeedFirst.Window == 0 {
		r.SpeedFirst.Window = 5 * time.Minute
	}
	r.SpeedFirst.Window = clampDuration(r.SpeedFirst.Window, MinSpeedWindow, MaxSpeedWindow)

	if r.SpeedFirst.MinSamples == 0 {
		r.SpeedFirst.MinSamples = 2
	}
	r.SpeedFirst.MinSamples = clampInt(r.SpeedFirst.MinSamples, MinSpeedSamples, MaxSpeedSamples)

	if r.SpeedFirst.TestInterval == 0 {
		r.SpeedFirst.TestInterval = 60 * time.Second
	}
}

func applyHistoryDefaults(h *HistoryConfig) {
	if h.Path == "" {
		h.Path = "ferry-history.db"
	}
	if h.RetentionDays == 0 {
		h.RetentionDays = 7
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = "info"
	}
	if t.Logging.Format == "" {
		t.Logging.Format = "json"
	}
	if t.Metrics.Enabled == nil {
		t.Metrics.Enabled = boolPtr(true)
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = "ferry"
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = "ferry"
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = 1.0
	}
}

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func boolPtr(b bool) *bool {
	return &b
}
