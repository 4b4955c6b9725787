package config

import "time"

// Config is the root configuration structure for Ferry.
// It contains all configuration sections for the local proxy server, the
// upstream endpoint set, routing behaviour, event history, and telemetry.
type Config struct {
	// Proxy contains HTTP proxy server configuration including listen
	// address, timeouts, and connection limits.
	Proxy ProxyConfig `yaml:"proxy"`

	// Auth contains the local proxy credential configuration.
	Auth AuthConfig `yaml:"auth"`

	// Routing contains endpoint selection and failure-handling configuration.
	Routing RoutingConfig `yaml:"routing"`

	// Endpoints is the ordered list of upstream targets the proxy can
	// route to. Entries missing a base URL or API key are filtered out
	// at registry construction time.
	Endpoints []EndpointConfig `yaml:"endpoints"`

	// History contains configuration for the routing-event history store.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP proxy server.
type ProxyConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8484").
	// Default: "127.0.0.1:8484"
	ListenAddress string `yaml:"listen_address"`

	// ReadHeaderTimeout is the maximum duration for reading inbound
	// request headers.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of inbound request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// UpstreamHeaderTimeout bounds how long an upstream endpoint may take
	// to return response headers before the attempt is treated as failed.
	// Streaming response bodies are not subject to this timeout.
	// Default: 60s
	UpstreamHeaderTimeout time.Duration `yaml:"upstream_header_timeout"`

	// MaxBufferedBodyBytes is the largest inbound request body Ferry will
	// buffer in memory to make it replayable across retry attempts.
	// Bodies larger than this are streamed to the first endpoint only.
	// Default: 4194304 (4MB)
	MaxBufferedBodyBytes int64 `yaml:"max_buffered_body_bytes"`

	// WatchConfig enables hot reload of the endpoint list when the
	// configuration file changes on disk.
	// Default: false
	WatchConfig bool `yaml:"watch_config"`
}

// AuthConfig contains the local proxy credential configuration.
// The key is a thin shared-secret check on the proxy and control routes;
// it is not an operator identity system.
type AuthConfig struct {
	// Key is the credential inbound callers must present, either as
	// "Authorization: Bearer <key>" or "x-api-key: <key>".
	// An empty key disables the check (local-only deployments).
	Key string `yaml:"key"`
}

// EndpointConfig describes one upstream target.
type EndpointConfig struct {
	// Name identifies the endpoint in logs, metrics, and status output.
	Name string `yaml:"name"`

	// BaseURL is the upstream base address (e.g., "https://api.example.com").
	// Entries without a base URL are filtered out.
	BaseURL string `yaml:"base_url"`

	// APIKey is the credential sent to this endpoint. Entries without a
	// key are filtered out.
	APIKey string `yaml:"api_key"`

	// Order is the endpoint priority; lower values are tried first.
	// Absent order means highest priority (0). Ties preserve list order.
	Order int `yaml:"order"`

	// Model optionally overrides the "model" field of buffered JSON
	// request bodies forwarded to this endpoint.
	Model string `yaml:"model"`
}

// RoutingConfig contains endpoint selection and failure-handling settings.
type RoutingConfig struct {
	// Enabled controls whether multi-endpoint routing is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Strategy selects the endpoint-selection policy.
	// One of "fallback", "polling", "speed_first".
	// Default: "fallback"
	Strategy string `yaml:"strategy"`

	// ProbePath is the request path used for synthetic health and speed
	// probes against upstream endpoints.
	// Default: "/v1/models"
	ProbePath string `yaml:"probe_path"`

	// HealthCheck configures the background health prober.
	HealthCheck HealthCheckConfig `yaml:"health_check"`

	// Ban configures temporary exclusion of failed endpoints.
	Ban BanConfig `yaml:"ban"`

	// SpeedFirst configures latency ranking for the speed_first strategy.
	SpeedFirst SpeedFirstConfig `yaml:"speed_first"`
}

// HealthCheckConfig configures the background health prober.
type HealthCheckConfig struct {
	// Enabled controls whether banned endpoints are probed for early
	// recovery. Default: true
	Enabled *bool `yaml:"enabled"`

	// Interval is the time between probe rounds.
	// Bounded to [10s, 300s]. Default: 30s
	Interval time.Duration `yaml:"interval"`
}

// BanConfig configures temporary exclusion of failed endpoints.
type BanConfig struct {
	// Duration is how long an endpoint stays banned after a failure.
	// Bounded to [60s, 3600s]. Default: 300s
	Duration time.Duration `yaml:"duration"`
}

// SpeedFirstConfig configures latency ranking for the speed_first strategy.
type SpeedFirstConfig struct {
	// Window is how long latency samples stay relevant.
	// Bounded to [1m, 1h]. Default: 5m
	Window time.Duration `yaml:"window"`

	// MinSamples is the number of samples required before an endpoint's
	// average latency is trusted for ranking.
	// Bounded to [1, 20]. Default: 2
	MinSamples int `yaml:"min_samples"`

	// TestInterval is the time between background speed-test rounds.
	// Default: 60s
	TestInterval time.Duration `yaml:"test_interval"`
}

// HistoryConfig configures the routing-event history store.
type HistoryConfig struct {
	// Enabled controls whether routing events (bans, recoveries,
	// reconfigurations, exhaustions) are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	// Default: "ferry-history.db"
	Path string `yaml:"path"`

	// PruneSchedule is a cron expression for history pruning
	// (e.g., "0 3 * * *" for daily at 3 AM). Empty disables pruning.
	PruneSchedule string `yaml:"prune_schedule"`

	// RetentionDays is how long events are kept before pruning.
	// Default: 7
	RetentionDays int `yaml:"retention_days"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json" or "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ferry"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry trace export.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the reported service name.
	// Default: "ferry"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of requests to sample in [0, 1].
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS for the OTLP exporter connection.
	Insecure bool `yaml:"insecure"`
}
