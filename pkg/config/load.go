package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse parses raw YAML configuration bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// FERRY_SECTION_FIELD (e.g., FERRY_PROXY_LISTEN_ADDRESS) and always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Re-validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies FERRY_* environment variables to the configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("FERRY_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("FERRY_PROXY_UPSTREAM_HEADER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.UpstreamHeaderTimeout = d
		}
	}
	if val := os.Getenv("FERRY_AUTH_KEY"); val != "" {
		cfg.Auth.Key = val
	}
	if val := os.Getenv("FERRY_ROUTING_STRATEGY"); val != "" {
		cfg.Routing.Strategy = val
	}
	if val := os.Getenv("FERRY_ROUTING_BAN_DURATION"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Routing.Ban.Duration = clampDuration(d, MinBanDuration, MaxBanDuration)
		}
	}
	if val := os.Getenv("FERRY_ROUTING_HEALTH_CHECK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Routing.HealthCheck.Interval = clampDuration(d, MinHealthCheckInterval, MaxHealthCheckInterval)
		}
	}
	if val := os.Getenv("FERRY_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("FERRY_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("FERRY_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}
}
