package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
proxy:
  listen_address: "127.0.0.1:9090"
routing:
  strategy: polling
  ban:
    duration: 120s
endpoints:
  - name: primary
    base_url: https://api-a.example.com
    api_key: sk-a
  - name: secondary
    base_url: https://api-b.example.com
    api_key: sk-b
    order: 5
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ferry.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, sampleYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Proxy.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:9090", cfg.Proxy.ListenAddress)
	}
	if cfg.Routing.Strategy != StrategyPolling {
		t.Errorf("Strategy = %q, want polling", cfg.Routing.Strategy)
	}
	if cfg.Routing.Ban.Duration != 120*time.Second {
		t.Errorf("Ban.Duration = %v, want 120s", cfg.Routing.Ban.Duration)
	}
	if len(cfg.Endpoints) != 2 {
		t.Fatalf("len(Endpoints) = %d, want 2", len(cfg.Endpoints))
	}
	if cfg.Endpoints[1].Order != 5 {
		t.Errorf("Endpoints[1].Order = %d, want 5", cfg.Endpoints[1].Order)
	}

	// Defaults fill unspecified sections.
	if cfg.Routing.HealthCheck.Interval != 30*time.Second {
		t.Errorf("HealthCheck.Interval = %v, want default 30s", cfg.Routing.HealthCheck.Interval)
	}
}

func TestLoadConfig_FileMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig() = nil error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "proxy: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() = nil error for invalid YAML")
	}
}

func TestLoadConfig_NoUsableEndpoints(t *testing.T) {
	path := writeConfigFile(t, `
endpoints:
  - name: keyless
    base_url: https://a.example.com
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() = nil error for config without usable endpoints")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, sampleYAML)

	t.Setenv("FERRY_PROXY_LISTEN_ADDRESS", "0.0.0.0:7070")
	t.Setenv("FERRY_ROUTING_STRATEGY", "speed_first")
	t.Setenv("FERRY_ROUTING_BAN_DURATION", "10h") // clamped to max

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Proxy.ListenAddress != "0.0.0.0:7070" {
		t.Errorf("ListenAddress = %q, want env override", cfg.Proxy.ListenAddress)
	}
	if cfg.Routing.Strategy != StrategySpeedFirst {
		t.Errorf("Strategy = %q, want speed_first", cfg.Routing.Strategy)
	}
	if cfg.Routing.Ban.Duration != MaxBanDuration {
		t.Errorf("Ban.Duration = %v, want clamped %v", cfg.Routing.Ban.Duration, MaxBanDuration)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfigFile(t, sampleYAML)

	t.Setenv("FERRY_ROUTING_STRATEGY", "bogus")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("expected validation failure for bogus strategy override")
	}
}
