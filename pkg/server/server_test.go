package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"beacon-hq/ferry/pkg/config"
	"beacon-hq/ferry/pkg/relay"
	"beacon-hq/ferry/pkg/telemetry/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := &config.Config{Endpoints: []config.EndpointConfig{
		{Name: "primary", BaseURL: "https://a.example.com", APIKey: "up-key"},
	}}
	config.ApplyDefaults(cfg)
	if mutate != nil {
		mutate(cfg)
	}

	rl, err := relay.New(cfg, relay.Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("relay.New() error = %v", err)
	}
	return NewServer(cfg, rl, Options{
		Logger:  discardLogger(),
		Metrics: metrics.NewCollector("ferry"),
	})
}

func TestHandler_HealthzWithoutCredential(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.Key = "local-secret"
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 without credential", rec.Code)
	}
}

func TestHandler_ControlRequiresCredential(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.Key = "local-secret"
	})
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/control/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated control status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/control/status", nil)
	req.Header.Set("Authorization", "Bearer local-secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated control status = %d, want 200", rec.Code)
	}
}

func TestHandler_UnknownControlRouteIs404(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/control/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 rather than proxying control paths", rec.Code)
	}
}

func TestHandler_MetricsRoute(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ferry_") {
		t.Error("metrics response missing ferry namespace")
	}
}

func TestHandler_MetricsDisabled(t *testing.T) {
	disabled := false
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Telemetry.Metrics.Enabled = &disabled
		// A closed local port keeps the fallthrough proxy attempt fast.
		cfg.Endpoints[0].BaseURL = "http://127.0.0.1:1"
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	// With no metrics route the request falls through to the proxy, which
	// has no healthy way to serve it against example.com; either way it
	// must not return Prometheus output.
	if strings.Contains(rec.Body.String(), "# HELP") {
		t.Error("metrics served despite being disabled")
	}
}

func TestHandler_RequestIDOnResponses(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestEndpointDefinitions(t *testing.T) {
	cfg := &config.Config{Endpoints: []config.EndpointConfig{
		{Name: "a", BaseURL: "https://a.example.com", APIKey: "k1", Order: 2, Model: "m"},
		{Name: "b", BaseURL: "https://b.example.com", APIKey: "k2"},
	}}

	defs := endpointDefinitions(cfg)
	if len(defs) != 2 {
		t.Fatalf("defs = %d, want 2", len(defs))
	}
	if defs[0].Name != "a" || defs[0].Order != 2 || defs[0].Model != "m" {
		t.Errorf("unexpected first definition: %+v", defs[0])
	}
}
