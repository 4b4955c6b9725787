package control

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"beacon-hq/ferry/pkg/config"
	"beacon-hq/ferry/pkg/history"
	"beacon-hq/ferry/pkg/relay"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T) *relay.Relay {
	t.Helper()
	cfg := &config.Config{Endpoints: []config.EndpointConfig{
		{Name: "primary", BaseURL: "https://a.example.com", APIKey: "secret-key", Order: 0},
		{Name: "backup", BaseURL: "https://b.example.com", APIKey: "other-key", Order: 5},
	}}
	config.ApplyDefaults(cfg)
	rl, err := relay.New(cfg, relay.Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("relay.New() error = %v", err)
	}
	return rl
}

func TestStatus(t *testing.T) {
	h := NewHandler(newTestRelay(t), nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/control/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap relay.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Endpoints) != 2 {
		t.Fatalf("endpoints = %d, want 2", len(snap.Endpoints))
	}
	if snap.Endpoints[0].Name != "primary" {
		t.Errorf("first endpoint = %q, want primary", snap.Endpoints[0].Name)
	}
	if snap.Strategy != "fallback" {
		t.Errorf("strategy = %q, want fallback", snap.Strategy)
	}
}

func TestStatus_NeverLeaksCredentials(t *testing.T) {
	h := NewHandler(newTestRelay(t), nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/control/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "secret-key") || strings.Contains(body, "other-key") {
		t.Errorf("status response leaks credentials: %s", body)
	}
}

func TestStatus_MethodNotAllowed(t *testing.T) {
	h := NewHandler(newTestRelay(t), nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/control/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestReconfigure(t *testing.T) {
	h := NewHandler(newTestRelay(t), nil, discardLogger())

	body := `{"endpoints":[{"name":"new","base_url":"http://127.0.0.1:1","api_key":"k"}]}`
	req := httptest.NewRequest(http.MethodPost, "/control/reconfigure", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Reconfigure(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result relay.ReconfigureResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Endpoints) != 1 || result.Endpoints[0].Name != "new" {
		t.Errorf("unexpected result endpoints: %+v", result.Endpoints)
	}
}

func TestReconfigure_RejectsEmptyList(t *testing.T) {
	rl := newTestRelay(t)
	h := NewHandler(rl, nil, discardLogger())
	before := rl.Generation().ID()

	req := httptest.NewRequest(http.MethodPost, "/control/reconfigure", strings.NewReader(`{"endpoints":[]}`))
	rec := httptest.NewRecorder()
	h.Reconfigure(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if rl.Generation().ID() != before {
		t.Error("rejected reconfiguration must not swap the generation")
	}
}

func TestReconfigure_RejectsMalformedBody(t *testing.T) {
	h := NewHandler(newTestRelay(t), nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/control/reconfigure", strings.NewReader(`{"endpoints": not json`))
	rec := httptest.NewRecorder()
	h.Reconfigure(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEvents(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "events.db"), discardLogger())
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	defer store.Close()

	for i := 0; i < 3; i++ {
		if err := store.Record(context.Background(), history.Event{
			Type:       history.EventBan,
			Endpoint:   "ep",
			Generation: 1,
			Detail:     "status 500",
		}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	h := NewHandler(newTestRelay(t), store, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/control/events?limit=2", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Events []history.Event `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Events) != 2 {
		t.Errorf("events = %d, want 2", len(body.Events))
	}
}

func TestEvents_DisabledHistory(t *testing.T) {
	h := NewHandler(newTestRelay(t), nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/control/events", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEvents_InvalidLimit(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "events.db"), discardLogger())
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	defer store.Close()

	h := NewHandler(newTestRelay(t), store, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/control/events?limit=zero", nil)
	rec := httptest.NewRecorder()
	h.Events(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
