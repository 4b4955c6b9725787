// Package control implements the local management surface: status
// reporting, runtime reconfiguration, and routing-event history.
package control

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"beacon-hq/ferry/pkg/history"
	"beacon-hq/ferry/pkg/relay"
)

// Handler serves the control routes. Events may be nil when history is
// disabled.
type Handler struct {
	relay  *relay.Relay
	events *history.Store
	logger *slog.Logger
}

// NewHandler creates a control handler.
func NewHandler(rl *relay.Relay, events *history.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		relay:  rl,
		events: events,
		logger: logger.With("component", "control"),
	}
}

// writeJSON writes a JSON response body with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode control response", "error", err)
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
