package control

import (
	"net/http"
	"strconv"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// Events returns recent routing events, newest first. The optional limit
// query parameter caps the result size.
//
// GET /control/events?limit=100
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.events == nil {
		h.writeError(w, http.StatusNotFound, "event history is disabled")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read event history", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to read event history")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
