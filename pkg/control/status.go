package control

import "net/http"

// Status reports the active generation, strategy, and per-endpoint health.
// Credentials never appear in the output.
//
// GET /control/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, h.relay.Snapshot())
}
