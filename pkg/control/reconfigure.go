package control

import (
	"encoding/json"
	"net/http"

	"beacon-hq/ferry/pkg/endpoint"
)

// reconfigureRequest is the body of a reconfigure call.
type reconfigureRequest struct {
	Endpoints []endpoint.Definition `json:"endpoints"`
}

// maxReconfigureBody bounds the reconfigure request body.
const maxReconfigureBody = 1 << 20

// Reconfigure atomically replaces the endpoint set with the posted list.
// A list that yields no usable endpoints is rejected and the running set is
// untouched. The response reports the new generation and per-endpoint
// initial reachability.
//
// POST /control/reconfigure
func (h *Handler) Reconfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req reconfigureRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReconfigureBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.relay.Reconfigure(r.Context(), req.Endpoints)
	if err != nil {
		h.logger.Warn("reconfiguration rejected", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("reconfiguration applied",
		"generation", result.Generation,
		"endpoints", len(result.Endpoints),
	)
	h.writeJSON(w, http.StatusOK, result)
}
