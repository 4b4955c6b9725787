package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// LocalAuth checks the shared local proxy credential on every request.
// Callers present the key either as "Authorization: Bearer <key>" or in the
// "x-api-key" header, mirroring the two credential forms the proxy itself
// sends upstream. An empty configured key disables the check entirely.
func LocalAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := extractKey(r)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				slog.WarnContext(r.Context(), "rejected request with missing or invalid credential",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{
						"message": "Missing or invalid API key",
						"type":    "authentication_error",
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractKey pulls the caller's credential from the Authorization bearer
// header or the x-api-key header, in that order.
func extractKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(r.Header.Get("x-api-key"))
}
