package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"beacon-hq/ferry/pkg/endpoint"
	"beacon-hq/ferry/pkg/proxy/middleware"
	"beacon-hq/ferry/pkg/relay"
	"beacon-hq/ferry/pkg/routing"
	"beacon-hq/ferry/pkg/telemetry/metrics"
	"beacon-hq/ferry/pkg/telemetry/tracing"
)

// Handler is the forwarding handler. For each inbound request it pins the
// active generation, asks the strategy for an endpoint, and forwards with
// the endpoint's credential. Failed attempts ban the endpoint and move on
// to the next candidate until the generation's endpoints are exhausted.
type Handler struct {
	relay       *relay.Relay
	maxBuffered int64
	logger      *slog.Logger
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
}

// Options configures the forwarding handler. Metrics and Tracer are
// optional.
type Options struct {
	MaxBufferedBodyBytes int64
	Logger               *slog.Logger
	Metrics              *metrics.Collector
	Tracer               *tracing.Tracer
}

// NewHandler creates a forwarding handler on top of rl.
func NewHandler(rl *relay.Relay, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		relay:       rl,
		maxBuffered: opts.MaxBufferedBodyBytes,
		logger:      logger.With("component", "proxy"),
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
	}
}

// ServeHTTP runs one proxy session. The generation is pinned once at entry;
// a reconfiguration mid-session does not disturb the attempt loop, and the
// attempt count is bounded by the pinned generation's endpoint count.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gen := h.relay.Generation()
	requestID := middleware.GetRequestID(r.Context())

	body, err := readRequestBody(r, h.maxBuffered)
	if err != nil {
		h.logger.Warn("failed to read request body",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, http.StatusBadRequest, "failed to read request body", "invalid_request_error", nil)
		return
	}

	tried := make([]bool, gen.Len())
	var failures []AttemptFailure

	for attempt := 0; attempt < gen.Len(); attempt++ {
		target, err := h.relay.Strategy().Select(gen, tried)
		if err != nil {
			if errors.Is(err, routing.ErrNoCandidates) {
				break
			}
			h.logger.Error("strategy selection failed",
				"request_id", requestID,
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "endpoint selection failed", "internal_error", nil)
			return
		}
		tried[target.Index] = true

		resp, rtt, attemptErr := h.forward(r, target, body)
		if attemptErr != nil {
			h.relay.ReportFailure(gen, target, "connection_error", attemptErr.Error())
			failures = append(failures, AttemptFailure{Endpoint: target.Name, Reason: attemptErr.Error()})
			h.logger.Warn("attempt failed, trying next endpoint",
				"request_id", requestID,
				"endpoint", target.Name,
				"error", attemptErr,
			)
			if !body.Replayable() {
				break
			}
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			reason := fmt.Sprintf("upstream status %d", resp.StatusCode)
			drain(resp)
			h.relay.ReportFailure(gen, target, "upstream_error", reason)
			failures = append(failures, AttemptFailure{Endpoint: target.Name, Reason: reason})
			h.logger.Warn("attempt failed, trying next endpoint",
				"request_id", requestID,
				"endpoint", target.Name,
				"status", resp.StatusCode,
			)
			if !body.Replayable() {
				break
			}
			continue
		}

		// Non-5xx is a success for routing purposes; 4xx responses carry
		// caller mistakes that no other endpoint would fix, so they pass
		// through verbatim.
		h.relay.ReportSuccess(gen, target, rtt)
		if h.metrics != nil {
			h.metrics.RecordAttempts(attempt + 1)
		}
		h.logger.Debug("request forwarded",
			"request_id", requestID,
			"endpoint", target.Name,
			"status", resp.StatusCode,
			"header_rtt_ms", rtt.Milliseconds(),
			"attempts", attempt+1,
		)
		streamResponse(w, resp)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAttempts(len(failures))
	}
	exhaustErr := &ExhaustionError{Attempts: failures}
	h.relay.ReportExhaustion(gen, exhaustErr.Error())
	if len(failures) == 0 {
		writeError(w, http.StatusServiceUnavailable, "no healthy endpoints available", "upstream_exhausted", nil)
		return
	}
	writeError(w, http.StatusBadGateway, exhaustErr.Error(), "upstream_exhausted", failures)
}

// forward sends one attempt to target and returns the response together
// with the time to response headers. Response bodies are left open for the
// caller to stream or drain.
func (h *Handler) forward(r *http.Request, target *endpoint.Target, body *requestBody) (*http.Response, time.Duration, error) {
	ctx := r.Context()
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "proxy.attempt",
			trace.WithAttributes(
				attribute.String("endpoint", target.Name),
				attribute.String("http.method", r.Method),
			),
		)
		defer span.End()
	}

	outURL := upstreamURL(target.BaseURL, r.URL)
	reader, length := body.ForAttempt(target.Model)

	req, err := http.NewRequestWithContext(ctx, r.Method, outURL.String(), reader)
	if err != nil {
		return nil, 0, err
	}
	req.ContentLength = length

	copyHeaders(req.Header, r.Header)
	req.Header.Del("Content-Length")

	// The caller's credential never reaches an upstream. Both header forms
	// are sent because different upstreams expect different ones.
	req.Header.Del("Authorization")
	req.Header.Del("X-Api-Key")
	req.Header.Set("Authorization", "Bearer "+target.APIKey)
	req.Header.Set("x-api-key", target.APIKey)

	start := time.Now()
	resp, err := h.relay.Client().Do(req)
	if err != nil {
		return nil, 0, &UpstreamError{Endpoint: target.Name, Err: err}
	}
	return resp, time.Since(start), nil
}

// upstreamURL joins the target base with the inbound path and query.
func upstreamURL(base *url.URL, inbound *url.URL) *url.URL {
	out := *base
	out.Path = strings.TrimSuffix(base.Path, "/") + inbound.Path
	out.RawQuery = inbound.RawQuery
	return &out
}

// streamResponse copies the upstream response to the caller, flushing after
// each chunk so streamed upstream output (SSE and the like) arrives
// incrementally instead of on completion.
func streamResponse(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// hopHeaders are the hop-by-hop headers stripped in both directions.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// copyHeaders copies src into dst, skipping hop-by-hop headers.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		skip := false
		for _, hop := range hopHeaders {
			if http.CanonicalHeaderKey(key) == hop {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	for _, hop := range hopHeaders {
		dst.Del(hop)
	}
}

// drain discards an upstream response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

// writeError writes a JSON error response in the shape upstream-compatible
// clients expect.
func writeError(w http.ResponseWriter, status int, message, errType string, attempts []AttemptFailure) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"message": message,
		"type":    errType,
	}
	if len(attempts) > 0 {
		payload["attempts"] = attempts
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"error": payload})
}
