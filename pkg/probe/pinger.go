package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"beacon-hq/ferry/pkg/endpoint"
)

// Pinger sends minimal synthetic requests to upstream endpoints. It is
// shared by the health prober (reachability), the speed tester (round-trip
// latency), and reconfiguration (initial reachability report).
type Pinger struct {
	client  *http.Client
	path    string
	timeout time.Duration
}

// NewPinger creates a pinger. path is the probe request path (e.g.
// "/v1/models"); timeout bounds each individual probe.
func NewPinger(client *http.Client, path string, timeout time.Duration) *Pinger {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Pinger{
		client:  client,
		path:    path,
		timeout: timeout,
	}
}

// Ping sends one synthetic GET to the target's probe URL and returns the
// round-trip time to a complete response.
//
// Any response with a non-5xx status counts as success: the probe tests
// whether the endpoint is reachable and serving, not whether the credential
// is accepted for every operation.
func (p *Pinger) Ping(ctx context.Context, t *endpoint.Target) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	probeURL := t.BaseURL.JoinPath(p.path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.APIKey)
	req.Header.Set("x-api-key", t.APIKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	rtt := time.Since(start)

	if resp.StatusCode >= http.StatusInternalServerError {
		return rtt, fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return rtt, nil
}
