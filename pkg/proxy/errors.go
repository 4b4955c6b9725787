package proxy

import (
	"fmt"
	"strings"
)

// UpstreamError reports a failed attempt against one endpoint, either a 5xx
// response or a transport failure.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("endpoint %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("endpoint %s: upstream status %d", e.Endpoint, e.StatusCode)
}

// Unwrap returns the underlying transport error, if any.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AttemptFailure summarizes one failed endpoint attempt for an exhaustion
// response.
type AttemptFailure struct {
	Endpoint string `json:"endpoint"`
	Reason   string `json:"reason"`
}

// ExhaustionError reports that a request ran out of usable endpoints.
// Attempts is empty when no endpoint was selectable to begin with.
type ExhaustionError struct {
	Attempts []AttemptFailure
}

// Error implements the error interface.
func (e *ExhaustionError) Error() string {
	if len(e.Attempts) == 0 {
		return "no healthy endpoints available"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s (%s)", a.Endpoint, a.Reason)
	}
	return "all endpoints failed: " + strings.Join(parts, ", ")
}
