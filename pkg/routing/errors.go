package routing

import "errors"

// ErrNoCandidates is returned by a Strategy when no healthy, untried
// endpoint remains for the current session attempt. The proxy handler
// surfaces it to the caller as a terminal failure.
var ErrNoCandidates = errors.New("no healthy endpoint candidates")
