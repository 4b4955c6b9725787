// Ferry is a local API routing proxy that fronts multiple interchangeable
// upstream credentials behind one address.
//
// It forwards requests to whichever configured upstream endpoint is
// currently healthy, banning endpoints that fail and recovering them via
// background probes, with pluggable selection strategies (fallback,
// polling, speed-first).
//
// Usage:
//
//	# Start with default configuration
//	ferry run
//
//	# Start with custom configuration file
//	ferry run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	ferry validate --config /path/to/config.yaml
//
//	# Show version information
//	ferry version
package main

func main() {
	Execute()
}
