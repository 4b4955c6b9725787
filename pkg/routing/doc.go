// Package routing implements the pluggable endpoint-selection strategies:
// fallback (priority order), polling (shared-cursor round robin), and
// speed_first (lowest trusted average latency).
//
// A strategy is consulted once per proxy-session attempt and never returns
// an endpoint that is banned or already tried within that session.
package routing
