// Package probe implements the background probers: the health prober that
// tests banned endpoints for early recovery, and the speed tester that
// keeps latency samples fresh for speed-first ranking.
//
// Probers are bound to one generation and run only while the server is
// active; shutdown or reconfiguration cancels their context and waits for
// the current round to finish.
package probe
