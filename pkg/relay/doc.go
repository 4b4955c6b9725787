// Package relay owns the live endpoint generation and everything that
// revolves around it: the selection strategy, the shared upstream HTTP
// client, the background probers, and atomic reconfiguration.
//
// The active generation is held behind an atomic pointer. Proxy sessions
// pin the generation once at session start and finish on it even if a
// reconfiguration swaps in a successor mid-flight; new sessions always see
// the newest generation.
package relay
