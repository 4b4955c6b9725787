// Package endpoint holds the upstream endpoint model: validated immutable
// Targets, the per-endpoint health/ban state machine, the windowed latency
// sampler, and the Registry that assembles them into atomically-swappable
// generations.
//
// A Generation couples Targets with their runtime state so that
// reconfiguration is a pointer swap instead of field-by-field mutation.
// In-flight requests keep their generation reference and finish against it;
// new requests see the replacement immediately.
package endpoint
