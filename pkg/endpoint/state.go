package endpoint

import (
	"sync"
	"time"
)

// State is the mutable runtime health record for one Target. It implements
// a two-state machine: Healthy (initial) and Banned with an expiry
// timestamp. A ban lapses automatically once the expiry passes, or earlier
// when a successful probe records a success.
//
// State is safe for concurrent use by request handlers and background
// probers; each endpoint record carries its own lock, so contention never
// crosses endpoints.
type State struct {
	mu                  sync.Mutex
	bannedUntil         time.Time
	consecutiveFailures int
	lastFailure         string
}

// StateSnapshot is a point-in-time copy of a State for status reporting.
type StateSnapshot struct {
	Banned              bool
	BannedUntil         time.Time
	ConsecutiveFailures int
	LastFailure         string
}

// Healthy reports whether the endpoint is currently selectable.
// A banned endpoint becomes healthy again automatically once its ban expiry
// has passed; no explicit transition is required.
func (s *State) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !time.Now().Before(s.bannedUntil)
}

// RecordFailure transitions the endpoint to Banned for banFor, measured
// from the moment of the failure. Repeated failures restart the ban.
func (s *State) RecordFailure(banFor time.Duration, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bannedUntil = time.Now().Add(banFor)
	s.consecutiveFailures++
	s.lastFailure = reason
}

// RecordSuccess transitions the endpoint back to Healthy immediately.
// A success can shorten a ban (early recovery) but never lengthen one.
func (s *State) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bannedUntil = time.Time{}
	s.consecutiveFailures = 0
	s.lastFailure = ""
}

// Snapshot returns a point-in-time copy of the state.
func (s *State) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	banned := time.Now().Before(s.bannedUntil)
	snap := StateSnapshot{
		Banned:              banned,
		ConsecutiveFailures: s.consecutiveFailures,
		LastFailure:         s.lastFailure,
	}
	if banned {
		snap.BannedUntil = s.bannedUntil
	}
	return snap
}
