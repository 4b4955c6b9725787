package endpoint

import (
	"sync"
	"testing"
	"time"
)

func TestStateBanAndExpiry(t *testing.T) {
	s := &State{}

	if !s.Healthy() {
		t.Fatal("new state should be healthy")
	}

	s.RecordFailure(50*time.Millisecond, "connection refused")
	if s.Healthy() {
		t.Fatal("state should be banned after failure")
	}

	snap := s.Snapshot()
	if !snap.Banned {
		t.Error("Snapshot().Banned = false, want true")
	}
	if snap.BannedUntil.IsZero() || !snap.BannedUntil.After(time.Now().Add(-time.Second)) {
		t.Errorf("Snapshot().BannedUntil = %v, want future timestamp", snap.BannedUntil)
	}
	if snap.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
	if snap.LastFailure != "connection refused" {
		t.Errorf("LastFailure = %q", snap.LastFailure)
	}

	// Ban lapses automatically once the expiry passes.
	time.Sleep(60 * time.Millisecond)
	if !s.Healthy() {
		t.Fatal("ban should have expired")
	}
}

func TestStateEarlyRecovery(t *testing.T) {
	s := &State{}
	s.RecordFailure(time.Hour, "upstream 503")
	if s.Healthy() {
		t.Fatal("state should be banned")
	}

	// A successful probe shortens the ban to nothing.
	s.RecordSuccess()
	if !s.Healthy() {
		t.Fatal("state should be healthy after early recovery")
	}
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0 after recovery", snap.ConsecutiveFailures)
	}
}

func TestStateRepeatedFailuresRestartBan(t *testing.T) {
	s := &State{}
	s.RecordFailure(time.Hour, "first")
	first := s.Snapshot().BannedUntil

	time.Sleep(5 * time.Millisecond)
	s.RecordFailure(time.Hour, "second")
	second := s.Snapshot().BannedUntil

	if !second.After(first) {
		t.Errorf("second ban expiry %v not after first %v", second, first)
	}
	if got := s.Snapshot().ConsecutiveFailures; got != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", got)
	}
}

// TestStateConcurrentAccess exercises the state machine from many goroutines
// mixing failures, successes, and reads. Run with -race.
func TestStateConcurrentAccess(t *testing.T) {
	s := &State{}
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.RecordFailure(time.Minute, "boom")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.RecordSuccess()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Healthy()
				s.Snapshot()
			}
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the record must be internally
	// consistent: banned implies a future expiry.
	snap := s.Snapshot()
	if snap.Banned && snap.BannedUntil.Before(time.Now().Add(-time.Second)) {
		t.Errorf("banned with stale expiry: %v", snap.BannedUntil)
	}
}
