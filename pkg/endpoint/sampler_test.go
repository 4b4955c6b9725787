package endpoint

import (
	"sync"
	"testing"
	"time"
)

func TestSamplerMinimumBeforeTrust(t *testing.T) {
	s := NewSampler(2, 5*time.Minute, 2)

	if _, ok := s.Average(0); ok {
		t.Fatal("Average() trusted with zero samples")
	}

	s.Record(0, 100*time.Millisecond)
	if _, ok := s.Average(0); ok {
		t.Fatal("Average() trusted below minimum sample count")
	}

	s.Record(0, 300*time.Millisecond)
	avg, ok := s.Average(0)
	if !ok {
		t.Fatal("Average() not trusted at minimum sample count")
	}
	if avg != 200*time.Millisecond {
		t.Errorf("Average() = %v, want 200ms", avg)
	}

	// Endpoint 1 is independent of endpoint 0.
	if _, ok := s.Average(1); ok {
		t.Error("Average(1) trusted with no samples")
	}
}

func TestSamplerWindowExpiry(t *testing.T) {
	s := NewSampler(1, time.Minute, 1)

	old := time.Now().Add(-2 * time.Minute)
	s.recordAt(0, old, 500*time.Millisecond)
	s.Record(0, 100*time.Millisecond)

	avg, ok := s.Average(0)
	if !ok {
		t.Fatal("Average() not trusted")
	}
	// The aged sample must not contribute.
	if avg != 100*time.Millisecond {
		t.Errorf("Average() = %v, want 100ms (aged sample discarded)", avg)
	}
	if got := s.Count(0); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestSamplerSweep(t *testing.T) {
	s := NewSampler(3, time.Minute, 1)
	old := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		s.recordAt(i, old, time.Second)
	}

	s.Sweep()

	for i := 0; i < 3; i++ {
		slot := s.slots[i]
		slot.mu.Lock()
		n := len(slot.samples)
		slot.mu.Unlock()
		if n != 0 {
			t.Errorf("slot %d retained %d aged samples after Sweep", i, n)
		}
	}
}

func TestSamplerOutOfRangeIndex(t *testing.T) {
	s := NewSampler(1, time.Minute, 1)
	s.Record(-1, time.Second)
	s.Record(5, time.Second)
	if _, ok := s.Average(5); ok {
		t.Error("Average() trusted for out-of-range index")
	}
	if got := s.Count(-1); got != 0 {
		t.Errorf("Count(-1) = %d, want 0", got)
	}
}

func TestSamplerConcurrent(t *testing.T) {
	s := NewSampler(4, time.Minute, 1)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		idx := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s.Record(idx, time.Duration(j)*time.Millisecond)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s.Average(idx)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		if _, ok := s.Average(i); !ok {
			t.Errorf("Average(%d) not trusted after 500 recorded samples", i)
		}
	}
}
