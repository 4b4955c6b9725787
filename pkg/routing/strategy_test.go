package routing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"beacon-hq/ferry/pkg/endpoint"
)

// buildGeneration constructs a generation whose targets are named after
// their order values, for asserting selection sequences.
func buildGeneration(t *testing.T, orders ...int) *endpoint.Generation {
	t.Helper()
	reg := endpoint.NewRegistry(endpoint.RegistryOptions{
		SampleWindow: 5 * time.Minute,
		MinSamples:   2,
	})
	defs := make([]endpoint.Definition, len(orders))
	for i, o := range orders {
		defs[i] = endpoint.Definition{
			Name:    name(o),
			BaseURL: "https://up.example.com",
			APIKey:  "sk",
			Order:   o,
		}
	}
	gen, err := reg.Build(defs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return gen
}

func name(order int) string {
	return fmt.Sprintf("ep-%d", order)
}

func TestNew(t *testing.T) {
	for _, strategyName := range []string{NameFallback, NamePolling, NameSpeedFirst} {
		s, err := New(strategyName)
		if err != nil {
			t.Errorf("New(%q) error = %v", strategyName, err)
			continue
		}
		if s.Name() != strategyName {
			t.Errorf("New(%q).Name() = %q", strategyName, s.Name())
		}
	}
	if _, err := New("weighted"); err == nil {
		t.Error("New(weighted) should fail")
	}
}

func TestFallbackPriorityOrder(t *testing.T) {
	gen := buildGeneration(t, 0, 5, 10)
	s := NewFallback()

	got, err := s.Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Order != 0 {
		t.Errorf("Select() order = %d, want 0", got.Order)
	}
}

func TestFallbackSkipsBanned(t *testing.T) {
	gen := buildGeneration(t, 0, 5, 10)
	gen.State(0).RecordFailure(time.Minute, "banned in test")

	got, err := NewFallback().Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Order != 5 {
		t.Errorf("Select() order = %d, want 5 (order 0 banned)", got.Order)
	}
}

func TestFallbackSkipsTried(t *testing.T) {
	gen := buildGeneration(t, 0, 5, 10)
	tried := make([]bool, gen.Len())
	tried[0] = true

	got, err := NewFallback().Select(gen, tried)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Order != 5 {
		t.Errorf("Select() order = %d, want 5", got.Order)
	}
}

func TestFallbackAllExcluded(t *testing.T) {
	gen := buildGeneration(t, 0, 5)
	gen.State(0).RecordFailure(time.Minute, "down")
	tried := make([]bool, gen.Len())
	tried[1] = true

	if _, err := NewFallback().Select(gen, tried); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Select() error = %v, want ErrNoCandidates", err)
	}
}

// TestPollingRoundRobinInvariant verifies that over N consecutive selections
// with all endpoints healthy, every endpoint is visited exactly once per
// round before any repeats.
func TestPollingRoundRobinInvariant(t *testing.T) {
	gen := buildGeneration(t, 0, 1, 2, 3)
	s := NewPolling()
	n := gen.Len()

	for round := 0; round < 3; round++ {
		seen := make(map[string]int)
		for i := 0; i < n; i++ {
			got, err := s.Select(gen, make([]bool, n))
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			seen[got.Name]++
		}
		for _, target := range gen.Targets() {
			if seen[target.Name] != 1 {
				t.Errorf("round %d: endpoint %s visited %d times, want 1", round, target.Name, seen[target.Name])
			}
		}
	}
}

func TestPollingSkipsBanned(t *testing.T) {
	gen := buildGeneration(t, 0, 1, 2)
	gen.State(1).RecordFailure(time.Minute, "down")
	s := NewPolling()

	for i := 0; i < 6; i++ {
		got, err := s.Select(gen, make([]bool, gen.Len()))
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if got.Index == 1 {
			t.Fatal("polling selected a banned endpoint")
		}
	}
}

func TestPollingCursorPersistsAcrossRequests(t *testing.T) {
	gen := buildGeneration(t, 0, 1)
	s := NewPolling()

	first, err := s.Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	second, err := s.Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if first.Index == second.Index {
		t.Errorf("consecutive selections both hit index %d, cursor did not persist", first.Index)
	}
}

func TestPollingAllBanned(t *testing.T) {
	gen := buildGeneration(t, 0, 1)
	gen.State(0).RecordFailure(time.Minute, "down")
	gen.State(1).RecordFailure(time.Minute, "down")

	if _, err := NewPolling().Select(gen, make([]bool, gen.Len())); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Select() error = %v, want ErrNoCandidates", err)
	}
}

func TestSpeedFirstFallsBackWithoutSamples(t *testing.T) {
	gen := buildGeneration(t, 0, 5, 10)
	s := NewSpeedFirst()

	// minSamples is 2; a single sample is untrusted.
	gen.Sampler().Record(2, 10*time.Millisecond)

	got, err := s.Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Order != 0 {
		t.Errorf("Select() order = %d, want 0 (fallback ordering)", got.Order)
	}
}

func TestSpeedFirstPrefersLowestTrustedAverage(t *testing.T) {
	gen := buildGeneration(t, 0, 5)
	s := NewSpeedFirst()

	// Endpoint order 0 averages 200ms, order 5 averages 50ms; both trusted.
	gen.Sampler().Record(0, 200*time.Millisecond)
	gen.Sampler().Record(0, 200*time.Millisecond)
	gen.Sampler().Record(1, 50*time.Millisecond)
	gen.Sampler().Record(1, 50*time.Millisecond)

	got, err := s.Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Order != 5 {
		t.Errorf("Select() order = %d, want 5 (fastest trusted)", got.Order)
	}
}

func TestSpeedFirstIgnoresBannedFastEndpoint(t *testing.T) {
	gen := buildGeneration(t, 0, 5)
	s := NewSpeedFirst()

	gen.Sampler().Record(0, 10*time.Millisecond)
	gen.Sampler().Record(0, 10*time.Millisecond)
	gen.Sampler().Record(1, 500*time.Millisecond)
	gen.Sampler().Record(1, 500*time.Millisecond)
	gen.State(0).RecordFailure(time.Minute, "down")

	got, err := s.Select(gen, make([]bool, gen.Len()))
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got.Index != 1 {
		t.Errorf("Select() index = %d, want 1 (fast endpoint banned)", got.Index)
	}
}

func TestSpeedFirstAllExcluded(t *testing.T) {
	gen := buildGeneration(t, 0)
	gen.State(0).RecordFailure(time.Minute, "down")

	if _, err := NewSpeedFirst().Select(gen, make([]bool, gen.Len())); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Select() error = %v, want ErrNoCandidates", err)
	}
}
