package endpoint

import (
	"sync"
	"time"
)

// Sampler maintains a time-windowed collection of response-time samples per
// endpoint. Samples older than the window are discarded lazily on record and
// read, and eagerly by Sweep. An endpoint's average is only trusted once the
// in-window sample count reaches the configured minimum.
type Sampler struct {
	window     time.Duration
	minSamples int
	slots      []*sampleSlot
}

type sampleSlot struct {
	mu      sync.Mutex
	samples []latencySample
}

type latencySample struct {
	at  time.Time
	dur time.Duration
}

// NewSampler creates a sampler for n endpoints.
func NewSampler(n int, window time.Duration, minSamples int) *Sampler {
	slots := make([]*sampleSlot, n)
	for i := range slots {
		slots[i] = &sampleSlot{}
	}
	return &Sampler{
		window:     window,
		minSamples: minSamples,
		slots:      slots,
	}
}

// Record adds a response-time sample for the endpoint at index i.
func (s *Sampler) Record(i int, d time.Duration) {
	s.recordAt(i, time.Now(), d)
}

func (s *Sampler) recordAt(i int, at time.Time, d time.Duration) {
	if i < 0 || i >= len(s.slots) {
		return
	}
	slot := s.slots[i]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.prune(at.Add(-s.window))
	slot.samples = append(slot.samples, latencySample{at: at, dur: d})
}

// Average returns the mean latency over the in-window samples for the
// endpoint at index i. The second return value is false until the sample
// count reaches the configured minimum.
func (s *Sampler) Average(i int) (time.Duration, bool) {
	if i < 0 || i >= len(s.slots) {
		return 0, false
	}
	slot := s.slots[i]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.prune(time.Now().Add(-s.window))

	if len(slot.samples) < s.minSamples {
		return 0, false
	}

	var total time.Duration
	for _, smp := range slot.samples {
		total += smp.dur
	}
	return total / time.Duration(len(slot.samples)), true
}

// Count returns the current in-window sample count for endpoint i.
func (s *Sampler) Count(i int) int {
	if i < 0 || i >= len(s.slots) {
		return 0
	}
	slot := s.slots[i]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.prune(time.Now().Add(-s.window))
	return len(slot.samples)
}

// Sweep eagerly discards aged samples across all endpoints. The probers call
// this periodically so idle endpoints do not hold stale samples until the
// next read.
func (s *Sampler) Sweep() {
	cutoff := time.Now().Add(-s.window)
	for _, slot := range s.slots {
		slot.mu.Lock()
		slot.prune(cutoff)
		slot.mu.Unlock()
	}
}

// prune drops samples at or before cutoff. Samples are appended in time
// order, so the survivors are a suffix. Callers hold slot.mu.
func (sl *sampleSlot) prune(cutoff time.Time) {
	keep := 0
	for keep < len(sl.samples) && !sl.samples[keep].at.After(cutoff) {
		keep++
	}
	if keep > 0 {
		sl.samples = append(sl.samples[:0], sl.samples[keep:]...)
	}
}
