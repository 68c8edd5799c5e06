package lights

import (
	"sync"
	"time"
)

// FakeSleeper records requested durations without sleeping.
type FakeSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (f *FakeSleeper) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, d)
}

// Calls returns a copy of every recorded duration.
func (f *FakeSleeper) Calls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.calls))
	copy(out, f.calls)
	return out
}

// Total returns the sum of every recorded duration.
func (f *FakeSleeper) Total() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum time.Duration
	for _, d := range f.calls {
		sum += d
	}
	return sum
}
