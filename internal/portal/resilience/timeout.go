package resilience

import (
	"sync"
	"time"
)

// TimeoutConfig tunes the adaptive timeout.
type TimeoutConfig struct {
	Default time.Duration
	Min     time.Duration
	// Samples is the size of the rolling window of response times
	Samples int
}

// AdaptiveTimeout derives a per-call timeout from recent response times:
// min(Default, 2 × average), never below Min.
type AdaptiveTimeout struct {
	cfg TimeoutConfig

	mu    sync.Mutex
	ring  []time.Duration
	next  int
	count int
	sum   time.Duration
}

func NewAdaptiveTimeout(cfg TimeoutConfig) *AdaptiveTimeout {
	if cfg.Samples <= 0 {
		cfg.Samples = 1
	}
	return &AdaptiveTimeout{cfg: cfg, ring: make([]time.Duration, cfg.Samples)}
}

// Record adds a response time, evicting the oldest once the window is full.
func (a *AdaptiveTimeout) Record(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.count == len(a.ring) {
		a.sum -= a.ring[a.next]
	} else {
		a.count++
	}
	a.ring[a.next] = d
	a.sum += d
	a.next = (a.next + 1) % len(a.ring)
}

// Average returns the rolling average, or zero with no samples.
func (a *AdaptiveTimeout) Average() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / time.Duration(a.count)
}

// Timeout returns the timeout for the next call.
func (a *AdaptiveTimeout) Timeout() time.Duration {
	avg := a.Average()
	t := a.cfg.Default
	if avg > 0 {
		t = min(t, 2*avg)
	}
	return max(t, a.cfg.Min)
}
