package httpx

import (
	"sync"
	"time"
)

// WindowLimiter is a per-key sliding-window limiter: at most Max events are
// admitted for a key within any span of Window. Windows are created lazily
// and dropped once pruning empties them.
type WindowLimiter struct {
	max    int
	window time.Duration

	mu   sync.Mutex
	keys map[string][]time.Time
}

// NewWindowLimiter builds a limiter from config. Burst is ignored and a
// non-positive RequestsPerWindow admits one event per window.
func NewWindowLimiter(config RateLimitConfig) *WindowLimiter {
	return &WindowLimiter{
		max:    max(config.RequestsPerWindow, 1),
		window: config.Window,
		keys:   make(map[string][]time.Time),
	}
}

// Allow prunes the key's window at now and records the event if capacity
// remains. When rejected, retryAfter is the time until the oldest recorded
// event leaves the window.
func (l *WindowLimiter) Allow(key string, now time.Time) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.pruneLocked(key, now)
	if len(stamps) >= l.max {
		return false, stamps[0].Add(l.window).Sub(now)
	}

	l.keys[key] = append(stamps, now)
	return true, 0
}

// Count returns the number of events currently inside key's window.
func (l *WindowLimiter) Count(key string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pruneLocked(key, now))
}

// Keys returns the number of keys with a live window.
func (l *WindowLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *WindowLimiter) pruneLocked(key string, now time.Time) []time.Time {
	stamps := l.keys[key]
	cutoff := now.Add(-l.window)

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	stamps = stamps[i:]

	if len(stamps) == 0 {
		delete(l.keys, key)
		return nil
	}
	l.keys[key] = stamps
	return stamps
}
