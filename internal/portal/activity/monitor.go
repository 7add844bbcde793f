// Package activity tracks user interaction for the session inactivity budget.
package activity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/portal/pkg/timerx"
	"golang.org/x/time/rate"
)

// DefaultThrottle coalesces bursts of interaction into one timestamp update.
const DefaultThrottle = 100 * time.Millisecond

// Kind is an interaction signal reported by the UI.
type Kind uint8

const (
	Click Kind = 1 << iota
	Key
	Scroll
	Touch
	PointerMove
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case Key:
		return "key"
	case Scroll:
		return "scroll"
	case Touch:
		return "touch"
	case PointerMove:
		return "pointermove"
	default:
		return "unknown"
	}
}

// ParseKind maps a UI event name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "click", "mousedown", "pointerdown":
		return Click, nil
	case "key", "keydown", "keypress":
		return Key, nil
	case "scroll", "wheel":
		return Scroll, nil
	case "touch", "touchstart":
		return Touch, nil
	case "pointermove", "mousemove":
		return PointerMove, nil
	default:
		return 0, fmt.Errorf("unknown activity kind %q", s)
	}
}

// Set is a set of Kinds.
type Set uint8

const (
	// Coarse signals count towards the inactivity budget.
	Coarse = Set(Click | Key | Scroll | Touch)
	// Narrow signals count as presence during the last-chance window.
	// Scroll and touch are excluded; passive scrolling is not presence.
	Narrow = Set(PointerMove | Key)
)

// Has reports whether k is in the set.
func (s Set) Has(k Kind) bool { return s&Set(k) != 0 }

type listener struct {
	set Set
	fn  func(Kind)
}

// Monitor records the last coarse interaction and fans signals out to
// listeners. It holds no timers.
type Monitor struct {
	clock    timerx.Clock
	throttle time.Duration

	mu        sync.Mutex
	last      time.Time
	limiter   *rate.Limiter
	seq       uint64
	listeners map[uint64]listener
}

// New creates a Monitor. A non-positive throttle disables throttling.
func New(clock timerx.Clock, throttle time.Duration) *Monitor {
	if clock == nil {
		clock = timerx.Real()
	}
	m := &Monitor{
		clock:     clock,
		throttle:  throttle,
		listeners: make(map[uint64]listener),
	}
	m.last = clock.Now()
	m.limiter = m.newLimiter()
	return m
}

func (m *Monitor) newLimiter() *rate.Limiter {
	if m.throttle <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(m.throttle), 1)
}

// RecordActivity registers one interaction. Coarse kinds update the
// last-activity timestamp unless throttled; the return value reports whether
// it was updated. Listeners whose set contains k are called either way.
func (m *Monitor) RecordActivity(k Kind) bool {
	now := m.clock.Now()

	m.mu.Lock()
	updated := false
	if Coarse.Has(k) && m.limiter.AllowN(now, 1) {
		m.last = now
		updated = true
	}

	var fns []func(Kind)
	for _, l := range m.listeners {
		if l.set.Has(k) {
			fns = append(fns, l.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(k)
	}
	return updated
}

// Listen calls fn for every recorded kind in set until cancel is called.
func (m *Monitor) Listen(set Set, fn func(Kind)) (cancel func()) {
	m.mu.Lock()
	m.seq++
	id := m.seq
	m.listeners[id] = listener{set: set, fn: fn}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// LastActivity returns the instant of the last recorded coarse interaction.
func (m *Monitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// TimeSinceLastActivity returns how long ago the last coarse interaction was.
func (m *Monitor) TimeSinceLastActivity(now time.Time) time.Duration {
	return now.Sub(m.LastActivity())
}

// Reset marks now as the last activity, e.g. on login or extension.
func (m *Monitor) Reset(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = now
	m.limiter = m.newLimiter()
}
