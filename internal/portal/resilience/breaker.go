package resilience

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/portal/pkg/timerx"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive general failures that opens it
	Threshold int
	// Timeout is how long it stays open before admitting a probe
	Timeout time.Duration
}

// BreakerSnapshot is a point-in-time view of a Breaker.
type BreakerSnapshot struct {
	State     State     `json:"-"`
	StateName string    `json:"state"`
	Failures  int       `json:"failures"`
	ChangedAt time.Time `json:"changed_at"`
	OpenedAt  time.Time `json:"opened_at,omitzero"`
}

// Breaker counts consecutive general failures. Auth failures never reach it.
type Breaker struct {
	cfg      BreakerConfig
	clock    timerx.Clock
	onChange func(from, to State)

	mu        sync.Mutex
	state     State
	failures  int
	changedAt time.Time
	openedAt  time.Time
	probing   bool
}

// NewBreaker creates a closed breaker. onChange may be nil.
func NewBreaker(cfg BreakerConfig, clock timerx.Clock, onChange func(from, to State)) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 1
	}
	return &Breaker{
		cfg:       cfg,
		clock:     clock,
		onChange:  onChange,
		changedAt: clock.Now(),
	}
}

// Allow admits or refuses a call. An open breaker whose timeout has elapsed
// moves to half-open and admits exactly one probe; calls arriving while the
// probe is in flight are refused. On refusal it returns the time left until a
// probe will be admitted (zero while a probe is in flight).
func (b *Breaker) Allow() (time.Duration, bool) {
	b.mu.Lock()

	now := b.clock.Now()
	var from State
	changed := false

	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return 0, true
	case StateOpen:
		reopen := b.openedAt.Add(b.cfg.Timeout)
		if now.Before(reopen) {
			b.mu.Unlock()
			return reopen.Sub(now), false
		}
		from, changed = b.setLocked(StateHalfOpen, now), true
		b.probing = true
	case StateHalfOpen:
		if b.probing {
			b.mu.Unlock()
			return 0, false
		}
		b.probing = true
	}
	b.mu.Unlock()

	if changed {
		b.notify(from, StateHalfOpen)
	}
	return 0, true
}

// Success records a successful call.
func (b *Breaker) Success() {
	b.mu.Lock()
	b.failures = 0
	if b.state != StateHalfOpen {
		b.mu.Unlock()
		return
	}
	b.probing = false
	from := b.setLocked(StateClosed, b.clock.Now())
	b.mu.Unlock()

	b.notify(from, StateClosed)
}

// Failure records a general failure.
func (b *Breaker) Failure() {
	b.mu.Lock()
	now := b.clock.Now()

	switch b.state {
	case StateHalfOpen:
		b.probing = false
		b.failures++
	case StateClosed:
		b.failures++
		if b.failures < b.cfg.Threshold {
			b.mu.Unlock()
			return
		}
	case StateOpen:
		b.mu.Unlock()
		return
	}

	b.openedAt = now
	from := b.setLocked(StateOpen, now)
	b.mu.Unlock()

	b.notify(from, StateOpen)
}

// Release frees a half-open probe slot after a call whose outcome says
// nothing about backend health, such as an auth failure.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.probing = false
	}
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.failures = 0
	b.probing = false
	if b.state == StateClosed {
		b.mu.Unlock()
		return
	}
	from := b.setLocked(StateClosed, b.clock.Now())
	b.mu.Unlock()

	b.notify(from, StateClosed)
}

// State returns the current state without transitioning.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns the breaker's state and counters.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerSnapshot{
		State:     b.state,
		StateName: b.state.String(),
		Failures:  b.failures,
		ChangedAt: b.changedAt,
		OpenedAt:  b.openedAt,
	}
}

func (b *Breaker) setLocked(to State, now time.Time) State {
	from := b.state
	b.state = to
	b.changedAt = now
	return from
}

func (b *Breaker) notify(from, to State) {
	if b.onChange != nil && from != to {
		b.onChange(from, to)
	}
}
