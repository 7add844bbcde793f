package timerx

import (
	"sort"
	"sync"
	"time"
)

// Scheduler tracks named timers anchored to absolute instants. Arming a name
// that is already armed replaces the previous timer.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
}

type entry struct {
	id    uint64
	at    time.Time
	fn    func()
	timer Timer
}

// NewScheduler creates a Scheduler driven by clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = Real()
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock { return s.clock }

// At arms the named timer to run fn at the wall-clock instant at. If at has
// already passed, fn runs as soon as the clock allows.
func (s *Scheduler) At(name string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[name]; ok {
		old.timer.Stop()
	}

	s.seq++
	e := &entry{id: s.seq, at: at, fn: fn}
	e.timer = s.clock.AfterFunc(at.Sub(s.clock.Now()), s.fire(name, e.id))
	s.entries[name] = e
}

// Cancel stops the named timer. It reports whether a timer was armed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, name)
	return true
}

// CancelAll stops every armed timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, name)
	}
}

// CancelExcept stops every armed timer other than keep.
func (s *Scheduler) CancelExcept(keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		if name == keep {
			continue
		}
		e.timer.Stop()
		delete(s.entries, name)
	}
}

// Deadline returns the instant the named timer is anchored to.
func (s *Scheduler) Deadline(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

// Remaining returns the time left until the named timer fires, computed from
// the stored instant. Negative values mean the instant has passed.
func (s *Scheduler) Remaining(name string) (time.Duration, bool) {
	at, ok := s.Deadline(name)
	if !ok {
		return 0, false
	}
	return at.Sub(s.clock.Now()), true
}

// Rearm recreates every armed timer from its stored instant. Timers whose
// instant has passed fire as soon as the clock allows.
func (s *Scheduler) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for name, e := range s.entries {
		e.timer.Stop()
		s.seq++
		e.id = s.seq
		e.timer = s.clock.AfterFunc(e.at.Sub(now), s.fire(name, e.id))
	}
}

// Armed returns the names of all armed timers, sorted.
func (s *Scheduler) Armed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fire returns the callback bound to one arming of a name. A stale arming
// (replaced, cancelled or re-armed since) does nothing.
func (s *Scheduler) fire(name string, id uint64) func() {
	return func() {
		s.mu.Lock()
		e, ok := s.entries[name]
		if !ok || e.id != id {
			s.mu.Unlock()
			return
		}
		delete(s.entries, name)
		fn := e.fn
		s.mu.Unlock()

		fn()
	}
}
