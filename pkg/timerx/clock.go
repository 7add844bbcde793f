// Package timerx provides wall-clock anchored, named and cancelable timers
// on top of an injectable Clock.
//
// Timers are stored as absolute instants rather than durations. Callers that
// suspect the runtime was paused (host sleep, a hidden tab in an embedding
// host) can recompute the remaining time from the stored instant and re-arm.
package timerx

import "time"

// Timer is a pending callback created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer (false if it had already fired or been stopped).
	Stop() bool
}

// Clock is the source of time and timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
