package session

import (
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/activity"
	"github.com/aussiebroadwan/portal/pkg/idx"
)

// armMonitoringLocked enters MONITORING with the last-chance timer armed.
func (c *Controller) armMonitoringLocked() {
	c.state = StateMonitoring
	c.stopListeningLocked()
	c.sched.CancelAll()
	c.sched.At(timerLastChance, c.target.Add(-c.cfg.LastChanceWindow), c.onLastChance(c.sid))
}

func (c *Controller) onLastChance(sid idx.ID) func() {
	return func() {
		c.mu.Lock()
		if c.sid != sid || c.state != StateMonitoring {
			c.mu.Unlock()
			return
		}
		fx := c.enterLastChanceLocked()
		c.mu.Unlock()
		fx()
	}
}

// enterLastChanceLocked arms the warning timer and listens for presence.
func (c *Controller) enterLastChanceLocked() effect {
	c.state = StateLastChance
	c.latched = false
	c.sched.CancelAll()
	c.sched.At(timerWarning, c.target, c.onWarning(c.sid))

	c.stopListeningLocked()
	c.stopListen = c.monitor.Listen(activity.Narrow, c.onPresence(c.sid))

	sid, target := c.sid, c.target
	c.log.Debug("session_last_chance", "session_id", sid, "warning_at", target)
	return func() {
		c.publish(Event{Kind: EventLastChance, SessionID: sid, At: c.clock.Now(), Deadline: target})
	}
}

// onPresence latches the last-chance window on the first narrow signal and
// issues exactly one refresh for it.
func (c *Controller) onPresence(sid idx.ID) func(activity.Kind) {
	return func(activity.Kind) {
		c.mu.Lock()
		if c.sid != sid || c.state != StateLastChance || c.latched {
			c.mu.Unlock()
			return
		}
		c.latched = true
		c.stopListeningLocked()
		c.wg.Add(1)
		c.mu.Unlock()

		go func() {
			defer c.wg.Done()
			c.refreshForPresence(sid)
		}()
	}
}

func (c *Controller) onWarning(sid idx.ID) func() {
	return func() {
		c.mu.Lock()
		if c.sid != sid || (c.state != StateLastChance && c.state != StateMonitoring) {
			c.mu.Unlock()
			return
		}
		fx := c.enterWarningLocked(c.target)
		c.mu.Unlock()
		fx()
	}
}

// enterWarningLocked shows the warning and arms the countdown from anchor.
func (c *Controller) enterWarningLocked(anchor time.Time) effect {
	c.state = StateWarning
	c.stopListeningLocked()
	c.sched.CancelAll()

	deadline := anchor.Add(c.cfg.WarningCountdown)
	c.sched.At(timerCountdown, deadline, c.onCountdown(c.sid))

	sid := c.sid
	c.log.Info("session_warning", "session_id", sid, "logout_at", deadline)
	return func() {
		c.publish(Event{Kind: EventWarning, SessionID: sid, At: c.clock.Now(), Deadline: deadline})
	}
}

func (c *Controller) onCountdown(sid idx.ID) func() {
	return func() {
		c.mu.Lock()
		if c.sid != sid || c.state != StateWarning {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.requestLogout(sid, ReasonInactivity)
	}
}

// VisibilityChanged recomputes the lifecycle from its stored instants when
// the UI becomes visible again. Timers may have been delayed while hidden;
// transitions whose instant has passed happen immediately.
func (c *Controller) VisibilityChanged(visible bool) {
	if !visible {
		return
	}

	now := c.clock.Now()

	c.mu.Lock()
	sid := c.sid
	fx, logout := c.catchUpLocked(now)
	c.mu.Unlock()

	if logout {
		c.requestLogout(sid, ReasonInactivity)
		return
	}
	if fx != nil {
		fx()
	}
}

// catchUpLocked returns the transition that is due at now, if any, or
// re-arms the current timer.
func (c *Controller) catchUpLocked(now time.Time) (effect, bool) {
	switch c.state {
	case StateMonitoring, StateLastChance:
		logoutAt := c.target.Add(c.cfg.WarningCountdown)
		switch {
		case !now.Before(logoutAt):
			return nil, true
		case !now.Before(c.target):
			return c.enterWarningLocked(c.target), false
		case c.state == StateMonitoring && !now.Before(c.target.Add(-c.cfg.LastChanceWindow)):
			return c.enterLastChanceLocked(), false
		}
		c.sched.Rearm()
		return nil, false

	case StateWarning:
		if deadline, ok := c.sched.Deadline(timerCountdown); ok && !now.Before(deadline) {
			return nil, true
		}
		c.sched.Rearm()
		return nil, false
	}
	return nil, false
}
