package session

import (
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/portal/pkg/idx"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
)

// Status is a point-in-time view of the controller for UI polling.
type Status struct {
	State      string          `json:"state"`
	SessionID  idx.ID          `json:"session_id,omitempty"`
	User       json.RawMessage `json:"user,omitempty"`
	TokenState string          `json:"token_state"`
	ExpiresAt  time.Time       `json:"expires_at,omitzero"`

	StartedAt    time.Time `json:"started_at,omitzero"`
	WarningAt    time.Time `json:"warning_at,omitzero"`
	LogoutAt     time.Time `json:"logout_at,omitzero"`
	LastActivity time.Time `json:"last_activity,omitzero"`
	Latched      bool      `json:"latched,omitempty"`

	AuthFailures     int     `json:"auth_failures"`
	CooldownSeconds  float64 `json:"cooldown_seconds,omitempty"`
	LockoutSeconds   float64 `json:"lockout_seconds,omitempty"`
	CountdownSeconds float64 `json:"countdown_seconds,omitempty"`
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Status {
	now := c.clock.Now()

	c.mu.Lock()
	st := Status{
		State:      c.state.String(),
		SessionID:  c.sid,
		User:       c.user,
		TokenState: jwtx.ClassifyWithThreshold(c.tokens.AccessToken, now, c.cfg.RefreshThreshold).String(),
		ExpiresAt:  jwtx.ExpiresAt(c.tokens.AccessToken),
		Latched:    c.latched,
	}
	if c.state.active() {
		st.StartedAt = c.start
		st.WarningAt = c.target
		st.LastActivity = c.monitor.LastActivity()
	}
	if c.state == StateWarning {
		if deadline, ok := c.sched.Deadline(timerCountdown); ok {
			st.LogoutAt = deadline
			st.CountdownSeconds = max(deadline.Sub(now), 0).Seconds()
		}
	}
	if !c.lockoutUntil.IsZero() && now.Before(c.lockoutUntil) {
		st.LockoutSeconds = c.lockoutUntil.Sub(now).Seconds()
	}
	c.mu.Unlock()

	st.AuthFailures = c.cooldown.Failures()
	if remaining, ok := c.cooldown.Active(now); ok {
		st.CooldownSeconds = remaining.Seconds()
	}
	return st
}
