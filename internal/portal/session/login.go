package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Login exchanges credentials for a session. While a lockout reported by the
// API is running no call is made and a *LockoutError is returned.
func (c *Controller) Login(ctx context.Context, email, password string) (*portalsdk.User, error) {
	if remaining, locked := c.LoginLockoutRemaining(); locked {
		return nil, &LockoutError{Remaining: remaining}
	}

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		var apiErr *portalsdk.APIError
		if errors.As(err, &apiErr) {
			if d, ok := apiErr.Lockout(); ok {
				c.mu.Lock()
				c.lockoutUntil = c.clock.Now().Add(d)
				c.mu.Unlock()

				c.log.Warn("login_locked_out", "email", email, "duration", d)
				return nil, &LockoutError{Remaining: d, Err: err}
			}
		}
		return nil, err
	}

	if jwtx.Classify(resp.Token.AccessToken, c.clock.Now()) == jwtx.TokenInvalid {
		return nil, fmt.Errorf("login: %w", ErrInvalidToken)
	}

	user, err := json.Marshal(resp.User)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	c.mu.Lock()
	c.lockoutUntil = time.Time{}
	fx := c.beginLocked(resp.Token, user)
	c.mu.Unlock()

	c.persist(ctx)
	fx()

	return &resp.User, nil
}

// LoginLockoutRemaining returns the time left on the login lockout.
func (c *Controller) LoginLockoutRemaining() (time.Duration, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lockoutUntil.IsZero() || !now.Before(c.lockoutUntil) {
		return 0, false
	}
	return c.lockoutUntil.Sub(now), true
}

// Resume restores a persisted session at startup. It reports whether a
// session is live afterwards. An unreadable stored session, a malformed
// stored token or a rejected refresh ends the session through the bound
// Logouter; a transient refresh or store failure leaves the stored keys for
// the next start.
func (c *Controller) Resume(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}

	sess, err := c.store.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if errors.Is(err, store.ErrCorrupt) {
		c.log.Warn("session_stored_unreadable", "error", err)
		c.mu.Lock()
		lo := c.logout
		c.mu.Unlock()
		if lo != nil {
			lo.Logout(ctx, ReasonInvalidSession)
		}
		return false, fmt.Errorf("resume: %w: %w", ErrInvalidToken, err)
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}

	pair := portalsdk.TokenPair{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
	state := jwtx.ClassifyWithThreshold(pair.AccessToken, c.clock.Now(), c.cfg.RefreshThreshold)

	c.mu.Lock()
	fx := c.beginLocked(pair, sess.User)
	sid := c.sid
	if state != jwtx.TokenValid && state != jwtx.TokenNeedsRefresh {
		// Nothing is armed until the stored token is replaced.
		c.sched.CancelAll()
	}
	c.mu.Unlock()

	switch state {
	case jwtx.TokenValid, jwtx.TokenNeedsRefresh:
		c.log.Info("session_resumed", "session_id", sid, "token_state", state)
		fx()
		return true, nil

	case jwtx.TokenExpired:
		if _, err := c.refresh(ctx, sid); err != nil {
			if errors.Is(err, ErrRefreshRejected) {
				c.requestLogout(sid, ReasonSessionExpired)
			} else {
				c.Terminate()
				c.resetToInactive()
			}
			return false, fmt.Errorf("resume: %w", err)
		}
		c.log.Info("session_resumed", "session_id", sid, "token_state", state)
		fx()
		return true, nil

	default:
		c.requestLogout(sid, ReasonInvalidSession)
		return false, fmt.Errorf("resume: %w", ErrInvalidToken)
	}
}

// resetToInactive moves a terminated controller back to INACTIVE so that a
// failed resume does not look like a logout.
func (c *Controller) resetToInactive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoggedOut {
		c.state = StateInactive
	}
}
