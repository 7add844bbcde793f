package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/idx"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// GetValidToken returns the access token if a request may carry it.
//
// A token close to expiry is still returned. An expired token gets one
// refresh per window while the user is inside the inactivity budget, and
// callers arriving while it runs wait for its outcome; otherwise the warning
// is shown and no token is returned. A malformed token ends the session.
func (c *Controller) GetValidToken(ctx context.Context) (string, bool) {
	return c.validToken(ctx, true)
}

func (c *Controller) validToken(ctx context.Context, mayRefresh bool) (string, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	sid := c.sid
	token := c.tokens.AccessToken
	switch jwtx.ClassifyWithThreshold(token, now, c.cfg.RefreshThreshold) {
	case jwtx.TokenValid, jwtx.TokenNeedsRefresh:
		c.mu.Unlock()
		return token, true

	case jwtx.TokenInvalid:
		live := c.state.active()
		c.mu.Unlock()
		if live {
			c.log.Warn("session_token_invalid", "session_id", sid)
			c.requestLogout(sid, ReasonInvalidSession)
		}
		return "", false

	case jwtx.TokenExpired:
		if !c.state.active() {
			c.mu.Unlock()
			return "", false
		}
		if mayRefresh && c.state != StateWarning && !c.benefitTried && c.tokens.RefreshToken != "" &&
			c.monitor.TimeSinceLastActivity(now) < c.cfg.InactivityBudget {
			c.benefitTried = true
			c.benefitWait = make(chan struct{})
			c.wg.Add(1)
			go c.benefitRefresh(sid, c.benefitWait)
		}
		if wait := c.benefitWait; wait != nil {
			c.mu.Unlock()
			select {
			case <-wait:
				return c.validToken(ctx, false)
			case <-ctx.Done():
				return "", false
			}
		}

		var fx effect
		if c.state != StateWarning {
			fx = c.enterWarningLocked(now)
		}
		c.mu.Unlock()
		if fx != nil {
			fx()
		}
		return "", false

	default:
		c.mu.Unlock()
		return "", false
	}
}

// ValidToken implements resilience.TokenSource.
func (c *Controller) ValidToken(ctx context.Context) (string, bool) {
	return c.GetValidToken(ctx)
}

// ExtendSession refreshes the token from the warning (or any live state).
// On success a new window opens and the auth cooldown is cleared. A rejected
// refresh token ends the session; any other failure is returned and the
// countdown keeps running.
func (c *Controller) ExtendSession(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.active() {
		c.mu.Unlock()
		return ErrNoSession
	}
	sid := c.sid
	c.mu.Unlock()

	if _, err := c.refresh(ctx, sid); err != nil {
		c.log.Warn("session_extend_failed", "session_id", sid, "error", err)
		if errors.Is(err, ErrRefreshRejected) {
			c.requestLogout(sid, ReasonSessionExpired)
		}
		return err
	}

	c.cooldown.Reset()
	c.log.Info("session_extended", "session_id", sid)
	c.publish(Event{Kind: EventExtended, SessionID: sid, At: c.clock.Now()})
	return nil
}

// benefitRefresh runs the single refresh granted to an expired token and
// applies its outcome before releasing the callers waiting on wait.
func (c *Controller) benefitRefresh(sid idx.ID, wait chan struct{}) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		if c.benefitWait == wait {
			c.benefitWait = nil
		}
		c.mu.Unlock()
		close(wait)
	}()

	_, err := c.refresh(context.Background(), sid)
	switch {
	case err == nil:
		c.publish(Event{Kind: EventRefreshed, SessionID: sid, At: c.clock.Now()})
	case errors.Is(err, ErrRefreshRejected):
		c.requestLogout(sid, ReasonSessionExpired)
	case errors.Is(err, ErrStaleSession):
	default:
		c.log.Warn("session_expired_token_refresh_failed", "session_id", sid, "error", err)

		var fx effect
		c.mu.Lock()
		if c.sid == sid && c.state.active() && c.state != StateWarning {
			fx = c.enterWarningLocked(c.clock.Now())
		}
		c.mu.Unlock()
		if fx != nil {
			fx()
		}
	}
}

// refreshForPresence runs the single last-chance refresh. A failure leaves
// the window latched so the warning fires at its instant.
func (c *Controller) refreshForPresence(sid idx.ID) {
	_, err := c.refresh(context.Background(), sid)
	switch {
	case err == nil:
		c.publish(Event{Kind: EventRefreshed, SessionID: sid, At: c.clock.Now()})
	case errors.Is(err, ErrRefreshRejected):
		c.requestLogout(sid, ReasonSessionExpired)
	case errors.Is(err, ErrStaleSession):
	default:
		c.log.Warn("session_last_chance_refresh_failed", "session_id", sid, "error", err)
	}
}

// refresh exchanges the refresh token of sid. Concurrent callers for the
// same session share one call. The call is not cancelled by ctx and its
// result is applied even if every caller has gone.
func (c *Controller) refresh(ctx context.Context, sid idx.ID) (*portalsdk.TokenPair, error) {
	c.mu.Lock()
	if c.sid != sid || !c.state.active() {
		c.mu.Unlock()
		return nil, ErrStaleSession
	}
	rt := c.tokens.RefreshToken
	c.mu.Unlock()

	if rt == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrRefreshRejected)
	}

	base := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(sid.String(), func() (any, error) {
		rctx, cancel := context.WithTimeout(base, c.cfg.RefreshTimeout)
		defer cancel()

		pair, err := c.api.Refresh(rctx, rt)
		if err != nil {
			var apiErr *portalsdk.APIError
			if errors.As(err, &apiErr) && apiErr.Unauthorized() {
				return nil, fmt.Errorf("%w: %w", ErrRefreshRejected, err)
			}
			return nil, fmt.Errorf("refresh: %w", err)
		}

		if err := c.applyRefresh(sid, *pair); err != nil {
			return nil, err
		}
		c.persist(base)
		return pair, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*portalsdk.TokenPair), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// applyRefresh installs pair and opens a new window if sid is still live.
func (c *Controller) applyRefresh(sid idx.ID, pair portalsdk.TokenPair) error {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sid != sid || !c.state.active() {
		c.log.Debug("session_refresh_discarded", "session_id", sid)
		return ErrStaleSession
	}

	c.tokens = pair
	c.monitor.Reset(now)
	c.openWindowLocked(now)
	c.log.Info("session_refreshed", "session_id", sid, "token_fp", cryptox.Fingerprint(pair.AccessToken), "warning_at", c.target)
	return nil
}

func storeSession(pair portalsdk.TokenPair, user []byte) store.Session {
	return store.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}
}
