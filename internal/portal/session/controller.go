// Package session owns the authenticated session: the token pair, the
// inactivity window with its last-chance refresh and warning countdown, the
// auth failure cooldown and the login lockout.
//
// Every transition is computed under the controller's mutex. Side effects
// (publishing, network calls, logout) run after it is released. At most one
// lifecycle timer is armed at a time.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/activity"
	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/idx"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/timerx"
	"golang.org/x/sync/singleflight"
)

const (
	timerLastChance = "last_chance"
	timerWarning    = "warning"
	timerCountdown  = "countdown"
)

// Deps are the controller's collaborators. API and Monitor are required.
type Deps struct {
	Clock    timerx.Clock
	Logger   *slog.Logger
	API      AuthAPI
	Store    Persister
	Monitor  *activity.Monitor
	Notifier Notifier
}

// Controller is the session state machine. Construct one per runtime with New.
type Controller struct {
	cfg     Config
	clock   timerx.Clock
	log     *slog.Logger
	api     AuthAPI
	store   Persister
	monitor *activity.Monitor
	notify  Notifier

	sched    *timerx.Scheduler
	cooldown *resilience.Cooldown
	flight   singleflight.Group
	wg       sync.WaitGroup

	mu           sync.Mutex
	state        State
	sid          idx.ID
	tokens       portalsdk.TokenPair
	user         json.RawMessage
	start        time.Time
	target       time.Time
	latched      bool
	benefitTried bool
	benefitWait  chan struct{}
	ending       bool
	stopListen   func()
	lockoutUntil time.Time
	logout       Logouter
}

// effect is a side effect computed under the lock and run after it.
type effect func()

func New(cfg Config, deps Deps) *Controller {
	clock := deps.Clock
	if clock == nil {
		clock = timerx.Real()
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	monitor := deps.Monitor
	if monitor == nil {
		monitor = activity.New(clock, activity.DefaultThrottle)
	}

	return &Controller{
		cfg:      cfg,
		clock:    clock,
		log:      log,
		api:      deps.API,
		store:    deps.Store,
		monitor:  monitor,
		notify:   deps.Notifier,
		sched:    timerx.NewScheduler(clock),
		cooldown: resilience.NewCooldown(cfg.Cooldown),
	}
}

// BindLogout sets the collaborator that performs forced logouts. Without one
// the controller only terminates itself.
func (c *Controller) BindLogout(l Logouter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logout = l
}

// Monitor returns the activity monitor feeding the controller.
func (c *Controller) Monitor() *activity.Monitor { return c.monitor }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until background refreshes started by activity have finished.
func (c *Controller) Wait() { c.wg.Wait() }

// Terminate clears timers, listeners and in-memory credentials. It reports
// whether a session was live. Persisted keys are left to the caller.
func (c *Controller) Terminate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.state.active()
	c.sched.CancelAll()
	c.stopListeningLocked()
	c.cooldown.Reset()

	c.tokens = portalsdk.TokenPair{}
	c.user = nil
	c.sid = idx.Zero
	c.start, c.target = time.Time{}, time.Time{}
	c.latched, c.benefitTried = false, false
	c.benefitWait = nil
	if live {
		c.state = StateLoggedOut
	}
	return live
}

// ReportOutcome implements resilience.OutcomeReporter. Auth failures feed the
// cooldown; successes clear its count.
func (c *Controller) ReportOutcome(o resilience.Outcome) {
	switch o.Class {
	case resilience.OutcomeAuthFailure:
		if remaining, active := c.cooldown.Failure(o.At); active {
			c.log.Warn("auth_cooldown_active",
				"endpoint", o.Endpoint,
				"status", o.Status,
				"failures", c.cooldown.Failures(),
				"remaining", remaining,
			)
		}
	case resilience.OutcomeSuccess:
		c.cooldown.Success()
	}
}

// AuthCooldown implements resilience.CooldownGate.
func (c *Controller) AuthCooldown(now time.Time) (time.Duration, bool) {
	return c.cooldown.Active(now)
}

// begin installs a new session and arms the monitoring timer.
func (c *Controller) beginLocked(pair portalsdk.TokenPair, user json.RawMessage) effect {
	now := c.clock.Now()

	c.sched.CancelAll()
	c.stopListeningLocked()
	c.cooldown.Reset()

	c.sid = idx.NewAt(now)
	c.tokens = pair
	c.user = user
	c.ending = false
	c.monitor.Reset(now)
	c.openWindowLocked(now)

	sid := c.sid
	c.log.Info("session_started", "session_id", sid, "token_fp", cryptox.Fingerprint(pair.AccessToken), "warning_at", c.target)
	return func() {
		c.mu.Lock()
		live, target := c.sid == sid, c.target
		c.mu.Unlock()
		if live {
			c.publish(Event{Kind: EventStarted, SessionID: sid, At: now, Deadline: target, User: user})
		}
	}
}

// openWindowLocked starts a fresh inactivity window at now.
func (c *Controller) openWindowLocked(now time.Time) {
	c.start = now
	c.target = c.targetLocked()
	c.latched = false
	c.benefitTried = false
	c.benefitWait = nil
	c.armMonitoringLocked()
}

// targetLocked is the earlier of the end of the inactivity budget and the
// access token's expiry.
func (c *Controller) targetLocked() time.Time {
	target := c.start.Add(c.cfg.InactivityBudget)
	if exp := jwtx.ExpiresAt(c.tokens.AccessToken); !exp.IsZero() && exp.Before(target) {
		target = exp
	}
	return target
}

func (c *Controller) stopListeningLocked() {
	if c.stopListen != nil {
		c.stopListen()
		c.stopListen = nil
	}
}

func (c *Controller) publish(e Event) {
	if c.notify == nil {
		return
	}
	c.notify.Publish(context.Background(), e)
}

// requestLogout asks the bound Logouter to end sid, at most once per session.
func (c *Controller) requestLogout(sid idx.ID, reason Reason) {
	c.mu.Lock()
	if c.sid != sid || c.ending || !c.state.active() {
		c.mu.Unlock()
		return
	}
	c.ending = true
	lo := c.logout
	c.mu.Unlock()

	c.log.Info("session_force_logout", "session_id", sid, "reason", reason)
	if lo == nil {
		c.Terminate()
		return
	}
	lo.Logout(context.Background(), reason)
}

func (c *Controller) persist(ctx context.Context) {
	if c.store == nil {
		return
	}

	c.mu.Lock()
	if !c.state.active() {
		c.mu.Unlock()
		return
	}
	sess := storeSession(c.tokens, c.user)
	c.mu.Unlock()

	if err := c.store.Save(ctx, sess); err != nil {
		c.log.Error("session_persist_failed", "error", err)
	}
}
