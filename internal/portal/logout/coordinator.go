// Package logout ends sessions. Every logout path, user initiated or forced
// by the session controller, goes through Coordinator.Logout.
package logout

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/events"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/pkg/timerx"
)

// DefaultSource identifies the portal in embedding host messages.
const DefaultSource = "ess-portal"

// Terminator clears the in-memory session. *session.Controller satisfies it.
type Terminator interface {
	Terminate() bool
}

// Clearer removes persisted session keys. *store.Sessions satisfies it.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Publisher delivers the user-facing side of a logout. *events.Bus
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e session.Event)
	Toast(ctx context.Context, t events.Toast) error
	Navigate(ctx context.Context, n events.Navigation) error
	PostToHost(ctx context.Context, targetOrigin string, msg events.HostMessage) error
}

// Config describes how the portal is hosted.
type Config struct {
	// Embedded portals hand logout to the host page instead of navigating
	Embedded bool
	// Referrer is the embedding page URL, used to target host messages
	Referrer string
	// LoginPath is the standalone login entry point
	LoginPath string
	// HandshakeDelay separates the logout request from its completion
	HandshakeDelay time.Duration
	// Source is sent with every host message
	Source string
}

func DefaultConfig() Config {
	return Config{
		LoginPath:      "/login",
		HandshakeDelay: 100 * time.Millisecond,
		Source:         DefaultSource,
	}
}

// Deps are the coordinator's collaborators.
type Deps struct {
	Clock     timerx.Clock
	Logger    *slog.Logger
	Session   Terminator
	Keys      Clearer
	Publisher Publisher
}

// Coordinator performs idempotent logouts.
type Coordinator struct {
	cfg   Config
	clock timerx.Clock
	log   *slog.Logger
	term  Terminator
	keys  Clearer
	pub   Publisher

	running atomic.Bool
	wg      sync.WaitGroup
}

func New(cfg Config, deps Deps) *Coordinator {
	clock := deps.Clock
	if clock == nil {
		clock = timerx.Real()
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}

	return &Coordinator{
		cfg:   cfg,
		clock: clock,
		log:   log,
		term:  deps.Session,
		keys:  deps.Keys,
		pub:   deps.Publisher,
	}
}

// Logout ends the session for reason. A call made while another is running
// returns immediately. Persisted keys are cleared even when no session was
// live; the notification and the host handshake happen only for a live one.
func (c *Coordinator) Logout(ctx context.Context, reason session.Reason) {
	if !c.running.CompareAndSwap(false, true) {
		c.log.Debug("logout_in_progress", "reason", reason)
		return
	}
	defer c.running.Store(false)

	live := c.term != nil && c.term.Terminate()

	if c.keys != nil {
		if err := c.keys.Clear(ctx); err != nil {
			c.log.Error("logout_clear_keys_failed", "reason", reason, "error", err)
		}
	}

	if !live {
		c.log.Debug("logout_without_session", "reason", reason)
		return
	}

	c.log.Info("logout", "reason", reason, "embedded", c.cfg.Embedded)
	if c.pub == nil {
		return
	}

	now := c.clock.Now()
	c.pub.Publish(ctx, session.Event{Kind: session.EventLoggedOut, At: now, Reason: reason})
	if err := c.pub.Toast(ctx, ToastFor(reason)); err != nil {
		c.log.Warn("logout_toast_failed", "error", err)
	}

	if c.cfg.Embedded {
		c.handshake(reason, now)
		return
	}

	if err := c.pub.Navigate(ctx, events.Navigation{Path: c.cfg.LoginPath, Replace: true}); err != nil {
		c.log.Warn("logout_navigate_failed", "error", err)
	}
}

// handshake tells the host a logout is happening, then after HandshakeDelay
// that it finished.
func (c *Coordinator) handshake(reason session.Reason, now time.Time) {
	origin := TargetOrigin(c.cfg.Referrer)

	request := events.HostMessage{
		Type:      events.HostLogoutRequest,
		Source:    c.cfg.Source,
		Timestamp: now.UnixMilli(),
		Data:      map[string]any{"reason": string(reason)},
	}
	if err := c.pub.PostToHost(context.Background(), origin, request); err != nil {
		c.log.Warn("logout_host_request_failed", "error", err)
	}

	c.wg.Add(1)
	c.clock.AfterFunc(c.cfg.HandshakeDelay, func() {
		defer c.wg.Done()

		done := events.HostMessage{
			Type:      events.HostLogoutComplete,
			Source:    c.cfg.Source,
			Timestamp: c.clock.Now().UnixMilli(),
		}
		if err := c.pub.PostToHost(context.Background(), origin, done); err != nil {
			c.log.Warn("logout_host_complete_failed", "error", err)
		}
	})
}

// Wait blocks until pending host handshakes have completed.
func (c *Coordinator) Wait() { c.wg.Wait() }

// TargetOrigin derives the origin of referrer for host messages, or "*"
// when it has none.
func TargetOrigin(referrer string) string {
	u, err := url.Parse(referrer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "*"
	}
	return u.Scheme + "://" + u.Host
}

// ToastFor classifies the notification shown for reason.
func ToastFor(reason session.Reason) events.Toast {
	t := events.Toast{Reason: string(reason)}
	switch reason {
	case session.ReasonInactivity:
		t.Level = events.ToastWarning
		t.Title = "Signed out"
		t.Message = "You were signed out after a period of inactivity."
	case session.ReasonSessionExpired:
		t.Level = events.ToastWarning
		t.Title = "Session expired"
		t.Message = "Your session has expired. Please sign in again."
	case session.ReasonInvalidSession:
		t.Level = events.ToastError
		t.Title = "Session invalid"
		t.Message = "Your session is no longer valid. Please sign in again."
	default:
		t.Level = events.ToastInfo
		t.Title = "Signed out"
		t.Message = "You have been signed out."
	}
	return t
}
