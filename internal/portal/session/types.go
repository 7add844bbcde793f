package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/idx"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// State is the controller's position in the session lifecycle.
type State int

const (
	StateInactive State = iota
	StateMonitoring
	StateLastChance
	StateWarning
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateMonitoring:
		return "monitoring"
	case StateLastChance:
		return "last_chance"
	case StateWarning:
		return "warning"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// active reports whether the state holds a live session.
func (s State) active() bool {
	return s == StateMonitoring || s == StateLastChance || s == StateWarning
}

// Reason is why a session ended.
type Reason string

const (
	ReasonInactivity     Reason = "inactivity"
	ReasonExplicit       Reason = "explicit"
	ReasonSessionExpired Reason = "session_expired"
	ReasonInvalidSession Reason = "invalid_session"
)

// Config tunes the lifecycle. All durations are wall-clock.
type Config struct {
	// InactivityBudget is how long a window lasts before the warning
	InactivityBudget time.Duration
	// LastChanceWindow is the span before the warning in which activity
	// triggers one proactive refresh
	LastChanceWindow time.Duration
	// WarningCountdown is how long the warning shows before logout
	WarningCountdown time.Duration
	// RefreshThreshold classifies a token as needing refresh
	RefreshThreshold time.Duration
	// RefreshTimeout bounds each refresh call
	RefreshTimeout time.Duration

	Cooldown resilience.CooldownConfig
}

func DefaultConfig() Config {
	return Config{
		InactivityBudget: 15 * time.Minute,
		LastChanceWindow: 5 * time.Minute,
		WarningCountdown: 5 * time.Minute,
		RefreshThreshold: jwtx.RefreshThreshold,
		RefreshTimeout:   15 * time.Second,
		Cooldown: resilience.CooldownConfig{
			Threshold:     5,
			Base:          30 * time.Second,
			MaxMultiplier: 8,
		},
	}
}

// AuthAPI is the subset of the API client the controller calls.
// *portalsdk.Client satisfies it.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*portalsdk.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*portalsdk.TokenPair, error)
}

// Persister saves and restores the session across restarts.
// *store.Sessions satisfies it.
type Persister interface {
	Save(ctx context.Context, sess store.Session) error
	Load(ctx context.Context) (*store.Session, error)
}

// Logouter ends a session on the controller's behalf. The logout
// coordinator satisfies it and calls back into Terminate.
type Logouter interface {
	Logout(ctx context.Context, reason Reason)
}

// EventKind names a lifecycle signal.
type EventKind string

const (
	EventStarted    EventKind = "session.started"
	EventLastChance EventKind = "session.last_chance"
	EventWarning    EventKind = "session.warning"
	EventExtended   EventKind = "session.extended"
	EventRefreshed  EventKind = "session.refreshed"
	EventLoggedOut  EventKind = "session.logged_out"
)

// Event is a user-facing lifecycle signal.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID idx.ID    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`

	// Deadline is the countdown end for EventWarning and the warning instant
	// for EventLastChance
	Deadline time.Time `json:"deadline,omitzero"`

	Reason Reason          `json:"reason,omitempty"`
	User   json.RawMessage `json:"user,omitempty"`
}

// Notifier delivers lifecycle events to the UI.
type Notifier interface {
	Publish(ctx context.Context, e Event)
}
