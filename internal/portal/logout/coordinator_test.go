package logout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/events"
	"github.com/aussiebroadwan/portal/internal/portal/logout"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/pkg/slogx"
	"github.com/aussiebroadwan/portal/pkg/timerx"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type fakeSession struct {
	mu         sync.Mutex
	live       bool
	terminates int
	onTerm     func()
}

func (s *fakeSession) Terminate() bool {
	s.mu.Lock()
	s.terminates++
	live := s.live
	s.live = false
	fn := s.onTerm
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return live
}

type fakeKeys struct {
	clears int
	err    error
}

func (k *fakeKeys) Clear(context.Context) error {
	k.clears++
	return k.err
}

type published struct {
	mu     sync.Mutex
	events []session.Event
	toasts []events.Toast
	navs   []events.Navigation
	host   []events.HostPost
}

func (p *published) Publish(_ context.Context, e session.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *published) Toast(_ context.Context, t events.Toast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toasts = append(p.toasts, t)
	return nil
}

func (p *published) Navigate(_ context.Context, n events.Navigation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navs = append(p.navs, n)
	return nil
}

func (p *published) PostToHost(_ context.Context, origin string, msg events.HostMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.host = append(p.host, events.HostPost{TargetOrigin: origin, Message: msg})
	return nil
}

type fixture struct {
	clock *timerx.Fake
	sess  *fakeSession
	keys  *fakeKeys
	pub   *published
	coord *logout.Coordinator
}

func newFixture(cfg logout.Config) *fixture {
	f := &fixture{
		clock: timerx.NewFake(epoch),
		sess:  &fakeSession{live: true},
		keys:  &fakeKeys{},
		pub:   &published{},
	}
	f.coord = logout.New(cfg, logout.Deps{
		Clock:     f.clock,
		Logger:    slogx.Discard(),
		Session:   f.sess,
		Keys:      f.keys,
		Publisher: f.pub,
	})
	return f
}

func TestStandaloneLogout(t *testing.T) {
	f := newFixture(logout.DefaultConfig())

	f.coord.Logout(context.Background(), session.ReasonInactivity)

	require.Equal(t, 1, f.sess.terminates)
	require.Equal(t, 1, f.keys.clears)
	require.Len(t, f.pub.events, 1)
	require.Equal(t, session.EventLoggedOut, f.pub.events[0].Kind)
	require.Equal(t, session.ReasonInactivity, f.pub.events[0].Reason)
	require.Equal(t, []events.Toast{logout.ToastFor(session.ReasonInactivity)}, f.pub.toasts)
	require.Equal(t, []events.Navigation{{Path: "/login", Replace: true}}, f.pub.navs)
	require.Empty(t, f.pub.host)
}

func TestEmbeddedHandshake(t *testing.T) {
	cfg := logout.DefaultConfig()
	cfg.Embedded = true
	cfg.Referrer = "https://intranet.example.com/hr/portal?tab=leave"
	f := newFixture(cfg)

	f.coord.Logout(context.Background(), session.ReasonExplicit)

	require.Empty(t, f.pub.navs)
	require.Len(t, f.pub.host, 1)
	require.Equal(t, "https://intranet.example.com", f.pub.host[0].TargetOrigin)
	require.Equal(t, events.HostMessage{
		Type:      events.HostLogoutRequest,
		Source:    "ess-portal",
		Timestamp: epoch.UnixMilli(),
		Data:      map[string]any{"reason": "explicit"},
	}, f.pub.host[0].Message)

	f.clock.Advance(99 * time.Millisecond)
	require.Len(t, f.pub.host, 1)

	f.clock.Advance(time.Millisecond)
	f.coord.Wait()
	require.Len(t, f.pub.host, 2)
	require.Equal(t, events.HostLogoutComplete, f.pub.host[1].Message.Type)
	require.Equal(t, epoch.Add(100*time.Millisecond).UnixMilli(), f.pub.host[1].Message.Timestamp)
}

func TestLogoutIdempotent(t *testing.T) {
	t.Run("second logout has no user-facing effect", func(t *testing.T) {
		f := newFixture(logout.DefaultConfig())

		f.coord.Logout(context.Background(), session.ReasonInactivity)
		f.coord.Logout(context.Background(), session.ReasonExplicit)

		require.Len(t, f.pub.toasts, 1)
		require.Len(t, f.pub.navs, 1)
		require.Equal(t, 2, f.keys.clears)
	})

	t.Run("re-entrant logout is ignored", func(t *testing.T) {
		f := newFixture(logout.DefaultConfig())
		f.sess.onTerm = func() {
			f.coord.Logout(context.Background(), session.ReasonSessionExpired)
		}

		f.coord.Logout(context.Background(), session.ReasonInactivity)

		require.Equal(t, 1, f.sess.terminates)
		require.Equal(t, 1, f.keys.clears)
		require.Len(t, f.pub.toasts, 1)
		require.Equal(t, session.ReasonInactivity, f.pub.events[0].Reason)
	})

	t.Run("key store failure does not stop the logout", func(t *testing.T) {
		f := newFixture(logout.DefaultConfig())
		f.keys.err = errors.New("disk full")

		f.coord.Logout(context.Background(), session.ReasonExplicit)
		require.Len(t, f.pub.navs, 1)
	})
}

func TestTargetOrigin(t *testing.T) {
	require.Equal(t, "https://hr.example.com:8443", logout.TargetOrigin("https://hr.example.com:8443/a/b"))
	require.Equal(t, "*", logout.TargetOrigin(""))
	require.Equal(t, "*", logout.TargetOrigin("not a url"))
	require.Equal(t, "*", logout.TargetOrigin("/relative/path"))
}

func TestToastFor(t *testing.T) {
	require.Equal(t, events.ToastWarning, logout.ToastFor(session.ReasonInactivity).Level)
	require.Equal(t, events.ToastWarning, logout.ToastFor(session.ReasonSessionExpired).Level)
	require.Equal(t, events.ToastError, logout.ToastFor(session.ReasonInvalidSession).Level)
	require.Equal(t, events.ToastInfo, logout.ToastFor(session.ReasonExplicit).Level)
	require.Equal(t, "explicit", logout.ToastFor(session.ReasonExplicit).Reason)
}
