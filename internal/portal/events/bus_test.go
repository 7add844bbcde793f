package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/events"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *events.Bus {
	t.Helper()
	bus := events.NewBus(events.Config{BufferSize: 8}, nil, slogx.Discard())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func receive(t *testing.T, ch <-chan events.Envelope) events.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return events.Envelope{}
	}
}

func TestBus(t *testing.T) {
	t.Run("delivers each topic with its payload", func(t *testing.T) {
		bus := newBus(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := bus.Subscribe(ctx, events.TopicSession)
		require.NoError(t, err)

		at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
		bus.Publish(ctx, session.Event{Kind: session.EventWarning, At: at, Deadline: at.Add(5 * time.Minute)})

		env := receive(t, ch)
		require.Equal(t, events.TopicSession, env.Topic)
		require.NotEmpty(t, env.ID)

		var got session.Event
		require.NoError(t, json.Unmarshal(env.Payload, &got))
		require.Equal(t, session.EventWarning, got.Kind)
		require.Equal(t, at.Add(5*time.Minute), got.Deadline)
	})

	t.Run("subscribes to every topic by default", func(t *testing.T) {
		bus := newBus(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := bus.Subscribe(ctx)
		require.NoError(t, err)

		require.NoError(t, bus.Toast(ctx, events.Toast{Level: events.ToastInfo, Message: "hello"}))
		require.Equal(t, events.TopicToast, receive(t, ch).Topic)

		require.NoError(t, bus.Navigate(ctx, events.Navigation{Path: "/login", Replace: true}))
		require.Equal(t, events.TopicNavigate, receive(t, ch).Topic)

		require.NoError(t, bus.PostToHost(ctx, "*", events.HostMessage{Type: events.HostLogoutComplete, Source: "ess-portal"}))
		env := receive(t, ch)
		require.Equal(t, events.TopicHost, env.Topic)
		require.JSONEq(t,
			`{"target_origin":"*","message":{"type":"ESS_LOGOUT_COMPLETE","source":"ess-portal","timestamp":0}}`,
			string(env.Payload))
	})

	t.Run("subscription closes with its context", func(t *testing.T) {
		bus := newBus(t)
		ctx, cancel := context.WithCancel(context.Background())

		ch, err := bus.Subscribe(ctx, events.TopicToast)
		require.NoError(t, err)
		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-ch:
				return !ok
			default:
				return false
			}
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("publishing without subscribers is not an error", func(t *testing.T) {
		bus := newBus(t)
		require.NoError(t, bus.Toast(context.Background(), events.Toast{Level: events.ToastError, Message: "dropped"}))
	})
}
