package activity_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/activity"
	"github.com/aussiebroadwan/portal/pkg/timerx"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRecordActivity(t *testing.T) {
	t.Run("throttles bursts", func(t *testing.T) {
		clock := timerx.NewFake(epoch)
		m := activity.New(clock, 100*time.Millisecond)

		clock.Advance(time.Second)
		require.True(t, m.RecordActivity(activity.Click))
		for range 10 {
			clock.Advance(5 * time.Millisecond)
			require.False(t, m.RecordActivity(activity.Scroll))
		}
		require.Equal(t, epoch.Add(time.Second), m.LastActivity())

		clock.Advance(100 * time.Millisecond)
		require.True(t, m.RecordActivity(activity.Key))
		require.Equal(t, clock.Now(), m.LastActivity())
	})

	t.Run("pointer move is not coarse activity", func(t *testing.T) {
		clock := timerx.NewFake(epoch)
		m := activity.New(clock, 0)

		clock.Advance(time.Minute)
		require.False(t, m.RecordActivity(activity.PointerMove))
		require.Equal(t, time.Minute, m.TimeSinceLastActivity(clock.Now()))
	})

	t.Run("zero throttle records every event", func(t *testing.T) {
		clock := timerx.NewFake(epoch)
		m := activity.New(clock, 0)

		require.True(t, m.RecordActivity(activity.Touch))
		require.True(t, m.RecordActivity(activity.Touch))
	})

	t.Run("reset", func(t *testing.T) {
		clock := timerx.NewFake(epoch)
		m := activity.New(clock, time.Second)

		clock.Advance(10 * time.Minute)
		m.Reset(clock.Now())
		require.Equal(t, time.Duration(0), m.TimeSinceLastActivity(clock.Now()))
	})
}

func TestListen(t *testing.T) {
	clock := timerx.NewFake(epoch)
	m := activity.New(clock, time.Hour)

	var got []activity.Kind
	cancel := m.Listen(activity.Narrow, func(k activity.Kind) { got = append(got, k) })

	m.RecordActivity(activity.Scroll)
	m.RecordActivity(activity.Touch)
	m.RecordActivity(activity.PointerMove)
	m.RecordActivity(activity.Key)
	m.RecordActivity(activity.Key)
	require.Equal(t, []activity.Kind{activity.PointerMove, activity.Key, activity.Key}, got)

	cancel()
	cancel()
	m.RecordActivity(activity.Key)
	require.Len(t, got, 3)
}

func TestParseKind(t *testing.T) {
	k, err := activity.ParseKind("mousemove")
	require.NoError(t, err)
	require.Equal(t, activity.PointerMove, k)

	k, err = activity.ParseKind(" KeyDown ")
	require.NoError(t, err)
	require.Equal(t, activity.Key, k)

	_, err = activity.ParseKind("blink")
	require.Error(t, err)

	require.True(t, activity.Coarse.Has(activity.Scroll))
	require.False(t, activity.Narrow.Has(activity.Scroll))
	require.Equal(t, "pointermove", activity.PointerMove.String())
}
