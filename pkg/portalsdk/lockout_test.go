package portalsdk_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

func TestParseLockout(t *testing.T) {
	secs := func(n int) *int { return &n }

	t.Run("structured field wins over message", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusTooManyRequests, secs(90), "try again in 15 minutes")
		require.True(t, ok)
		require.Equal(t, 90*time.Second, d)
	})

	t.Run("zero structured field means no lockout", func(t *testing.T) {
		_, ok := portalsdk.ParseLockout(http.StatusUnauthorized, secs(0), "account locked")
		require.False(t, ok)
	})

	t.Run("try again in minutes", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusTooManyRequests, nil,
			"Too many failed attempts. Please try again in 15 minutes.")
		require.True(t, ok)
		require.Equal(t, 15*time.Minute, d)
	})

	t.Run("try again in one minute", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusTooManyRequests, nil, "Try again in 1 minute")
		require.True(t, ok)
		require.Equal(t, time.Minute, d)
	})

	t.Run("locked for seconds", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusForbidden, nil, "Account locked for 900 seconds")
		require.True(t, ok)
		require.Equal(t, 900*time.Second, d)
	})

	t.Run("locked for minutes", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusForbidden, nil, "Account locked for 5 mins")
		require.True(t, ok)
		require.Equal(t, 5*time.Minute, d)
	})

	t.Run("huge durations are capped", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusTooManyRequests, nil, "try again in 999999999999 minutes")
		require.True(t, ok)
		require.Equal(t, portalsdk.MaxLockout, d)

		d, ok = portalsdk.ParseLockout(http.StatusTooManyRequests, secs(1<<62), "")
		require.True(t, ok)
		require.Equal(t, portalsdk.MaxLockout, d)

		d, ok = portalsdk.ParseLockout(http.StatusForbidden, nil, "Account locked for 86400 seconds")
		require.True(t, ok)
		require.Equal(t, 24*time.Hour, d)
	})

	t.Run("lock without duration falls back", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusForbidden, nil, "Your account is locked")
		require.True(t, ok)
		require.Equal(t, portalsdk.DefaultLockout, d)
	})

	t.Run("locked status without message falls back", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusLocked, nil, "")
		require.True(t, ok)
		require.Equal(t, portalsdk.DefaultLockout, d)
	})

	t.Run("zero in message falls back", func(t *testing.T) {
		d, ok := portalsdk.ParseLockout(http.StatusTooManyRequests, nil, "try again in 0 minutes")
		require.True(t, ok)
		require.Equal(t, portalsdk.DefaultLockout, d)
	})

	t.Run("plain failure", func(t *testing.T) {
		_, ok := portalsdk.ParseLockout(http.StatusUnauthorized, nil, "Invalid email or password")
		require.False(t, ok)
	})
}
