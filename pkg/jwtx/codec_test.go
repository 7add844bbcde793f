package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	now     = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	testKey = []byte("test-signing-key")
)

func mint(t *testing.T, ttl time.Duration) string {
	t.Helper()

	token, err := jwtx.Sign(jwtx.NewClaims("emp-42", "ada@example.com", ttl, now), testKey)
	require.NoError(t, err)
	return token
}

func TestDecode(t *testing.T) {
	t.Run("extracts expiry and custom claims", func(t *testing.T) {
		claims, err := jwtx.Decode(mint(t, 20*time.Minute))
		require.NoError(t, err)
		require.Equal(t, now.Add(20*time.Minute), claims.Expiry().UTC())
		require.Equal(t, "emp-42", claims.Subject)
		require.Equal(t, "ada@example.com", claims.Email)
	})

	t.Run("expired tokens still decode", func(t *testing.T) {
		claims, err := jwtx.Decode(mint(t, -time.Hour))
		require.NoError(t, err)
		require.True(t, claims.Expiry().Before(now))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := jwtx.Decode("not-a-token")
		require.ErrorIs(t, err, jwtx.ErrDecode)
	})

	t.Run("empty is rejected", func(t *testing.T) {
		_, err := jwtx.Decode("   ")
		require.ErrorIs(t, err, jwtx.ErrDecode)
	})

	t.Run("missing exp is rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: "emp-42",
		}).SignedString(testKey)
		require.NoError(t, err)

		_, err = jwtx.Decode(token)
		require.ErrorIs(t, err, jwtx.ErrDecode)
	})
}

func TestClassify(t *testing.T) {
	t.Run("no token is missing", func(t *testing.T) {
		require.Equal(t, jwtx.TokenMissing, jwtx.Classify("", now))
	})

	t.Run("undecodable token is invalid", func(t *testing.T) {
		require.Equal(t, jwtx.TokenInvalid, jwtx.Classify("a.b.c", now))
	})

	t.Run("expires in three minutes needs refresh", func(t *testing.T) {
		require.Equal(t, jwtx.TokenNeedsRefresh, jwtx.Classify(mint(t, 3*time.Minute), now))
	})

	t.Run("expired a minute ago is expired", func(t *testing.T) {
		require.Equal(t, jwtx.TokenExpired, jwtx.Classify(mint(t, -time.Minute), now))
	})

	t.Run("expiring exactly now is expired", func(t *testing.T) {
		require.Equal(t, jwtx.TokenExpired, jwtx.Classify(mint(t, 0), now))
	})

	t.Run("exactly at the threshold is valid", func(t *testing.T) {
		require.Equal(t, jwtx.TokenValid, jwtx.Classify(mint(t, jwtx.RefreshThreshold), now))
	})

	t.Run("far from expiry is valid", func(t *testing.T) {
		require.Equal(t, jwtx.TokenValid, jwtx.Classify(mint(t, time.Hour), now))
	})

	t.Run("custom threshold", func(t *testing.T) {
		token := mint(t, 3*time.Minute)
		require.Equal(t, jwtx.TokenValid, jwtx.ClassifyWithThreshold(token, now, time.Minute))
	})

	t.Run("same inputs give the same state", func(t *testing.T) {
		tokens := []string{"", "junk", mint(t, -time.Minute), mint(t, 2*time.Minute), mint(t, time.Hour)}
		for _, token := range tokens {
			first := jwtx.Classify(token, now)
			for range 5 {
				require.Equal(t, first, jwtx.Classify(token, now))
			}
		}
	})
}

func TestTokenStateUsable(t *testing.T) {
	require.True(t, jwtx.TokenValid.Usable())
	require.True(t, jwtx.TokenNeedsRefresh.Usable())
	require.False(t, jwtx.TokenExpired.Usable())
	require.False(t, jwtx.TokenInvalid.Usable())
	require.False(t, jwtx.TokenMissing.Usable())
	require.Equal(t, "needs_refresh", jwtx.TokenNeedsRefresh.String())
}
