package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealer(t *testing.T) {
	sealer, err := cryptox.NewSealer([]byte("test-master-key-for-sealing-12345"), "session-keys")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("eyJhbGciOi..."), "access_token")
		require.NoError(t, err)
		require.NotContains(t, string(sealed), "eyJhbGciOi")

		plain, err := sealer.Open(sealed, "access_token")
		require.NoError(t, err)
		require.Equal(t, "eyJhbGciOi...", string(plain))
	})

	t.Run("random nonce per seal", func(t *testing.T) {
		a, err := sealer.Seal([]byte("same"), "k")
		require.NoError(t, err)
		b, err := sealer.Seal([]byte("same"), "k")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("label is authenticated", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("refresh"), "refresh_token")
		require.NoError(t, err)

		_, err = sealer.Open(sealed, "access_token")
		require.ErrorIs(t, err, cryptox.ErrSealed)
	})

	t.Run("tampering is detected", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("profile"), "user_profile")
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff

		_, err = sealer.Open(sealed, "user_profile")
		require.ErrorIs(t, err, cryptox.ErrSealed)
	})

	t.Run("short input", func(t *testing.T) {
		_, err := sealer.Open([]byte("short"), "k")
		require.ErrorIs(t, err, cryptox.ErrSealed)
	})

	t.Run("different purpose cannot open", func(t *testing.T) {
		other, err := cryptox.NewSealer([]byte("test-master-key-for-sealing-12345"), "other")
		require.NoError(t, err)

		sealed, err := sealer.Seal([]byte("x"), "k")
		require.NoError(t, err)

		_, err = other.Open(sealed, "k")
		require.ErrorIs(t, err, cryptox.ErrSealed)
	})
}

func TestLoadMasterKey(t *testing.T) {
	t.Run("file takes precedence", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
		t.Setenv("PORTAL_TEST_MASTER_KEY", "from-env")

		material, ephemeral, err := cryptox.LoadMasterKey(cryptox.KeySource{Path: path, Env: "PORTAL_TEST_MASTER_KEY"})
		require.NoError(t, err)
		require.False(t, ephemeral)
		require.Equal(t, "from-file", string(material))
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("PORTAL_TEST_MASTER_KEY", "from-env")

		material, ephemeral, err := cryptox.LoadMasterKey(cryptox.KeySource{Env: "PORTAL_TEST_MASTER_KEY"})
		require.NoError(t, err)
		require.False(t, ephemeral)
		require.Equal(t, "from-env", string(material))
	})

	t.Run("ephemeral fallback", func(t *testing.T) {
		material, ephemeral, err := cryptox.LoadMasterKey(cryptox.KeySource{Env: "PORTAL_TEST_UNSET_KEY"})
		require.NoError(t, err)
		require.True(t, ephemeral)
		require.Len(t, material, 32)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := cryptox.LoadMasterKey(cryptox.KeySource{Path: filepath.Join(t.TempDir(), "nope")})
		require.Error(t, err)
	})
}
