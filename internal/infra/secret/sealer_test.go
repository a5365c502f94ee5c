package secret_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"voice-chat/internal/infra/secret"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := secret.New(testKey())
	require.NoError(t, err)

	for _, plain := range []string{"sk-or-v1-abc", "", "äöü-key"} {
		sealed, err := s.Seal(plain)
		require.NoError(t, err)
		require.True(t, secret.IsSealed(sealed))
		if plain != "" {
			require.NotContains(t, sealed, plain)
		}

		opened, err := s.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, plain, opened)
	}
}

func TestSealer_FreshNoncePerSeal(t *testing.T) {
	s, err := secret.New(testKey())
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSealer_PlainValuesPassThrough(t *testing.T) {
	s, err := secret.New(testKey())
	require.NoError(t, err)

	opened, err := s.Open("legacy-plain-key")
	require.NoError(t, err)
	require.Equal(t, "legacy-plain-key", opened)
}

func TestSealer_WrongKeyFails(t *testing.T) {
	s1, err := secret.New(testKey())
	require.NoError(t, err)
	s2, err := secret.New(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)

	sealed, err := s1.Seal("secret")
	require.NoError(t, err)

	_, err = s2.Open(sealed)
	require.ErrorIs(t, err, secret.ErrInvalidSealed)

	_, err = s1.Open("enc:v1:" + strings.Repeat("A", 8))
	require.ErrorIs(t, err, secret.ErrInvalidSealed)
}

func TestNew_RejectsShortKey(t *testing.T) {
	_, err := secret.New([]byte("short"))
	require.ErrorIs(t, err, secret.ErrInvalidKey)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "master.key")

	key, err := secret.LoadOrCreateKey(path)
	require.NoError(t, err)
	require.Len(t, key, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := secret.LoadOrCreateKey(path)
	require.NoError(t, err)
	require.Equal(t, key, again)

	require.NoError(t, os.WriteFile(path, []byte("bad"), 0o600))
	_, err = secret.LoadOrCreateKey(path)
	require.ErrorIs(t, err, secret.ErrInvalidKey)
}
