package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewTokenIssuer(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewTokenIssuer([]byte("too-short"), "taskforge", time.Hour)
		require.Error(t, err)
	})

	t.Run("rejects empty issuer", func(t *testing.T) {
		_, err := NewTokenIssuer(testSecret, "", time.Hour)
		require.Error(t, err)
	})

	t.Run("defaults ttl when unset", func(t *testing.T) {
		issuer, err := NewTokenIssuer(testSecret, "taskforge", 0)
		require.NoError(t, err)
		require.Equal(t, DefaultTokenTTL, issuer.ttl)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "taskforge", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.Equal(t, "alice", issuer.Validate(token))
}

func TestIssueRequiresIdentity(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "taskforge", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Issue("")
	require.Error(t, err)
}

func TestValidateFailures(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "taskforge", time.Hour)
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		require.Empty(t, issuer.Validate(""))
	})

	t.Run("garbage token", func(t *testing.T) {
		require.Empty(t, issuer.Validate("not.a.token"))
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := issuer.Issue("alice")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		parts[1] = parts[1][:len(parts[1])-2] + "xx"
		require.Empty(t, issuer.Validate(strings.Join(parts, ".")))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenIssuer([]byte("ffffffffffffffffffffffffffffffff"), "taskforge", time.Hour)
		require.NoError(t, err)

		token, err := other.Issue("alice")
		require.NoError(t, err)
		require.Empty(t, issuer.Validate(token))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenIssuer(testSecret, "someone-else", time.Hour)
		require.NoError(t, err)

		token, err := other.Issue("alice")
		require.NoError(t, err)
		require.Empty(t, issuer.Validate(token))
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := NewTokenIssuer(testSecret, "taskforge", time.Nanosecond)
		require.NoError(t, err)

		token, err := expired.Issue("alice")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		require.Empty(t, issuer.Validate(token))
	})
}
