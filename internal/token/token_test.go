package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("Rejects empty secret", func(t *testing.T) {
		_, err := NewService("", 600)
		assert.Error(t, err)
	})

	t.Run("Rejects non-positive expiry", func(t *testing.T) {
		_, err := NewService("secret", 0)
		assert.Error(t, err)
	})
}

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewService("test_secret", 600)
	require.NoError(t, err)

	tok, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer, err := NewService("secret_one", 600)
	require.NoError(t, err)
	verifier, err := NewService("secret_two", 600)
	require.NoError(t, err)

	tok, err := issuer.Issue(42)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Garbage(t *testing.T) {
	svc, err := NewService("test_secret", 600)
	require.NoError(t, err)

	_, err = svc.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Expired(t *testing.T) {
	svc, err := NewService("test_secret", 1)
	require.NoError(t, err)

	tok, err := svc.Issue(42)
	require.NoError(t, err)

	time.Sleep(2 * time.Second)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestIssue_UniqueJTI(t *testing.T) {
	svc, err := NewService("test_secret", 600)
	require.NoError(t, err)

	first, err := svc.Issue(42)
	require.NoError(t, err)
	second, err := svc.Issue(42)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
