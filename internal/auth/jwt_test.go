package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

// TestIssue проверяет формат токена
func TestIssue(t *testing.T) {
	ti, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := ti.Issue("s1", "normal")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))
}

func TestValidate_RoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := ti.Issue("s1", "walk")
	require.NoError(t, err)

	claims, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "walk", claims.Mode)
	assert.Equal(t, "s1", claims.Subject)

	assert.NoError(t, ti.Authorize(token, "s1"))
	assert.ErrorIs(t, ti.Authorize(token, "s2"), ErrSessionMismatch)
}

func TestValidate_Rejects(t *testing.T) {
	ti, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("another-secret-9876543210", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("s1", "normal")
	require.NoError(t, err)
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ti.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ti.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	ti, err := NewTokenIssuer(testSecret, time.Minute)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	ti.now = func() time.Time { return past }
	token, err := ti.Issue("s1", "normal")
	require.NoError(t, err)

	ti.now = time.Now
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuer_ShortSecret(t *testing.T) {
	_, err := NewTokenIssuer("short", time.Hour)
	assert.Error(t, err)
}

func TestCheckKey(t *testing.T) {
	hash, err := HashKey("admin-key")
	require.NoError(t, err)

	assert.True(t, CheckKey(hash, "admin-key"))
	assert.False(t, CheckKey(hash, "wrong"))
	assert.False(t, CheckKey("", "admin-key"))
	assert.False(t, CheckKey(hash, ""))
}

func TestGenerateSecureSecret(t *testing.T) {
	a, b := GenerateSecureSecret(), GenerateSecureSecret()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}
