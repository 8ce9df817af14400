package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	token, expiresIn, err := svc.GenerateSSEToken("admin-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", userID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "15m")

	access, _, err := svc.GenerateAccessToken("admin-1", true)
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err)
}

func TestValidateSSEToken_RejectsExpiredAndRevoked(t *testing.T) {
	svc := NewJWTService("test-secret", "15m").(*JWTService)

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := svc.GenerateSSEToken("admin-1")
	require.NoError(t, err)
	svc.now = time.Now

	_, err = svc.ValidateSSEToken(expired)
	assert.Error(t, err)

	fresh, _, err := svc.GenerateSSEToken("admin-1")
	require.NoError(t, err)
	svc.RevokeToken(fresh)
	assert.True(t, svc.IsTokenRevoked(fresh))
	_, err = svc.ValidateSSEToken(fresh)
	assert.Error(t, err)
}

func TestValidateSSEToken_RejectsForeignSignature(t *testing.T) {
	other := NewJWTService("other-secret", "15m")
	token, _, err := other.GenerateSSEToken("admin-1")
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", "15m").ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	_, _, err := NewJWTService("test-secret", "soon").GenerateAccessToken("admin-1", true)
	assert.Error(t, err)
}
