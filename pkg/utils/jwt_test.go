package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret", time.Hour, "upllyft")
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager()

	token, err := m.GenerateToken("user-1", "tenant-1", "therapist", true)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "therapist", claims.Role)
	assert.True(t, claims.Verified)
}

func TestTokenUnverifiedByDefault(t *testing.T) {
	m := newTestJWTManager()

	token, err := m.GenerateToken("user-2", "tenant-1", "parent", false)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.False(t, claims.Verified)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := newTestJWTManager().GenerateToken("user-1", "tenant-1", "therapist", false)
	require.NoError(t, err)

	other := NewJWTManager("other-secret", time.Hour, "upllyft")
	_, err = other.ParseToken(token)
	require.Error(t, err)
}
