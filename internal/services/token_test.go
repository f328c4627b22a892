package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/services"
)

func newTestTokenManager() *services.TokenManager {
	return services.NewTokenManager("taskboard-test", []byte("test-signing-key"), 15*time.Minute, time.Hour)
}

func TestTokenManager_AccessToken(t *testing.T) {
	m := newTestTokenManager()

	token, expiresAt, err := m.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, services.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "taskboard-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	m := newTestTokenManager()

	refresh, _, err := m.GenerateRefreshToken("user-1", "a@example.com")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	access, _, err := m.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	other := services.NewTokenManager("taskboard-test", []byte("another-key"), time.Minute, time.Hour)
	token, _, err := other.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	_, err = newTestTokenManager().ParseAccessToken(token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestTokenManager_RejectsForeignIssuer(t *testing.T) {
	other := services.NewTokenManager("someone-else", []byte("test-signing-key"), time.Minute, time.Hour)
	token, _, err := other.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	_, err = newTestTokenManager().ParseAccessToken(token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	m := services.NewTokenManager("taskboard-test", []byte("test-signing-key"), -time.Minute, time.Hour)
	token, _, err := m.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestTokenManager_Garbage(t *testing.T) {
	_, err := newTestTokenManager().ParseAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestTokenManager_TokensAreUnique(t *testing.T) {
	m := newTestTokenManager()
	a, _, err := m.GenerateRefreshToken("user-1", "a@example.com")
	require.NoError(t, err)
	b, _, err := m.GenerateRefreshToken("user-1", "a@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
