package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("session-secret", "state-secret", "adcraft", "adcraft")

	token, err := a.GenerateSessionToken("sess-1")
	require.NoError(t, err)

	parsed, err := a.ValidateSessionToken(token)
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "sess-1", claims["sub"])
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	a := NewJWTAuthenticator("session-secret", "state-secret", "adcraft", "adcraft")

	state, err := a.GenerateStateToken("sess-1")
	require.NoError(t, err)

	_, err = a.ValidateSessionToken(state)
	assert.Error(t, err)

	_, err = a.ValidateStateToken(state)
	assert.NoError(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	a := NewJWTAuthenticator("session-secret", "state-secret", "adcraft", "adcraft")

	_, err := a.ValidateSessionToken("not-a-token")
	assert.Error(t, err)
}
