package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, err := svc.GeneratePlayerToken("room-1", "player-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidatePlayerToken(token)
	require.NoError(t, err)
	assert.Equal(t, "room-1", claims.RoomID)
	assert.Equal(t, "player-1", claims.PlayerID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewAuthService("test-secret")

	_, err := svc.ValidatePlayerToken("not-a-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthService("secret-a")
	verifier := NewAuthService("secret-b")

	token, err := issuer.GeneratePlayerToken("room-1", "player-1")
	require.NoError(t, err)

	_, err = verifier.ValidatePlayerToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
