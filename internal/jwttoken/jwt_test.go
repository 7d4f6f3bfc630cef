package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "herdwatch/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("unit-test-key", "herdwatch", time.Minute)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "alice", "farmer")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "farmer", claims.Role)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewService("key-a", "herdwatch", time.Minute)
	verifier := NewService("key-b", "herdwatch", time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New(), "alice", "farmer")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("unit-test-key", "herdwatch", -time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), "alice", "farmer")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("unit-test-key", "herdwatch", time.Minute)
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
