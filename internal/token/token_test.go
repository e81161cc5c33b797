package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "01234567890123456789012345678901"

func TestJWTMaker(t *testing.T) {
	maker, err := NewJWTMaker(testSecret)
	require.NoError(t, err)

	token, payload, err := maker.CreateToken("uid-1", "ana@example.com", model.UserRoleManager, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, payload.ID)

	verified, err := maker.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", verified.UserID())
	assert.Equal(t, "ana@example.com", verified.Email)
	assert.Equal(t, model.UserRoleManager, verified.Role)
}

func TestJWTMakerRejectsShortSecret(t *testing.T) {
	_, err := NewJWTMaker("short")
	assert.Error(t, err)
}

func TestExpiredJWT(t *testing.T) {
	maker, err := NewJWTMaker(testSecret)
	require.NoError(t, err)

	token, _, err := maker.CreateToken("uid-1", "", model.UserRoleAdmin, -time.Minute)
	require.NoError(t, err)

	_, err = maker.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestInvalidJWT(t *testing.T) {
	maker, err := NewJWTMaker(testSecret)
	require.NoError(t, err)

	other, err := NewJWTMaker(testSecret + "x")
	require.NoError(t, err)
	token, _, err := other.CreateToken("uid-1", "", model.UserRoleAdmin, time.Minute)
	require.NoError(t, err)

	_, err = maker.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	payload, err := NewPayload("uid-1", "", model.UserRoleAdmin, time.Minute)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, payload).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = maker.VerifyToken(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPayloadFromClaims(t *testing.T) {
	now := time.Now()

	payload := payloadFromClaims("uid-1", map[string]interface{}{"role": "admin", "email": "a@b.com"}, now, now.Add(time.Hour))
	assert.Equal(t, model.UserRoleAdmin, payload.Role)
	assert.Equal(t, "a@b.com", payload.Email)
	assert.Equal(t, "uid-1", payload.UserID())

	payload = payloadFromClaims("uid-2", map[string]interface{}{"role": "superuser"}, now, now.Add(time.Hour))
	assert.Equal(t, model.UserRoleOperator, payload.Role)
}
