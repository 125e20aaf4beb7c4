package service

import (
	"testing"
	"time"

	apperrors "nusantara-erp/pkg/errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, 24*time.Hour)

	access, refresh, err := svc.GenerateTokens(TokenSubject{UserID: 7, Username: "budi", Role: "admin", SessionID: "sid-1"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "budi", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.False(t, claims.IsRefreshToken)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.IsRefreshToken)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	access, _, err := NewJWTService("one", time.Hour, time.Hour).GenerateTokens(TokenSubject{UserID: 1})
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour, time.Hour).ValidateToken(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	claims := &JwtCustomClaim{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour, time.Hour).ValidateToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, &JwtCustomClaim{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour, time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}
