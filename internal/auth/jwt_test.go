package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	require.Error(t, err)
}

func TestVerifier_RoundTrip(t *testing.T) {
	v, err := NewVerifier("test-secret")
	require.NoError(t, err)

	token, err := v.Sign(&Claims{
		Email: "admin@stackfinder.io",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@stackfinder.io", claims.Email)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestVerifier_RejectsWrongSecret(t *testing.T) {
	signer, err := NewVerifier("secret-a")
	require.NoError(t, err)
	verifier, err := NewVerifier("secret-b")
	require.NoError(t, err)

	token, err := signer.Sign(&Claims{Email: "x@y.z"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	v, err := NewVerifier("test-secret")
	require.NoError(t, err)

	token, err := v.Sign(&Claims{
		Email: "x@y.z",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.Error(t, err)
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	v, err := NewVerifier("test-secret")
	require.NoError(t, err)

	_, err = v.Verify("not-a-jwt")
	assert.Error(t, err)
}
