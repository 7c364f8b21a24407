package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by provider-issued session tokens. The
// provider signs with HS256 using the project JWT secret.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates session tokens issued by the external auth provider.
// It is constructed at the composition root and injected; there is no
// package-level secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given HS256 secret. The secret is a
// hard requirement: an empty value is a configuration error.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify validates a session token and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Sign issues a token with the given claims. Production tokens come from the
// provider; this exists for tests and local seeding.
func (v *Verifier) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
