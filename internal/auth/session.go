// Package auth issues and verifies the signed cookie that carries a
// browser's session scope.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session token")

// Claims carries the session scope next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// NewScope returns a fresh random session scope.
func NewScope() string {
	return uuid.NewString()
}

func IssueSessionToken(scope string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies the token and returns its scope. Expired,
// tampered or otherwise unusable tokens yield ErrInvalidSession.
func ParseSessionToken(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid {
		return "", ErrInvalidSession
	}
	if _, err := uuid.Parse(claims.Scope); err != nil {
		return "", fmt.Errorf("%w: bad scope", ErrInvalidSession)
	}
	return claims.Scope, nil
}
