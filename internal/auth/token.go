// Package auth implements the trust boundary between the identity service
// and the task service: password hashing on one side, and a stateless
// issue/verify token pair on the other. The signing secret is explicit
// configuration shared by both services; no issued token is ever recorded
// server-side, so a token stands entirely on its signature and expiry.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL bounds token lifetime when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// ErrUnauthenticated is returned for any token that fails verification:
// bad signature, malformed structure, wrong signing method, or expiry.
// Callers get no further detail.
var ErrUnauthenticated = errors.New("unauthenticated")

// IssueToken mints a fresh HS256 JWT whose subject is the user id. Each call
// produces an independently valid token; nothing is persisted. The expiry is
// always issuance + ttl: a non-positive ttl mints an already-expired token.
// TTL defaulting is the caller's concern (config, NewAuthHandler).
func IssueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken validates the token's signature and expiry against the secret
// and returns the embedded user id. The returned id is the authenticated
// caller identity for the remainder of the request; the identity service is
// not consulted.
func VerifyToken(tokenString string, secret []byte) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrUnauthenticated
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrUnauthenticated
	}
	return userID, nil
}
