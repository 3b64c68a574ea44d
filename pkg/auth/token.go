package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auth tokens are minted by the remote commerce API. The storefront never
// holds the signing key, so it only ever reads claims without verifying them.
var parser = jwt.NewParser()

// TokenExpiry returns the exp claim of a JWT. ok is false when the token is
// not a JWT or carries no exp.
func TokenExpiry(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// CookieLifetime is the retention window capped by the token's exp.
// A non-positive result means the token has already expired.
func CookieLifetime(token string, now time.Time, retention time.Duration) time.Duration {
	exp, ok := TokenExpiry(token)
	if !ok {
		return retention
	}
	if remaining := exp.Sub(now); remaining < retention {
		return remaining
	}
	return retention
}

// Digest is the hex SHA-256 of the token, used as the durable record key.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
