package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("remote-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestTokenExpiryReadsExpWithoutKey(t *testing.T) {
	exp := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp), Subject: "u1"})

	got, ok := TokenExpiry(tok)
	if !ok {
		t.Fatalf("expected exp to be found")
	}
	if !got.Equal(exp) {
		t.Fatalf("expected %v got %v", exp, got)
	}
}

func TestTokenExpiryOpaqueTokens(t *testing.T) {
	for _, tok := range []string{"", "   ", "opaque-session-token", "a.b.c"} {
		if _, ok := TokenExpiry(tok); ok {
			t.Fatalf("expected no expiry for %q", tok)
		}
	}
	noExp := signed(t, jwt.RegisteredClaims{Subject: "u1"})
	if _, ok := TokenExpiry(noExp); ok {
		t.Fatalf("expected no expiry when claim is absent")
	}
}

func TestCookieLifetime(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	retention := 7 * 24 * time.Hour

	if got := CookieLifetime("opaque", now, retention); got != retention {
		t.Fatalf("opaque token should use retention, got %v", got)
	}

	short := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour))})
	if got := CookieLifetime(short, now, retention); got != 2*time.Hour {
		t.Fatalf("expected exp cap of 2h, got %v", got)
	}

	long := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(30 * 24 * time.Hour))})
	if got := CookieLifetime(long, now, retention); got != retention {
		t.Fatalf("expected retention when exp is later, got %v", got)
	}

	expired := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	if got := CookieLifetime(expired, now, retention); got > 0 {
		t.Fatalf("expected non-positive lifetime for expired token, got %v", got)
	}
}

func TestDigestIsStableHex(t *testing.T) {
	a := Digest("token-1")
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != Digest("token-1") {
		t.Fatalf("digest must be deterministic")
	}
	if a == Digest("token-2") {
		t.Fatalf("different tokens must not collide")
	}
}
