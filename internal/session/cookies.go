package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/config"
)

const (
	AuthTokenCookie = "auth-token"
	SessionIDCookie = "session-id"
)

type cookieJar struct {
	secure bool
	domain string
}

func newCookieJar(cfg config.SessionConfig) cookieJar {
	return cookieJar{secure: cfg.CookieSecure, domain: cfg.CookieDomain}
}

func (j cookieJar) setAuthToken(w http.ResponseWriter, token string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   j.domain,
		MaxAge:   int(lifetime.Seconds()),
		Expires:  time.Now().Add(lifetime),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// setSessionID writes the session-id cookie. It is readable by scripts so a
// tab can tell its session apart in broadcasts.
func (j cookieJar) setSessionID(w http.ResponseWriter, sessionID string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionIDCookie,
		Value:    sessionID,
		Path:     "/",
		Domain:   j.domain,
		MaxAge:   int(lifetime.Seconds()),
		Expires:  time.Now().Add(lifetime),
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j cookieJar) clear(w http.ResponseWriter) {
	for _, name := range []string{AuthTokenCookie, SessionIDCookie} {
		sameSite := http.SameSiteLaxMode
		if name == AuthTokenCookie {
			sameSite = http.SameSiteStrictMode
		}
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   j.domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: name == AuthTokenCookie,
			Secure:   j.secure,
			SameSite: sameSite,
		})
	}
}

// TokenFromRequest returns the auth-token cookie value or "".
func TokenFromRequest(r *http.Request) string {
	return cookieValue(r, AuthTokenCookie)
}

// SessionIDFromRequest returns the session-id cookie value or "".
func SessionIDFromRequest(r *http.Request) string {
	return cookieValue(r, SessionIDCookie)
}

func cookieValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
