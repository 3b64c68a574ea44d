package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/floret-storefront/api/responses"
	"github.com/angelmondragon/floret-storefront/internal/session"
	"github.com/angelmondragon/floret-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
)

// GuestCartCookie keys the cart of a caller who is not signed in.
const GuestCartCookie = "cart-id"

type sessionResolver interface {
	GetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) *session.Record
}

// Session resolves the caller's user and cart key and seeds the request
// context with both. Guests get a cart-id cookie on first contact.
func Session(resolver sessionResolver, cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user := resolver.GetUser(ctx, w, r)
			cartID := ""
			if user != nil {
				cartID = user.SessionID
				ctx = WithUser(ctx, user)
				if logg != nil {
					ctx = logg.WithSessionID(logg.WithUserID(ctx, user.UserID), user.SessionID)
				}
			} else {
				cartID = guestCartID(w, r, cfg)
			}

			next.ServeHTTP(w, r.WithContext(WithCartID(ctx, cartID)))
		})
	}
}

// RequireUser rejects guests. It must run after Session.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func guestCartID(w http.ResponseWriter, r *http.Request, cfg config.SessionConfig) string {
	if c, err := r.Cookie(GuestCartCookie); err == nil {
		if id := strings.TrimSpace(c.Value); id != "" {
			if _, err := uuid.Parse(id); err == nil {
				return id
			}
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     GuestCartCookie,
		Value:    id,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.Retention.Seconds()),
		Expires:  time.Now().Add(cfg.Retention),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
