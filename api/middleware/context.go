package middleware

import (
	"context"

	"github.com/angelmondragon/floret-storefront/internal/session"
)

type contextKey string

const (
	ctxCartID contextKey = "cart_id"
	ctxUser   contextKey = "session_user"
)

// CartIDFromContext returns the key of the caller's cart: the session id when
// signed in, the guest cart cookie otherwise.
func CartIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartID).(string); ok {
		return v
	}
	return ""
}

// UserFromContext returns the signed-in user, or nil for guests.
func UserFromContext(ctx context.Context) *session.Record {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*session.Record); ok {
		return v
	}
	return nil
}

func WithCartID(ctx context.Context, cartID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartID, cartID)
}

func WithUser(ctx context.Context, user *session.Record) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
