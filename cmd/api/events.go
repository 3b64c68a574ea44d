package main

import (
	"context"
	"errors"

	"github.com/angelmondragon/floret-storefront/internal/session"
	"github.com/angelmondragon/floret-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
)

type sessionActivity interface {
	Active(ctx context.Context, sessionID string) (bool, error)
}

type cartCloser interface {
	Close(sessionID string) bool
}

// consumeSessionEvents closes the cart of a session signed out on another instance.
func consumeSessionEvents(ctx context.Context, logg *logger.Logger, sessions *session.Store, carts cartCloser) {
	err := sessions.Consume(ctx, closeEndedSessions(logg, sessions, carts))
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "session event consumer stopped", err)
	}
}

// closeEndedSessions handles logout notices. The payload only names a
// session; the cart is closed once the session tier confirms it is gone.
func closeEndedSessions(logg *logger.Logger, sessions sessionActivity, carts cartCloser) func(context.Context, session.Event) {
	return func(ctx context.Context, event session.Event) {
		if event.Type != enums.SessionEventLogout || event.SessionID == "" {
			return
		}
		active, err := sessions.Active(ctx, event.SessionID)
		if err != nil {
			logg.Warn(logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "session lookup failed, cart kept")
			return
		}
		if active {
			logg.Debug(ctx, "logout notice for a live session ignored")
			return
		}
		if carts.Close(event.SessionID) {
			logg.Info(ctx, "cart closed after remote sign-out")
		}
	}
}
