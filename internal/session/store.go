package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/auth"
	"github.com/angelmondragon/floret-storefront/pkg/config"
	"github.com/angelmondragon/floret-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

type sessionTier interface {
	Put(ctx context.Context, rec Record) error
	Fetch(ctx context.Context, sessionID string) (*Record, error)
	Has(ctx context.Context, sessionID string) (bool, error)
	Remove(ctx context.Context, sessionID string) error
}

type durableTier interface {
	Save(ctx context.Context, digest string, rec Record, expiresAt time.Time) error
	Load(ctx context.Context, digest string) (*Record, error)
	Delete(ctx context.Context, digest string) error
	DeleteBySession(ctx context.Context, sessionID string) error
}

type broadcaster interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}

type eventRecorder interface {
	IncSessionEvent(eventType string)
}

// Deps groups the collaborators of a Store. Metrics may be nil.
type Deps struct {
	Sessions  sessionTier
	Durable   durableTier
	Broadcast broadcaster
	Metrics   eventRecorder
	Logger    *logger.Logger
}

// Store keeps a signed-in identity across requests. The auth-token cookie is
// the authority: a record without it is purged, never trusted.
type Store struct {
	sessions  sessionTier
	durable   durableTier
	broadcast broadcaster
	metrics   eventRecorder
	logg      *logger.Logger
	cookies   cookieJar

	retention    time.Duration
	clearDurable bool
	now          func() time.Time
	newID        func() string
}

func NewStore(deps Deps, cfg config.SessionConfig) (*Store, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session tier required")
	}
	if deps.Durable == nil {
		return nil, errors.New("durable tier required")
	}
	if deps.Broadcast == nil {
		return nil, errors.New("broadcaster required")
	}
	if cfg.Retention <= 0 {
		return nil, errors.New("session retention must be positive")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		sessions:     deps.Sessions,
		durable:      deps.Durable,
		broadcast:    deps.Broadcast,
		metrics:      deps.Metrics,
		logg:         logg,
		cookies:      newCookieJar(cfg),
		retention:    cfg.Retention,
		clearDurable: cfg.ClearDurableOnSignOut,
		now:          time.Now,
		newID:        uuid.NewString,
	}, nil
}

// SignIn issues both cookies for user and mirrors the record into both tiers.
// A token whose exp has already passed is refused.
func (s *Store) SignIn(ctx context.Context, w http.ResponseWriter, user storefront.User, token string) (*Record, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "auth token missing from sign-in response")
	}
	if strings.TrimSpace(user.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sign-in response carried no user id")
	}

	now := s.now()
	digest := auth.Digest(token)
	lifetime := auth.CookieLifetime(token, now, s.retention)
	if lifetime <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "auth token already expired")
	}

	rec := Record{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		SessionID:   s.newID(),
		TokenDigest: digest,
		LastUpdated: now,
	}
	ctx = s.logg.WithSessionID(s.logg.WithUserID(ctx, rec.UserID), rec.SessionID)

	s.cookies.setAuthToken(w, token, lifetime)
	s.cookies.setSessionID(w, rec.SessionID, lifetime)

	if err := s.sessions.Put(ctx, rec); err != nil {
		s.storageFailure(ctx, "session tier write failed", err)
	}
	if err := s.durable.Save(ctx, digest, rec, now.Add(lifetime)); err != nil {
		s.storageFailure(ctx, "durable tier write failed", err)
	}

	s.publish(ctx, enums.SessionEventLogin, rec.SessionID)
	s.logg.Info(ctx, "session signed in")
	return &rec, nil
}

// GetUser resolves the signed-in user for r. Without an auth-token cookie
// both cookies are cleared and nil is returned; stored records are left to
// the token that owns them. A session tier record only counts when it was
// issued for the presented token. Otherwise the durable tier is asked by
// token digest and the session tier is repopulated under the durable
// session id.
func (s *Store) GetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) *Record {
	token := TokenFromRequest(r)
	sessionID := SessionIDFromRequest(r)

	if token == "" {
		if sessionID != "" {
			s.cookies.clear(w)
		}
		return nil
	}

	digest := auth.Digest(token)
	if sessionID != "" {
		rec, err := s.sessions.Fetch(ctx, sessionID)
		switch {
		case err != nil:
			s.storageFailure(ctx, "session tier read failed", err)
		case rec != nil && rec.issuedFor(digest):
			return rec
		case rec != nil:
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "session id presented with a foreign token")
		}
	}

	rec, err := s.durable.Load(ctx, digest)
	if err != nil {
		s.storageFailure(ctx, "durable tier read failed", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	rec.TokenDigest = digest

	if rec.SessionID != sessionID {
		s.cookies.setSessionID(w, rec.SessionID, auth.CookieLifetime(token, s.now(), s.retention))
	}
	if err := s.sessions.Put(ctx, *rec); err != nil {
		s.storageFailure(ctx, "session tier promote failed", err)
	}
	s.logg.Debug(s.logg.WithSessionID(ctx, rec.SessionID), "session promoted from durable tier")
	return rec
}

// SignOut clears both cookies and purges the session the presented token
// owns. The durable record is kept unless the store was configured to clear
// it. It returns the session id that ended, or "".
func (s *Store) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) string {
	token := TokenFromRequest(r)
	sessionID := s.ownedSession(ctx, token, SessionIDFromRequest(r))
	s.purge(ctx, w, sessionID, token, s.clearDurable)
	if sessionID != "" {
		s.publish(ctx, enums.SessionEventLogout, sessionID)
	}
	return sessionID
}

// ownedSession returns the session id issued for token. The cookie's id wins
// when its session tier record matches; otherwise the durable row decides.
func (s *Store) ownedSession(ctx context.Context, token, sessionID string) string {
	if token == "" {
		return ""
	}
	digest := auth.Digest(token)
	if sessionID != "" {
		rec, err := s.sessions.Fetch(ctx, sessionID)
		if err != nil {
			s.storageFailure(ctx, "session tier read failed", err)
		} else if rec != nil && rec.issuedFor(digest) {
			return sessionID
		}
	}
	rec, err := s.durable.Load(ctx, digest)
	if err != nil {
		s.storageFailure(ctx, "durable tier read failed", err)
		return ""
	}
	if rec == nil {
		return ""
	}
	return rec.SessionID
}

// IsAuthenticated reports a non-empty token with a session tier record
// issued for it. It does not fall back to the durable tier.
func (s *Store) IsAuthenticated(ctx context.Context, r *http.Request) bool {
	token := TokenFromRequest(r)
	if token == "" {
		return false
	}
	sessionID := SessionIDFromRequest(r)
	if sessionID == "" {
		return false
	}
	rec, err := s.sessions.Fetch(ctx, sessionID)
	if err != nil {
		s.storageFailure(ctx, "session tier lookup failed", err)
		return false
	}
	return rec != nil && rec.issuedFor(auth.Digest(token))
}

// Active reports whether the session tier still holds sessionID.
func (s *Store) Active(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.sessions.Has(ctx, sessionID)
}

// Events subscribes to login and logout broadcasts from every instance.
func (s *Store) Events(ctx context.Context) (<-chan Event, error) {
	return s.broadcast.Subscribe(ctx)
}

// Consume subscribes and calls handle for every event until ctx is done or
// the subscription ends. The payload is only a change notice; handlers
// re-read canonical storage.
func (s *Store) Consume(ctx context.Context, handle func(context.Context, Event)) error {
	events, err := s.Events(ctx)
	if err != nil {
		return err
	}
	for event := range events {
		if s.metrics != nil {
			s.metrics.IncSessionEvent(string(event.Type))
		}
		handle(s.logg.WithSessionID(ctx, event.SessionID), event)
	}
	return ctx.Err()
}

func (s *Store) purge(ctx context.Context, w http.ResponseWriter, sessionID, token string, durable bool) {
	ctx = s.logg.WithSessionID(ctx, sessionID)
	var err error
	if sessionID != "" {
		err = multierr.Append(err, s.sessions.Remove(ctx, sessionID))
	}
	if durable {
		if token != "" {
			err = multierr.Append(err, s.durable.Delete(ctx, auth.Digest(token)))
		}
		if sessionID != "" {
			err = multierr.Append(err, s.durable.DeleteBySession(ctx, sessionID))
		}
	}
	s.cookies.clear(w)
	if err != nil {
		s.storageFailure(ctx, "session purge incomplete", err)
	}
}

func (s *Store) publish(ctx context.Context, eventType enums.SessionEventType, sessionID string) {
	event := Event{Type: eventType, Timestamp: s.now().UnixMilli(), SessionID: sessionID}
	if err := s.broadcast.Publish(ctx, event); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "session broadcast failed")
	}
}

func (s *Store) storageFailure(ctx context.Context, msg string, err error) {
	if !errors.Is(err, errMalformedRecord) {
		err = pkgerrors.Wrap(pkgerrors.CodeStorage, err, msg)
	}
	s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), msg)
}
