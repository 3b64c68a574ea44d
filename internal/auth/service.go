package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/floret-storefront/internal/cart"
	"github.com/angelmondragon/floret-storefront/internal/session"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
)

const invalidCredentialsMessage = "invalid email or password"

// Service defines the behavior needed by the auth controller. guestCartID is
// the anonymous cart of the caller, adopted into the new session on success.
type Service interface {
	SignIn(ctx context.Context, w http.ResponseWriter, req SignInRequest, guestCartID string) (*UserDTO, error)
	SignUp(ctx context.Context, w http.ResponseWriter, req SignUpRequest, guestCartID string) (*UserDTO, error)
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	CurrentUser(ctx context.Context, w http.ResponseWriter, r *http.Request, resolved *session.Record) (*UserDTO, error)
}

type remoteAuth interface {
	SignIn(ctx context.Context, in storefront.SignInRequest) (*storefront.AuthResult, error)
	SignUp(ctx context.Context, in storefront.SignUpRequest) (*storefront.AuthResult, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*storefront.User, error)
}

type sessionStore interface {
	SignIn(ctx context.Context, w http.ResponseWriter, user storefront.User, token string) (*session.Record, error)
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) string
}

type cartRegistry interface {
	Adopt(guestID, sessionID string) *cart.Store
	Close(sessionID string) bool
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Remote   remoteAuth
	Sessions sessionStore
	Carts    cartRegistry
	Logger   *logger.Logger
}

type service struct {
	remote   remoteAuth
	sessions sessionStore
	carts    cartRegistry
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Remote == nil {
		return nil, errors.New("remote auth client is required")
	}
	if params.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if params.Carts == nil {
		return nil, errors.New("cart registry is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		remote:   params.Remote,
		sessions: params.Sessions,
		carts:    params.Carts,
		logg:     logg,
	}, nil
}

func (s *service) SignIn(ctx context.Context, w http.ResponseWriter, req SignInRequest, guestCartID string) (*UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	result, err := s.remote.SignIn(ctx, storefront.SignInRequest{Email: email, Password: req.Password})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, err
	}
	return s.start(ctx, w, result, guestCartID)
}

// SignUp registers the user remotely. Remotes that answer a sign-up with a
// token get a session straight away; otherwise the caller still has to sign in.
func (s *service) SignUp(ctx context.Context, w http.ResponseWriter, req SignUpRequest, guestCartID string) (*UserDTO, error) {
	result, err := s.remote.SignUp(ctx, storefront.SignUpRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    normalizeEmail(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return &UserDTO{ID: result.User.ID, Email: result.User.Email, Name: result.User.Name}, nil
	}
	return s.start(ctx, w, result, guestCartID)
}

// SignOut tells the remote API first but never fails on it: the local
// session ends regardless.
func (s *service) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token := session.TokenFromRequest(r); token != "" {
		if err := s.remote.SignOut(ctx, token); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "remote sign-out failed")
		}
	}
	if sessionID := s.sessions.SignOut(ctx, w, r); sessionID != "" {
		s.carts.Close(sessionID)
	}
	return nil
}

// CurrentUser answers from resolved, the session already looked up for this
// request. With a token but no resolved record the remote API is asked and
// the session is rebuilt from its answer.
func (s *service) CurrentUser(ctx context.Context, w http.ResponseWriter, r *http.Request, resolved *session.Record) (*UserDTO, error) {
	if resolved != nil {
		return toUserDTO(resolved), nil
	}
	token := session.TokenFromRequest(r)
	if token == "" {
		return nil, nil
	}

	user, err := s.remote.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	rec, err := s.sessions.SignIn(ctx, w, *user, token)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	s.logg.Info(s.logg.WithSessionID(ctx, rec.SessionID), "session rebuilt from remote user")
	return toUserDTO(rec), nil
}

func (s *service) start(ctx context.Context, w http.ResponseWriter, result *storefront.AuthResult, guestCartID string) (*UserDTO, error) {
	if result == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "empty sign-in response")
	}
	rec, err := s.sessions.SignIn(ctx, w, result.User, result.Token)
	if err != nil {
		return nil, err
	}
	s.carts.Adopt(guestCartID, rec.SessionID)
	return toUserDTO(rec), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
