package controllers

import (
	"net/http"

	"github.com/angelmondragon/floret-storefront/api/middleware"
	"github.com/angelmondragon/floret-storefront/api/responses"
	"github.com/angelmondragon/floret-storefront/api/validators"
	"github.com/angelmondragon/floret-storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
)

type currentUserResponse struct {
	User *auth.UserDTO `json:"user"`
}

// AuthSignIn signs the caller in and moves their guest cart into the session.
func AuthSignIn(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		var payload auth.SignInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.SignIn(r.Context(), w, payload, middleware.CartIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currentUserResponse{User: user})
	}
}

func AuthSignUp(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		var payload auth.SignUpRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.SignUp(r.Context(), w, payload, middleware.CartIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, currentUserResponse{User: user})
	}
}

func AuthSignOut(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.SignOut(r.Context(), w, r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"signedOut": true})
	}
}

// AuthCurrentUser answers {"user": null} for guests rather than 401.
func AuthCurrentUser(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		user, err := svc.CurrentUser(r.Context(), w, r, middleware.UserFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currentUserResponse{User: user})
	}
}
