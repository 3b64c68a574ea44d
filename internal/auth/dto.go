package auth

import (
	"time"

	"github.com/angelmondragon/floret-storefront/internal/session"
)

// SignInRequest captures the credentials sent to the sign-in endpoint.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest is checked before the remote API sees it.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserDTO is the signed-in user as the storefront pages see it.
type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	SessionID   string    `json:"sessionId"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func toUserDTO(rec *session.Record) *UserDTO {
	if rec == nil {
		return nil
	}
	return &UserDTO{
		ID:          rec.UserID,
		Email:       rec.Email,
		Name:        rec.Name,
		SessionID:   rec.SessionID,
		LastUpdated: rec.LastUpdated,
	}
}
