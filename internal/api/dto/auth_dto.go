package dto

import (
	"time"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// PasswordResetRequest starts a reset for an email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest finishes a reset.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// TokenPair is the token half of a session response.
type TokenPair struct {
	AccessToken      string     `json:"accessToken"`
	AccessExpiresAt  time.Time  `json:"accessExpiresAt"`
	RefreshToken     string     `json:"refreshToken"`
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty"`
}

// SessionResponse standard response for register, login and refresh.
type SessionResponse struct {
	User   *domain.Identity `json:"user"`
	Tokens TokenPair        `json:"tokens"`
}

// SessionProbeResponse reports who, if anyone, a request is signed in as.
type SessionProbeResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
}
