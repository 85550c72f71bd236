package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered      EventType = "account_registered"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
)

// Event represents an account event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// PasswordResetRequestedPayload carries what the mailer needs to deliver a
// reset link.
type PasswordResetRequestedPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	FirstName string `json:"first_name"`
	Role      string `json:"role"`
}
