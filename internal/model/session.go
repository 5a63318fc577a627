package model

import (
	"time"

	"github.com/google/uuid"
)

// Session backs the authenticated browser cookie; deleted on logout or expiry
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetToken authorizes a password change without the old password.
// At most one live token per email; single use.
type ResetToken struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"` // 6 uppercase hex chars
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginAttempt tracks failed logins per email for the lockout window
type LoginAttempt struct {
	Email       string     `json:"email"`
	Count       int        `json:"count"`
	FirstAt     time.Time  `json:"first_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}
