package domain

import (
	"errors"
	"time"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSessionNotFound        = errors.New("session not found")
)

// Session binds a transport identity to a user. UserID is a soft reference:
// a session whose user no longer exists is invalid.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at t.
func (s Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}
