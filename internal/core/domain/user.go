package domain

import (
	"errors"
	"time"
)

// Registration limits. Password length is counted in characters; bcrypt caps
// the encoded password at MaxPasswordBytes. The username and email limits
// match the users table columns.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
	MaxUsernameLength = 80
	MaxEmailLength    = 255
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is the credential conflict: username or email already taken.
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrUsernameTooLong    = errors.New("username must be at most 80 characters")
	ErrEmailTooLong       = errors.New("email must be at most 255 characters")
	ErrStoreUnavailable   = errors.New("store unavailable")
	// ErrInvalidInput is a value the store refused to hold, such as malformed text.
	ErrInvalidInput = errors.New("username or email contains invalid characters")
)

// User models a registered account.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
