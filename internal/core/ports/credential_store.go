package ports

import (
	"context"

	"github.com/mapgate/mapgate/internal/core/domain"
)

// CredentialStore persists user identity records.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByUsernameOrEmail is the pre-insert uniqueness check.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Insert returns domain.ErrUserExists when username or email is already taken.
	Insert(ctx context.Context, username, email, passwordHash string) (int64, error)
}
