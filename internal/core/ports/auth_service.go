package ports

import (
	"context"

	"github.com/mapgate/mapgate/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type Authenticator interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Establish(ctx context.Context, user *domain.User) (string, error)
	Current(ctx context.Context, token string) (*domain.User, error)
	Terminate(ctx context.Context, token string) error
}
