package ports

import (
	"context"

	"github.com/mapgate/mapgate/internal/core/domain"
)

// SessionStore keeps server-side sessions. Delete of an unknown id is not an error.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
