package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mapgate/mapgate/internal/core/domain"
)

// Context keys set by Authenticate.
const (
	ContextKeyUser         = "user"
	ContextKeySessionError = "session_error"
)

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	Current(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate resolves the session cookie and stores the user in the context.
// It never rejects: gating is left to RequireAPI and RequirePage.
func Authenticate(resolver SessionResolver, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			user, err := resolver.Current(c.Request().Context(), cookie.Value)
			switch {
			case err == nil:
				c.Set(ContextKeyUser, user)
			case errors.Is(err, domain.ErrAuthenticationRequired):
				// stale or forged cookie: anonymous
			default:
				log.Warn().Err(err).Str("path", c.Path()).Msg("session lookup failed")
				c.Set(ContextKeySessionError, err)
			}
			return next(c)
		}
	}
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(c echo.Context) *domain.User {
	user, _ := c.Get(ContextKeyUser).(*domain.User)
	return user
}
