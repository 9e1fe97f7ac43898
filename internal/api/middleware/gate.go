package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAPI rejects anonymous requests with 401, or 503 when the session
// backend could not be consulted. It must run after Authenticate.
func RequireAPI() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserFrom(c) != nil {
				return next(c)
			}
			if c.Get(ContextKeySessionError) != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "service temporarily unavailable"})
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
	}
}

// RequirePage redirects anonymous requests to loginPath.
func RequirePage(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserFrom(c) == nil {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return next(c)
		}
	}
}
