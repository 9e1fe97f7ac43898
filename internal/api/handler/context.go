package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mapgate/mapgate/internal/api/middleware"
	"github.com/mapgate/mapgate/internal/core/domain"
)

// CurrentUser returns the user resolved by middleware.Authenticate, or nil.
func CurrentUser(c echo.Context) *domain.User {
	return middleware.UserFrom(c)
}
