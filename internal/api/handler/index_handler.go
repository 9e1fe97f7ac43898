package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mapgate/mapgate/internal/api/view"
)

type IndexHandler struct {
	webKey string
}

// NewIndexHandler takes the browser-side map key; the service key is never rendered.
func NewIndexHandler(webKey string) *IndexHandler {
	return &IndexHandler{webKey: webKey}
}

// Map renders the interactive map for the signed-in user.
func (h *IndexHandler) Map(c echo.Context) error {
	return c.Render(http.StatusOK, "map.html", view.Page{
		Title:  "地图",
		WebKey: h.webKey,
		User:   CurrentUser(c),
	})
}
