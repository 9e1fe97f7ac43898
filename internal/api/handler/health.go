package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler handles GET /health. It reports dependency reachability and
// whether both provider keys are configured.
type HealthHandler struct {
	database   HealthCheck
	sessions   HealthCheck
	webKey     bool
	serviceKey bool
}

func NewHealthHandler(database, sessions HealthCheck, webKey, serviceKey string) *HealthHandler {
	return &HealthHandler{
		database:   database,
		sessions:   sessions,
		webKey:     webKey != "",
		serviceKey: serviceKey != "",
	}
}

type healthResponse struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	Sessions       string `json:"sessions"`
	AmapWebKey     string `json:"amap_web_key"`
	AmapServiceKey string `json:"amap_service_key"`
}

// Check reports service health; 503 when any dependency is down or a key is missing.
//
// @Summary      Service health
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Failure      503  {object}  healthResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Database:       probe(ctx, h.database),
		Sessions:       probe(ctx, h.sessions),
		AmapWebKey:     configured(h.webKey),
		AmapServiceKey: configured(h.serviceKey),
	}

	healthy := resp.Database == "connected" && resp.Sessions == "connected" && h.webKey && h.serviceKey
	resp.Status = "healthy"
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

// Liveness handles GET /health/live: the process is up.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func probe(ctx context.Context, check HealthCheck) string {
	if check == nil || check(ctx) != nil {
		return "disconnected"
	}
	return "connected"
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}
