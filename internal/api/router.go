package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mapgate/mapgate/docs"
	"github.com/mapgate/mapgate/internal/api/handler"
	"github.com/mapgate/mapgate/internal/api/middleware"
	"github.com/mapgate/mapgate/internal/core/ports"
	"github.com/mapgate/mapgate/internal/pkg/config"
)

const loginPath = "/login"

// Dependencies are the collaborators NewRouter wires into handlers.
type Dependencies struct {
	Config   *config.Config
	Auth     ports.Authenticator
	Gateway  ports.Gateway
	Renderer echo.Renderer

	DatabaseCheck handler.HealthCheck
	SessionCheck  handler.HealthCheck

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Renderer = d.Renderer
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	cookies := handler.CookieSettings{
		Name:     cfg.Session.CookieName,
		TTL:      cfg.Session.TTL,
		Secure:   cfg.Session.Secure,
		HTTPOnly: cfg.Session.HTTPOnly,
		SameSite: cfg.Session.SameSite(),
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "mapgate_http",
		Registerer: d.Registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, cookies, d.Log)
	geoHandler := handler.NewGeoHandler(d.Gateway, d.Log)
	indexHandler := handler.NewIndexHandler(cfg.Amap.WebKey)
	healthHandler := handler.NewHealthHandler(d.DatabaseCheck, d.SessionCheck, cfg.Amap.WebKey, cfg.Amap.ServiceKey)

	// Session lookup runs only on routes that read the principal.
	session := middleware.Authenticate(d.Auth, cookies.Name, d.Log)
	pages := []echo.MiddlewareFunc{session, middleware.RequirePage(loginPath)}
	gatedAPI := []echo.MiddlewareFunc{session, middleware.RequireAPI()}

	forms := []echo.MiddlewareFunc{session}
	if cfg.CSRFEnabled {
		forms = append(forms, echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
			TokenLookup:    "form:_csrf",
			CookieName:     "_csrf",
			CookiePath:     "/",
			CookieSecure:   cookies.Secure,
			CookieHTTPOnly: true,
			CookieSameSite: cookies.SameSite,
		}))
	}

	// --- Ops (no auth required) ---
	e.GET("/health", healthHandler.Check)
	e.GET("/health/live", healthHandler.Liveness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth pages ---
	e.GET(loginPath, authHandler.LoginForm, forms...)
	e.POST(loginPath, authHandler.Login, forms...)
	e.GET("/register", authHandler.RegisterForm, forms...)
	e.POST("/register", authHandler.Register, forms...)

	// --- Session-gated pages ---
	e.GET("/", indexHandler.Map, pages...)
	e.GET("/logout", authHandler.Logout, pages...)

	// --- Session-gated API ---
	e.GET("/geocode", geoHandler.Geocode, gatedAPI...)
	e.GET("/reverse_geocode", geoHandler.ReverseGeocode, gatedAPI...)
	e.GET("/search_poi", geoHandler.SearchPOI, gatedAPI...)

	return e
}

// requestLogger writes one zerolog entry per request. Query strings are left
// out since they carry user addresses and coordinates.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
