package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,           default=8080"`
	Env           string `env:"ENV,            default=development"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`
	SessionSecret string `env:"SESSION_SECRET, required"`
	CSRFEnabled   bool   `env:"CSRF_ENABLED,   default=true"`

	Amap     AmapConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
}

type AmapConfig struct {
	// WebKey is handed to the browser map script; ServiceKey never leaves the server.
	WebKey     string        `env:"AMAP_WEB_KEY,     required"`
	ServiceKey string        `env:"AMAP_SERVICE_KEY, required"`
	BaseURL    string        `env:"AMAP_BASE_URL,    default=https://restapi.amap.com"`
	Timeout    time.Duration `env:"AMAP_TIMEOUT,     default=10s"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST,              required"`
	Port            int           `env:"DB_PORT,              default=5432"`
	Name            string        `env:"DB_NAME,              required"`
	User            string        `env:"DB_USER,              required"`
	Password        string        `env:"DB_PASSWORD,          required"`
	SSLMode         string        `env:"DB_SSLMODE,           default=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,    default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,    default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
}

// DSN renders a postgres:// URL understood by the pgx stdlib driver.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME,      default=mapgate_session"`
	TTL          time.Duration `env:"SESSION_TTL,              default=24h"`
	Secure       bool          `env:"SESSION_COOKIE_SECURE,    default=true"`
	HTTPOnly     bool          `env:"SESSION_COOKIE_HTTP_ONLY, default=true"`
	SameSiteMode string        `env:"SESSION_COOKIE_SAME_SITE, default=lax"`
}

// SameSite maps the configured mode onto net/http's enum.
func (s SessionConfig) SameSite() http.SameSite {
	switch strings.ToLower(s.SameSiteMode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// IsDevelopment reports whether the service runs with developer defaults
// (pretty console logs).
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l. Missing required variables and
// invalid values are reported together in a single error.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Amap.Timeout <= 0 {
		errs = append(errs, errors.New("AMAP_TIMEOUT must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	switch strings.ToLower(c.Session.SameSiteMode) {
	case "lax", "strict":
	case "none":
		// browsers drop SameSite=None cookies that are not Secure
		if !c.Session.Secure {
			errs = append(errs, errors.New("SESSION_COOKIE_SAME_SITE=none requires SESSION_COOKIE_SECURE=true"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_COOKIE_SAME_SITE %q is not one of lax, strict, none", c.Session.SameSiteMode))
	}
	if _, err := url.ParseRequestURI(c.Amap.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("AMAP_BASE_URL: %w", err))
	}
	return errors.Join(errs...)
}
