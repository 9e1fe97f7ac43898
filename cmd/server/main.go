// @title        mapgate API
// @version      1.0
// @description  Session-gated proxy for AMap geocoding, reverse geocoding and nearby POI search.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mapgate/mapgate/internal/api"
	"github.com/mapgate/mapgate/internal/api/view"
	"github.com/mapgate/mapgate/internal/core/service"
	"github.com/mapgate/mapgate/internal/infrastructure/amap"
	"github.com/mapgate/mapgate/internal/infrastructure/db/postgres"
	"github.com/mapgate/mapgate/internal/infrastructure/db/redis"
	"github.com/mapgate/mapgate/internal/pkg/config"
	"github.com/mapgate/mapgate/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mapgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// a missing .env is fine; the real environment wins either way
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "mapgate",
		Env:     cfg.Env,
	})

	// --- Relational store ---
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Ping(ctx, db); err != nil {
		log.Warn().Err(err).Msg("database unreachable at startup; serving degraded")
	} else if err := postgres.Migrate(cfg.Database); err != nil {
		log.Error().Err(err).Msg("schema migration failed")
	} else {
		log.Info().Msg("database schema up to date")
	}

	// --- Session backend ---
	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	if err := redis.Ping(ctx, rdb, 0); err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup; logins will fail until it recovers")
	}

	// --- Core ---
	authService := service.NewAuthService(
		postgres.NewUserRepository(db),
		redis.NewSessionStore(rdb),
		cfg.SessionSecret,
		cfg.Session.TTL,
		log.With().Str("component", "auth").Logger(),
	)
	gateway := amap.NewClient(cfg.Amap, log)

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Config:        cfg,
		Auth:          authService,
		Gateway:       gateway,
		Renderer:      renderer,
		DatabaseCheck: func(ctx context.Context) error { return postgres.Ping(ctx, db) },
		SessionCheck:  func(ctx context.Context) error { return redis.Ping(ctx, rdb, 0) },
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// must outlast the upstream timeout
		WriteTimeout: cfg.Amap.Timeout + 20*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serve(ctx, srv, log)
}

func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
