// cmd/server/main.go
// This is the entry point for the car service. It loads configuration, prepares the
// database, connects to the remote client service, and serves the HTTP API until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/service-car/internal/clientapi"
	"github.com/trentd187/service-car/internal/config"
	"github.com/trentd187/service-car/internal/database"
	"github.com/trentd187/service-car/internal/handlers"
	"github.com/trentd187/service-car/internal/logging"
	"github.com/trentd187/service-car/internal/repository"
	"github.com/trentd187/service-car/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.LogLevel, cfg.Env)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL must be set")
	}

	// Apply pending migrations before opening the pool the handlers use.
	if err := database.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	clients := clientapi.NewHTTPClient(cfg.ClientService.URL, cfg.ClientService.HealthPath, cfg.ClientService.Timeout)

	// The client service may come up after us; an unreachable one is reported, not fatal.
	// /health/ready keeps answering 503 until it responds.
	probeCtx, cancel := context.WithTimeout(context.Background(), cfg.ClientService.Timeout)
	if err := clients.Health(probeCtx); err != nil {
		log.Warn().Err(err).Str("url", cfg.ClientService.URL).Msg("client service not reachable yet")
	} else {
		log.Info().Str("url", cfg.ClientService.URL).Msg("client service reachable")
	}
	cancel()

	app := server.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		DisableStartupMessage: cfg.IsProduction(),
	}, server.Deps{
		Clients:   clients,
		Cars:      repository.NewCarRepository(db),
		JWTSecret: []byte(cfg.JWTSecret),
		// A request may not outlive the time we allow for writing its response.
		// Each single client lookup is further capped by CLIENT_SERVICE_TIMEOUT.
		RequestTimeout: cfg.WriteTimeout,
		Checks: map[string]handlers.Checker{
			"database":       func(ctx context.Context) error { return database.Ping(ctx, db) },
			"client_service": clients.Health,
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("car service listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("car service stopped")
}
