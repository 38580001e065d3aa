// Package config handles loading and validating runtime configuration for the car service.
// Configuration values (database URL, port, the address of the client service) are read from
// environment variables so the same binary runs unchanged in development, staging, and production.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// Real environment variables always win: godotenv.Load never overwrites a variable that is already set.
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// developmentJWTSecret is only used when ENV is not "production" and JWT_SECRET is unset,
// so a fresh checkout can boot without any secrets configured.
const developmentJWTSecret = "service-car-development-secret"

// Config holds all runtime configuration values for the application.
type Config struct {
	Port           string        // TCP port the HTTP server listens on (e.g., "8080")
	Env            string        // "development", "staging", or "production"
	DatabaseURL    string        // PostgreSQL connection string
	MigrationsPath string        // golang-migrate source URL, e.g. "file://migrations"
	JWTSecret      string        // HMAC secret used to verify bearer tokens
	LogLevel       string        // zerolog level: debug, info, warn, error
	ReadTimeout    time.Duration // Max time to read a full request
	WriteTimeout   time.Duration // Max time to write a response
	IdleTimeout    time.Duration // Keep-alive idle timeout

	ClientService ClientServiceConfig
}

// ClientServiceConfig locates the remote client service that owns Client records.
type ClientServiceConfig struct {
	URL        string        // Base URL, e.g. "http://service-client:8081"
	Timeout    time.Duration // Per-request timeout for lookups
	HealthPath string        // Path probed by the readiness check
}

// Load reads configuration from environment variables and returns a validated Config.
// It first tries to load a .env file for local development; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ReadTimeout:    getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ClientService: ClientServiceConfig{
			URL:        getEnv("CLIENT_SERVICE_URL", "http://localhost:8081"),
			Timeout:    getEnvDuration("CLIENT_SERVICE_TIMEOUT", 5*time.Second),
			HealthPath: getEnv("CLIENT_SERVICE_HEALTH_PATH", "/health"),
		},
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = developmentJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q (must be 1-65535)", c.Port)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.ClientService.URL == "" {
		return errors.New("CLIENT_SERVICE_URL must be set")
	}
	if c.ClientService.Timeout <= 0 {
		return fmt.Errorf("invalid client service timeout: %v (must be positive)", c.ClientService.Timeout)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts values like "30s", "5m", "1h". Unparseable values fall back to the default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Dur("default", defaultValue).
			Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}
