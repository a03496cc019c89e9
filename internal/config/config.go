// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds every setting of the server and the admin CLI
type Config struct {
	DBConnStr string
	GRPCAddr  string
	LogLevel  string
	JWTSecret string

	StoreDriver    string
	MigrateOnStart bool

	RateLimitRPS   float64
	RateLimitBurst int

	TouchOnNoopAdjustment bool
}

// ErrMissingSecret is returned when JWT_SECRET is unset
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// LoadDotEnv loads .env from the working directory or its parent.
// A missing file is not an error: the OS environment is used as is.
func LoadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		err = godotenv.Load("../.env")
	}
	switch {
	case err == nil:
		slog.Info(".env file loaded successfully.")
	case errors.Is(err, os.ErrNotExist):
		slog.Info("No .env file found. Relying on OS environment variables.")
	default:
		slog.Warn("Error loading .env file. Relying on OS environment variables.", "error", err)
	}
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		DBConnStr:             dbConnStr(),
		GRPCAddr:              getEnv("GRPC_ADDR", ":8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		JWTSecret:             strings.TrimSpace(os.Getenv("JWT_SECRET")),
		StoreDriver:           strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		MigrateOnStart:        getEnvAsBool("MIGRATE_ON_START", true),
		RateLimitRPS:          getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 30),
		TouchOnNoopAdjustment: getEnvAsBool("LEDGER_TOUCH_ON_NOOP_ADJUSTMENT", true),
	}

	if cfg.StoreDriver != StoreDriverPostgres && cfg.StoreDriver != StoreDriverMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return cfg, nil
}

// RequireJWTSecret fails when the server has no key to verify tokens with.
// The admin CLI never checks it.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

// dbConnStr uses DB_CONN_STR when set, otherwise builds the string from
// the individual variables (Docker friendly)
func dbConnStr() string {
	if s := os.Getenv("DB_CONN_STR"); s != "" {
		return s
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "fintrack"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	slog.Warn("Invalid integer value, using default", "key", key, "value", raw, "default", fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	slog.Warn("Invalid number value, using default", "key", key, "value", raw, "default", fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	slog.Warn("Invalid boolean value, using default", "key", key, "value", raw, "default", fallback)
	return fallback
}
