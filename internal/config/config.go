// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDatabaseURL is used when DATABASE_URL is unset.
const DefaultDatabaseURL = "sqlite:users.db"

// Config holds all application configuration.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	LogLevel  slog.Level
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration // how long in-flight requests get on SIGTERM
}

// Addr is the listen address, e.g. "0.0.0.0:8080".
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	URL          string // as given, e.g. "sqlite:users.db"
	Path         string // driver path derived from URL, e.g. "users.db"
	MaxOpenConns int
}

// RateLimitConfig configures the global token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables with sensible defaults.
//
// A .env file in the working directory, if present, is loaded first.
// Variables already set in the real environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var errs []error

	port, err := getEnvInt("PORT", 8080)
	errs = append(errs, err)
	if err == nil && (port < 0 || port > 65535) {
		errs = append(errs, fmt.Errorf("PORT %d out of range", port))
	}

	shutdown, err := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	errs = append(errs, err)

	maxConns, err := getEnvInt("DB_MAX_OPEN_CONNS", 10)
	errs = append(errs, err)
	if err == nil && maxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", maxConns))
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 100)
	errs = append(errs, err)
	if err == nil && rps < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", rps))
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 200)
	errs = append(errs, err)
	if err == nil && burst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", burst))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	dbURL := getEnv("DATABASE_URL", DefaultDatabaseURL)
	path, err := SQLitePath(dbURL)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Config{
		HTTP: HTTPConfig{
			Host:            getEnv("HOST", "0.0.0.0"),
			Port:            port,
			ShutdownTimeout: shutdown,
		},
		Database: DatabaseConfig{
			URL:          dbURL,
			Path:         path,
			MaxOpenConns: maxConns,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		LogLevel: level,
	}, nil
}

// SQLitePath turns a DATABASE_URL into the path the SQLite driver expects.
//
//	sqlite:users.db      → users.db
//	sqlite://users.db    → users.db
//	sqlite::memory:      → :memory:
//	./data/users.db      → ./data/users.db
//
// Other schemes (postgres://, mysql://) are rejected.
func SQLitePath(databaseURL string) (string, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(u, "sqlite://"):
		u = strings.TrimPrefix(u, "sqlite://")
	case strings.HasPrefix(u, "sqlite3://"):
		u = strings.TrimPrefix(u, "sqlite3://")
	case strings.HasPrefix(u, "sqlite:"):
		u = strings.TrimPrefix(u, "sqlite:")
	case strings.Contains(u, "://"):
		return "", fmt.Errorf("unsupported DATABASE_URL %q: only sqlite is supported", databaseURL)
	}
	if u == "" {
		return "", fmt.Errorf("DATABASE_URL %q has no database path", databaseURL)
	}
	return u, nil
}

// String returns a one-line summary for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("Config{addr: %s, db: %s, maxConns: %d, rateLimit: %g/s burst %d, log: %s}",
		c.HTTP.Addr(), c.Database.URL, c.Database.MaxOpenConns,
		c.RateLimit.RPS, c.RateLimit.Burst, c.LogLevel)
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
