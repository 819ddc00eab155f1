// Package config loads server and command-line client settings from the
// environment. A .env file in the working directory is read first when present.
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

// Config holds the backend server configuration.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// RedisURL points at the Redis instance used for the places cache. Required.
	RedisURL string

	// JWTSecret signs bearer tokens. Required.
	JWTSecret string

	// TokenTTL is how long an issued token stays valid. Defaults to 7 days.
	TokenTTL time.Duration

	// LogLevel is one of debug, info, warn, error. Defaults to "info".
	LogLevel string

	// CORSOrigins lists the allowed browser origins. Comma-separated in CORS_ORIGINS.
	CORSOrigins []string

	// RateLimitPerMinute caps requests per client IP.
	RateLimitPerMinute int

	// CacheTTL bounds how long provider answers are cached.
	CacheTTL time.Duration

	GeocodeBaseURL string
	GeocodeAPIKey  string
	ImageBaseURL   string
	ImageAccessKey string
}

// ClientConfig holds the command-line client configuration.
type ClientConfig struct {
	APIBaseURL    string
	RedisURL      string
	StoragePrefix string
	HTTPTimeout   time.Duration
	ImageTimeout  time.Duration
	LogLevel      string
}

// Load reads the server configuration.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           getDurationEnv("TOKEN_TTL", 7*24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		CacheTTL:           getDurationEnv("CACHE_TTL", time.Hour),
		GeocodeBaseURL:     getEnv("GEOCODE_BASE_URL", "https://api.geoapify.com"),
		GeocodeAPIKey:      os.Getenv("GEOCODE_API_KEY"),
		ImageBaseURL:       getEnv("IMAGE_BASE_URL", "https://api.unsplash.com"),
		ImageAccessKey:     os.Getenv("IMAGE_ACCESS_KEY"),
	}

	var missing []string
	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// LoadClient reads the command-line client configuration. Nothing is required.
func LoadClient() (ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return ClientConfig{}, err
	}
	return ClientConfig{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080/api"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StoragePrefix: getEnv("STORAGE_PREFIX", "travelvibes:"),
		HTTPTimeout:   getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		ImageTimeout:  getDurationEnv("IMAGE_TIMEOUT", 8*time.Second),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
	}, nil
}

// Level parses a LOG_LEVEL value, falling back to info.
func Level(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// loadDotEnv applies .env without overriding variables already set.
// A missing file is fine; a malformed one is not.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
