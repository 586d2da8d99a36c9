// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFormat is "json" (default) or "text".
	LogFormat string

	// LogFile, when set, receives a rotated copy of every log line.
	LogFile string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StorageDriver selects the itinerary store: "postgres" (default) or "memory".
	StorageDriver string

	// DatabaseURL is the Postgres connection string. Required for the postgres driver.
	DatabaseURL string

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool

	// JWTSecret is the HS256 key for bearer tokens. Required.
	JWTSecret string

	// JWTIssuer is the expected "iss" claim. Defaults to "itinera".
	JWTIssuer string

	// RecommenderURL is the base URL of the recommendation engine.
	RecommenderURL string

	// RecommenderTimeout bounds each engine call. Defaults to 10s.
	RecommenderTimeout time.Duration

	// RecommendRatePerMinute limits recommendation requests per user.
	// Zero disables the limit.
	RecommendRatePerMinute float64

	// RecommendBurst is the rate limiter's bucket size. Defaults to 3.
	RecommendBurst int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// A .env file (or the file named by ENV_FILE) is read first when present;
// variables already set in the environment win.
// Returns an error listing any required variables that are not set and any
// values that fail to parse.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	p := &parser{}
	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              strings.ToLower(getEnv("LOG_FORMAT", "json")),
		LogFile:                os.Getenv("LOG_FILE"),
		CORSOrigins:            splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StorageDriver:          strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		MigrateOnStart:         p.bool("MIGRATE_ON_START", false),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTIssuer:              getEnv("JWT_ISSUER", "itinera"),
		RecommenderURL:         getEnv("RECOMMENDER_URL", "http://localhost:5000"),
		RecommenderTimeout:     p.duration("RECOMMENDER_TIMEOUT", 10*time.Second),
		RecommendRatePerMinute: p.float("RECOMMEND_RATE_PER_MINUTE", 10),
		RecommendBurst:         p.int("RECOMMEND_BURST", 3),
		MaxBodyBytes:           int64(p.int("MAX_BODY_BYTES", 1<<20)),
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StorageMemory:
	default:
		p.errs = append(p.errs, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		p.errs = append(p.errs, fmt.Errorf("LOG_FORMAT: must be json or text, got %q", cfg.LogFormat))
	}

	if len(missing) > 0 {
		p.errs = append([]error{fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))}, p.errs...)
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser reads typed values and collects every parse failure so Load can
// report them all at once.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: want a non-negative integer, got %q", key, v))
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: want a non-negative number, got %q", key, v))
		return fallback
	}
	return f
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: want a boolean, got %q", key, v))
		return fallback
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: want a positive duration like 5s, got %q", key, v))
		return fallback
	}
	return d
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
