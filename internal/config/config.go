package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string
	Timezone string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	UseSupabase        bool

	// Direct Postgres connection; takes precedence over the REST API
	DatabaseURL    string
	DBMaxConns     int
	DBMinConns     int
	DBConnLifetime time.Duration
	DBMigrate      bool // create missing tables on start; local databases only

	// Auth: access tokens are issued by Supabase Auth
	JWTSecret   string
	JWTAudience string
	DevAuth     bool // DEV_AUTH=true accepts an X-User-ID header instead of a token

	// Analysis
	BaselineWindowDays int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "America/Sao_Paulo"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		UseSupabase:        getEnvBool("USE_SUPABASE", true),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:     getEnvInt("DB_MIN_CONNS", 2),
		DBConnLifetime: getEnvDuration("DB_CONN_LIFETIME", 5*time.Minute),
		DBMigrate:      getEnvBool("DB_MIGRATE", false),

		JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
		JWTAudience: getEnv("JWT_AUDIENCE", "authenticated"),
		DevAuth:     getEnvBool("DEV_AUTH", false),

		BaselineWindowDays: getEnvInt("BASELINE_WINDOW_DAYS", 90),
	}
}

// Location resolves Timezone, the zone "today" is computed in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports settings the process cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BaselineWindowDays < 1 {
		return fmt.Errorf("BASELINE_WINDOW_DAYS must be positive, got %d", c.BaselineWindowDays)
	}
	if c.JWTSecret == "" && !c.DevAuth {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required unless DEV_AUTH=true")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// SupabaseEnabled reports whether the REST backend is configured.
func (c *Config) SupabaseEnabled() bool {
	return c.UseSupabase && c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
