// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Import    ImportConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Narrative NarrativeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// StoreConfig selects where the last import is persisted.
type StoreConfig struct {
	// Driver is one of memory, postgres, redis, mysql, sqlite (default: memory)
	Driver string `env:"STORE_DRIVER" default:"memory"`

	// URL is the connection string for the selected driver (a file path
	// for sqlite).
	// DATABASE_URL is accepted for compatibility with hosted Postgres.
	URL string `env:"STORE_URL" envAlt:"DATABASE_URL"`

	// Slot is the record key holding the last import (default: lastImport)
	Slot string `env:"STORE_SLOT" default:"lastImport"`

	MaxConns int `env:"STORE_MAX_CONNS" default:"10"`

	// Timeout bounds every store call (default: 10s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"10s"`
}

// ImportConfig holds upload processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single import (default: 2m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`

	// StartMarkers and CancelMarkers are the header tokens that locate the
	// subscription date columns (comma-separated).
	StartMarkers  []string `env:"IMPORT_START_MARKERS" default:"iniciou"`
	CancelMarkers []string `env:"IMPORT_CANCEL_MARKERS" default:"cancelou"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for the import endpoint (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`

	// InsightLimit is requests per minute for AI insights (default: 5)
	InsightLimit int `env:"RATE_LIMIT_INSIGHTS" default:"5"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enforces X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// NarrativeConfig holds the Gemini settings for AI insights. Insights are
// disabled when no API key is set.
type NarrativeConfig struct {
	APIKey string `env:"GEMINI_API_KEY" envAlt:"API_KEY"`

	Model string `env:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	// Cohorts is how many of the latest cohorts are summarized (default: 6)
	Cohorts int `env:"NARRATIVE_COHORTS" default:"6"`

	Timeout time.Duration `env:"NARRATIVE_TIMEOUT" default:"30s"`
}

// Enabled reports whether an API key is configured.
func (c NarrativeConfig) Enabled() bool {
	return c.APIKey != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
