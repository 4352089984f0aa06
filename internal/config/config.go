// Package config provides centralized configuration management for the EMI portal.
// Values come from environment variables (optionally seeded from a .env file)
// and are validated once at startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Reports  ReportsConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Portal   PortalConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request through chi's Timeout middleware.
	// Must exceed IMPORT_TIMEOUT.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`

	// WriteTimeout must exceed RequestTimeout or a long import loses its
	// response after the report is saved. Zero disables it.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"6m"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds customer bulk import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted upload size in bytes (default: 10MB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxRows caps a single batch; larger batches are rejected before any row work.
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"5000"`

	// MaxConcurrent is the number of imports allowed to run at once.
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long an import waits for a free slot.
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single reconciliation pass.
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"4m"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" required:"true"`
	Issuer    string        `env:"JWT_ISSUER" default:"emi-portal"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" default:"12h"`
}

// RedisConfig holds the optional report cache connection.
// When URL is empty, import reports are kept in process memory.
type RedisConfig struct {
	URL       string `env:"REDIS_URL"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" default:"emi:"`
}

// ReportsConfig controls how long import reports can be fetched after an import.
type ReportsConfig struct {
	Retention     time.Duration `env:"REPORT_RETENTION" default:"24h"`
	PruneInterval time.Duration `env:"REPORT_PRUNE_INTERVAL" default:"10m"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// PortalConfig holds retailer and customer portal behaviour.
type PortalConfig struct {
	Timezone     string `env:"PORTAL_TIMEZONE" default:"Asia/Kolkata"`
	UpcomingDays int    `env:"PORTAL_UPCOMING_DAYS" default:"5"`
	SearchLimit  int    `env:"PORTAL_SEARCH_LIMIT" default:"20"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location resolves the portal timezone, falling back to a fixed IST zone
// when the tz database is unavailable (minimal container images).
func (c *PortalConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}
