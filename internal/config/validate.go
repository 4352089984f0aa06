package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout > 0 && c.Import.Timeout >= c.Server.RequestTimeout {
		errs = append(errs, fmt.Sprintf("IMPORT_TIMEOUT (%s) must be shorter than SERVER_REQUEST_TIMEOUT (%s)",
			c.Import.Timeout, c.Server.RequestTimeout))
	}
	if c.Server.WriteTimeout != 0 && c.Server.WriteTimeout <= c.Server.RequestTimeout {
		errs = append(errs, fmt.Sprintf("SERVER_WRITE_TIMEOUT (%s) must be longer than SERVER_REQUEST_TIMEOUT (%s) or 0",
			c.Server.WriteTimeout, c.Server.RequestTimeout))
	}

	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.MaxRows <= 0 {
		errs = append(errs, "IMPORT_MAX_ROWS must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWaitTime <= 0 {
		errs = append(errs, "IMPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Import.Timeout <= 0 {
		errs = append(errs, "IMPORT_TIMEOUT must be positive")
	}

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "JWT_TOKEN_TTL must be positive")
	}

	if c.Reports.Retention < time.Minute {
		errs = append(errs, "REPORT_RETENTION must be at least 1m")
	}
	if c.Reports.PruneInterval <= 0 {
		errs = append(errs, "REPORT_PRUNE_INTERVAL must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	if c.Portal.UpcomingDays < 0 {
		errs = append(errs, "PORTAL_UPCOMING_DAYS must be non-negative")
	}
	if c.Portal.SearchLimit <= 0 {
		errs = append(errs, "PORTAL_SEARCH_LIMIT must be positive")
	}
	// Asia/Kolkata has a fixed-zone fallback in PortalConfig.Location.
	if _, err := time.LoadLocation(c.Portal.Timezone); err != nil && c.Portal.Timezone != "Asia/Kolkata" {
		errs = append(errs, fmt.Sprintf("PORTAL_TIMEZONE (%q) is not a known timezone", c.Portal.Timezone))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe for logs; secrets are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Import: {MaxFileSize: %d, MaxRows: %d, MaxConcurrent: %d}, ",
		c.Import.MaxFileSize, c.Import.MaxRows, c.Import.MaxConcurrent)
	fmt.Fprintf(&b, "Auth: {Secret: [MASKED], Issuer: %q, TTL: %s}, ", c.Auth.Issuer, c.Auth.TokenTTL)
	fmt.Fprintf(&b, "Redis: {Enabled: %v}, ", c.Redis.URL != "")
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
