package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Render profile names.
const (
	ProfileRounded = "rounded"
	ProfileClassic = "classic"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Lookup: LookupConfig{
			Backend: "memory",
			HTTP: HTTPConfig{
				TimeoutSec: 5,
			},
			MySQL: MySQLConfig{
				Table: "tickets",
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "ticket:",
			},
		},
		Render: RenderConfig{
			Profile:    ProfileRounded,
			Seat:       "6C",
			Group:      "4",
			Booking:    "W6LTWP 2017-07-13",
			Origin:     "LIMA",
			Airport:    "NUEVO AEROPUERTO INTERNACIONAL JORGE CHAVEZ",
			LogoRadius: 200,
			OutputDir:  ".",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 0,
				MaxDataPerDayMB:   0,
			},
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if err := c.Lookup.validate(); err != nil {
		return err
	}

	validProfiles := []string{ProfileRounded, ProfileClassic}
	if !contains(validProfiles, c.Render.Profile) {
		return fmt.Errorf("invalid render profile: %s (must be one of: %s)", c.Render.Profile, strings.Join(validProfiles, ", "))
	}
	if c.Render.LogoRadius < 0 {
		return fmt.Errorf("invalid logo radius: %d (must not be negative)", c.Render.LogoRadius)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}

	return nil
}

func (l *LookupConfig) validate() error {
	switch strings.ToLower(l.Backend) {
	case "memory":
	case "http":
		if l.HTTP.BaseURL == "" {
			return fmt.Errorf("lookup.http.base_url is required for the http backend")
		}
		u, err := url.Parse(l.HTTP.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid lookup.http.base_url: %q", l.HTTP.BaseURL)
		}
		if l.HTTP.TimeoutSec <= 0 {
			return fmt.Errorf("invalid lookup.http.timeout_sec: %d (must be positive)", l.HTTP.TimeoutSec)
		}
	case "mysql":
		if l.MySQL.DSN == "" {
			return fmt.Errorf("lookup.mysql.dsn is required for the mysql backend")
		}
		if !isIdentifier(l.MySQL.Table) {
			return fmt.Errorf("invalid lookup.mysql.table: %q", l.MySQL.Table)
		}
	case "redis":
		if l.Redis.Addr == "" {
			return fmt.Errorf("lookup.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid lookup backend: %s (must be one of: memory, http, mysql, redis)", l.Backend)
	}
	return nil
}

// isIdentifier accepts plain SQL identifiers so the table name can be
// interpolated into queries.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
