package config

import (
	"strings"
	"testing"
)

const infoLevel = "info"

// TestDefaultConfig verifies that DefaultConfig returns expected values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log_level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}

	// Lookup defaults
	if cfg.Lookup.Backend != "memory" {
		t.Errorf("Expected lookup backend 'memory', got %s", cfg.Lookup.Backend)
	}
	if cfg.Lookup.Redis.Prefix != "ticket:" {
		t.Errorf("Expected redis prefix 'ticket:', got %s", cfg.Lookup.Redis.Prefix)
	}

	// Render defaults
	if cfg.Render.Profile != ProfileRounded {
		t.Errorf("Expected render profile %s, got %s", ProfileRounded, cfg.Render.Profile)
	}
	if cfg.Render.Seat != "6C" || cfg.Render.Group != "4" {
		t.Errorf("Unexpected seat/group defaults: %s/%s", cfg.Render.Seat, cfg.Render.Group)
	}
	if cfg.Render.Booking != "W6LTWP 2017-07-13" {
		t.Errorf("Unexpected booking default: %s", cfg.Render.Booking)
	}
	if cfg.Render.LogoRadius != 200 {
		t.Errorf("Expected logo radius 200, got %d", cfg.Render.LogoRadius)
	}

	// Server defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

// TestConfigValidation exercises every validation rule.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid defaults", mutate: func(*Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "bad backend", mutate: func(c *Config) { c.Lookup.Backend = "postgres" }, wantErr: "invalid lookup backend"},
		{name: "http without url", mutate: func(c *Config) { c.Lookup.Backend = "http" }, wantErr: "base_url is required"},
		{
			name: "http with relative url",
			mutate: func(c *Config) {
				c.Lookup.Backend = "http"
				c.Lookup.HTTP.BaseURL = "/api"
			},
			wantErr: "invalid lookup.http.base_url",
		},
		{
			name: "http valid",
			mutate: func(c *Config) {
				c.Lookup.Backend = "http"
				c.Lookup.HTTP.BaseURL = "http://www.apiswagger.somee.com/api"
			},
		},
		{name: "mysql without dsn", mutate: func(c *Config) { c.Lookup.Backend = "mysql" }, wantErr: "dsn is required"},
		{
			name: "mysql with injected table",
			mutate: func(c *Config) {
				c.Lookup.Backend = "mysql"
				c.Lookup.MySQL.DSN = "user:pw@tcp(localhost:3306)/air"
				c.Lookup.MySQL.Table = "tickets; DROP TABLE x"
			},
			wantErr: "invalid lookup.mysql.table",
		},
		{name: "redis without addr", mutate: func(c *Config) { c.Lookup.Backend = "redis"; c.Lookup.Redis.Addr = "" }, wantErr: "addr is required"},
		{name: "bad profile", mutate: func(c *Config) { c.Render.Profile = "fancy" }, wantErr: "invalid render profile"},
		{name: "negative radius", mutate: func(c *Config) { c.Render.LogoRadius = -1 }, wantErr: "invalid logo radius"},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "upload zero", mutate: func(c *Config) { c.Server.MaxUploadMB = 0 }, wantErr: "invalid max upload size"},
		{name: "timeout zero", mutate: func(c *Config) { c.Server.TimeoutSec = 0 }, wantErr: "invalid timeout"},
		{name: "negative rate limit", mutate: func(c *Config) { c.Server.RateLimit.RequestsPerHour = -5 }, wantErr: "invalid rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"tickets", "boletos_2025", "_t"} {
		if !isIdentifier(ok) {
			t.Errorf("isIdentifier(%q) = false, want true", ok)
		}
	}
	for _, bad := range []string{"", "2tickets", "a-b", "a b", "t;"} {
		if isIdentifier(bad) {
			t.Errorf("isIdentifier(%q) = true, want false", bad)
		}
	}
}
