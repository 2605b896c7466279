//nolint:lll
package config

// Config represents the complete configuration for the boardpass application.
// It covers every command (resolve, scan, render, serve) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Ticket lookup backend
	Lookup LookupConfig `mapstructure:"lookup" yaml:"lookup" json:"lookup"`

	// Boarding-pass rendering
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// LookupConfig selects and configures the ticket store.
type LookupConfig struct {
	Backend      string      `mapstructure:"backend" yaml:"backend" json:"backend"`
	FixturesFile string      `mapstructure:"fixtures_file" yaml:"fixtures_file" json:"fixtures_file"`
	HTTP         HTTPConfig  `mapstructure:"http" yaml:"http" json:"http"`
	MySQL        MySQLConfig `mapstructure:"mysql" yaml:"mysql" json:"mysql"`
	Redis        RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`
}

// HTTPConfig configures the flights HTTP API client.
type HTTPConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// MySQLConfig configures the SQL ticket store.
type MySQLConfig struct {
	DSN   string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
	Table string `mapstructure:"table" yaml:"table" json:"table"`
}

// RedisConfig configures the key/value ticket store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string `mapstructure:"password" yaml:"password" json:"password"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

// RenderConfig holds boarding-pass layout defaults.
type RenderConfig struct {
	Profile    string `mapstructure:"profile" yaml:"profile" json:"profile"`
	Seat       string `mapstructure:"seat" yaml:"seat" json:"seat"`
	Group      string `mapstructure:"group" yaml:"group" json:"group"`
	Booking    string `mapstructure:"booking" yaml:"booking" json:"booking"`
	Origin     string `mapstructure:"origin" yaml:"origin" json:"origin"`
	Airport    string `mapstructure:"airport" yaml:"airport" json:"airport"`
	LogoPath   string `mapstructure:"logo_path" yaml:"logo_path" json:"logo_path"`
	LogoRadius int    `mapstructure:"logo_radius" yaml:"logo_radius" json:"logo_radius"`
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int64 `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}
