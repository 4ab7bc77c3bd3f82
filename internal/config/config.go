package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Rate limit backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// DefaultRooms are seeded on first start when no list is configured.
var DefaultRooms = []string{"BCS Section A", "BCS Section B", "BCS Section C", "BCS Section D"}

// Config holds server configuration values.
type Config struct {
	Addr              string          `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration   `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string          `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string          `mapstructure:"log_format" yaml:"log_format"`
	MaxBodyBytes      int64           `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	CORSOrigins       []string        `mapstructure:"cors_origins" yaml:"cors_origins"`
	TrustedProxies    []string        `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
	Rooms             []string        `mapstructure:"rooms" yaml:"rooms"`
	AdminToken        string          `mapstructure:"admin_token" yaml:"admin_token"`
	AdminTokenHash    string          `mapstructure:"admin_token_hash" yaml:"admin_token_hash"`
	TraceSalt         string          `mapstructure:"trace_salt" yaml:"trace_salt"`
	Database          DatabaseConfig  `mapstructure:"database" yaml:"database"`
	RateLimit         RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// DatabaseConfig selects and locates the store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
	URL    string `mapstructure:"url" yaml:"url"`
}

// RateLimitConfig configures write admission per origin.
type RateLimitConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"`
	Window        time.Duration `mapstructure:"window" yaml:"window"`
	Max           int           `mapstructure:"max" yaml:"max"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix   string        `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxBodyBytes:      1 << 20,
		CORSOrigins:       []string{"*"},
		Rooms:             append([]string(nil), DefaultRooms...),
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "coderooms.db",
		},
		RateLimit: RateLimitConfig{
			Backend:       RateLimitMemory,
			Window:        time.Minute,
			Max:           12,
			SweepInterval: 5 * time.Minute,
			RedisPrefix:   "coderooms:rl",
		},
	}
}

// Validate reports configuration that cannot start a server.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	switch strings.ToLower(c.Database.Driver) {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch strings.ToLower(c.RateLimit.Backend) {
	case RateLimitMemory:
	case RateLimitRedis:
		if c.RateLimit.RedisAddr == "" {
			return fmt.Errorf("rate_limit.redis_addr is required for redis backend")
		}
	default:
		return fmt.Errorf("unknown rate_limit.backend %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("trusted_proxies: %q is not an IP or CIDR", p)
		}
	}
	if c.AdminToken != "" && c.AdminTokenHash != "" {
		return fmt.Errorf("set only one of admin_token and admin_token_hash")
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Database.Driver != "" {
		c.Database.Driver = other.Database.Driver
	}
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}
	if other.Database.URL != "" {
		c.Database.URL = other.Database.URL
	}
}
