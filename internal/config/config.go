// Package config provides configuration management for the catalog server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values.
const (
	DefaultServerPort      = 3001
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultDataPath        = "data/items.json"
	DefaultSerializeWrites = false
	DefaultMaxBodyBytes    = 1 << 20
)

// DefaultAllowedOrigins are the development front-end origins.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:3002"}

// Environment variable names.
const (
	EnvConfigFile      = "APP_CONFIG_FILE"
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvDataPath        = "APP_DATA_PATH"
	EnvAllowedOrigins  = "APP_ALLOWED_ORIGINS"
	EnvSerializeWrites = "APP_SERIALIZE_WRITES"
	EnvMaxBodyBytes    = "APP_MAX_BODY_BYTES"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// DataPath is the JSON file holding the item collection.
	DataPath string

	// AllowedOrigins is the CORS allow-list; "*" allows any origin.
	AllowedOrigins []string

	// SerializeWrites runs item creations one at a time within the process.
	SerializeWrites bool

	MaxBodyBytes int64
}

// fileConfig mirrors Config for TOML decoding. Unset keys leave the
// current value untouched.
type fileConfig struct {
	ServerPort      *int     `toml:"server_port"`
	LogLevel        *string  `toml:"log_level"`
	ShutdownTimeout *string  `toml:"shutdown_timeout"`
	MetricsEnabled  *bool    `toml:"metrics_enabled"`
	DataPath        *string  `toml:"data_path"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	SerializeWrites *bool    `toml:"serialize_writes"`
	MaxBodyBytes    *int64   `toml:"max_body_bytes"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrEmptyDataPath          = errors.New("data path must not be empty")
	ErrNoAllowedOrigins       = errors.New("at least one allowed origin must be configured")
	ErrInvalidMaxBodyBytes    = errors.New("max body bytes must be positive")
)

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		DataPath:        DefaultDataPath,
		AllowedOrigins:  append([]string(nil), DefaultAllowedOrigins...),
		SerializeWrites: DefaultSerializeWrites,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// Load builds the configuration from defaults, then the optional TOML file
// named by APP_CONFIG_FILE, then environment variables, and validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFile overlays the values present in a TOML file.
func (c *Config) LoadFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.ServerPort != nil {
		c.ServerPort = *fc.ServerPort
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.ShutdownTimeout != nil {
		timeout, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout: %w", err)
		}
		c.ShutdownTimeout = timeout
	}
	if fc.MetricsEnabled != nil {
		c.MetricsEnabled = *fc.MetricsEnabled
	}
	if fc.DataPath != nil {
		c.DataPath = *fc.DataPath
	}
	if fc.AllowedOrigins != nil {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.SerializeWrites != nil {
		c.SerializeWrites = *fc.SerializeWrites
	}
	if fc.MaxBodyBytes != nil {
		c.MaxBodyBytes = *fc.MaxBodyBytes
	}

	return nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	return c.loadCatalogEnv()
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvMaxBodyBytes); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMaxBodyBytes, err)
		}
		c.MaxBodyBytes = n
	}

	return nil
}

// loadCatalogEnv loads storage and CORS environment variables.
func (c *Config) loadCatalogEnv() error {
	if val := os.Getenv(EnvDataPath); val != "" {
		c.DataPath = val
	}

	if val := os.Getenv(EnvAllowedOrigins); val != "" {
		c.AllowedOrigins = splitList(val)
	}

	if val := os.Getenv(EnvSerializeWrites); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvSerializeWrites, err)
		}
		c.SerializeWrites = enabled
	}

	return nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if strings.TrimSpace(c.DataPath) == "" {
		return ErrEmptyDataPath
	}

	if len(c.AllowedOrigins) == 0 {
		return ErrNoAllowedOrigins
	}

	if c.MaxBodyBytes <= 0 {
		return ErrInvalidMaxBodyBytes
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
