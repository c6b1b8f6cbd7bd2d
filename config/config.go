// Package config loads and validates dashwatch configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/pkg/backoff"
)

// Environment variables recognized by FromEnv. They override file values so
// deploys can repoint a client without editing config.
const (
	EnvURL         = "DASHSTREAM_URL"
	EnvMetricsAddr = "DASHSTREAM_METRICS_ADDR"
	EnvLogLevel    = "DASHSTREAM_LOG_LEVEL"
)

// ReconnectConfig is the YAML shape of a backoff policy
type ReconnectConfig struct {
	Initial     time.Duration `yaml:"initial"`
	Max         time.Duration `yaml:"max"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxAttempts int           `yaml:"max_attempts"`
	Jitter      bool          `yaml:"jitter"`
}

// Policy converts the YAML shape to a backoff policy, falling back to the
// canonical defaults when the section is absent
func (r ReconnectConfig) Policy() backoff.Policy {
	if r == (ReconnectConfig{}) {
		return backoff.Default()
	}
	return backoff.Policy{
		Initial:     r.Initial,
		Max:         r.Max,
		Multiplier:  r.Multiplier,
		MaxAttempts: r.MaxAttempts,
		Jitter:      r.Jitter,
	}
}

// MetricsConfig configures the optional prometheus scrape endpoint. An empty
// Addr disables the metrics server entirely.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Config is the full dashwatch configuration
type Config struct {
	// URL is the backend base address, ws:// or wss://
	URL string `yaml:"url"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	CommandTimeout   time.Duration `yaml:"command_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is supplied
func Default() Config {
	return Config{
		URL:              "ws://localhost:8080",
		HandshakeTimeout: 10 * time.Second,
		CommandTimeout:   30 * time.Second,
		PingInterval:     30 * time.Second,
		LogLevel:         "info",
	}
}

// Load reads a YAML config file, overlays environment variables, and
// validates the result. An empty path skips the file and uses defaults
// plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.WrapFatal(err, "Config", "Load", "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.WrapInvalid(err, "Config", "Load", "parse config file")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for values that would only fail later
// at connect time
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: url", errors.ErrMissingConfig),
			"Config", "Validate", "check url")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "parse url")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: url scheme %q (want ws or wss)", errors.ErrInvalidConfig, u.Scheme),
			"Config", "Validate", "check url scheme")
	}

	if err := c.Reconnect.Policy().Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "check reconnect policy")
	}

	if c.HandshakeTimeout < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: handshake_timeout cannot be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "check handshake_timeout")
	}
	if c.CommandTimeout < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: command_timeout cannot be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "check command_timeout")
	}
	if c.PingInterval < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: ping_interval cannot be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "check ping_interval")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: log_level %q", errors.ErrInvalidConfig, c.LogLevel),
			"Config", "Validate", "check log_level")
	}

	return nil
}
