package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/pkg/backoff"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8080", cfg.URL)
	assert.Equal(t, 10*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, backoff.Default(), cfg.Reconnect.Policy())
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
url: wss://dashboard.internal:8443
log_level: debug
handshake_timeout: 5s
reconnect:
  initial: 2s
  max: 20s
  multiplier: 2.0
  max_attempts: 5
  jitter: true
metrics:
  addr: ":9100"
  path: /metrics
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://dashboard.internal:8443", cfg.URL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)

	policy := cfg.Reconnect.Policy()
	assert.Equal(t, 2*time.Second, policy.Initial)
	assert.Equal(t, 20*time.Second, policy.Max)
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.True(t, policy.Jitter)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "url: ws://from-file:8080\n")

	t.Setenv(EnvURL, "wss://from-env:8443")
	t.Setenv(EnvMetricsAddr, ":9200")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://from-env:8443", cfg.URL)
	assert.Equal(t, ":9200", cfg.Metrics.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "url: [unterminated\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(*Config) {}},
		{name: "empty url", mutate: func(c *Config) { c.URL = "" }, wantErr: true},
		{name: "http scheme", mutate: func(c *Config) { c.URL = "http://x:8080" }, wantErr: true},
		{name: "wss scheme", mutate: func(c *Config) { c.URL = "wss://x:8443" }},
		{name: "negative handshake timeout", mutate: func(c *Config) { c.HandshakeTimeout = -time.Second }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
		{name: "empty log level", mutate: func(c *Config) { c.LogLevel = "" }},
		{name: "inverted backoff bounds", mutate: func(c *Config) {
			c.Reconnect = ReconnectConfig{Initial: 10 * time.Second, Max: time.Second, Multiplier: 2}
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReconnectConfig_EmptySectionUsesDefault(t *testing.T) {
	assert.Equal(t, backoff.Default(), ReconnectConfig{}.Policy())
}
