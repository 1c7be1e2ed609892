// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "http://127.0.0.1:5000", cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)

	assert.Equal(t, TransportWebsocket, cfg.Console.Transport)
	assert.Equal(t, 1500*time.Millisecond, cfg.Console.ReconnectDelay)
	assert.Equal(t, 2*time.Second, cfg.Console.PollInterval)
	assert.Equal(t, 300, cfg.Console.ToolPageSize)

	assert.Equal(t, 2*time.Second, cfg.Stream.RefreshInterval)
	assert.Equal(t, 12000, cfg.Stream.MaxChars)

	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("should apply overrides on top of defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("server.base_url", "https://scans.example.internal")
		v.Set("console.transport", "poll")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "https://scans.example.internal", cfg.Server.BaseURL)
		assert.Equal(t, TransportPoll, cfg.Console.Transport)
		// Untouched sections keep their defaults.
		assert.Equal(t, 2*time.Second, cfg.Stream.RefreshInterval)
	})

	t.Run("should expand a home-relative log path", func(t *testing.T) {
		homedir.DisableCache = true
		defer func() { homedir.DisableCache = false }()
		t.Setenv("HOME", "/home/operator")
		v := viper.New()
		SetDefaults(v)
		v.Set("logger.log_file", "~/logs/periscope.log")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "/home/operator/logs/periscope.log", cfg.Logger.LogFile)
	})

	t.Run("should reject an invalid configuration", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("console.transport", "carrier-pigeon")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "console.transport")
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return NewDefaultConfig() }

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing base url", func(c *Config) { c.Server.BaseURL = "" }, "server.base_url"},
		{"unsupported scheme", func(c *Config) { c.Server.BaseURL = "ftp://x" }, "http://"},
		{"bad transport", func(c *Config) { c.Console.Transport = "smoke-signals" }, "console.transport"},
		{"non-positive reconnect delay", func(c *Config) { c.Console.ReconnectDelay = 0 }, "reconnect_delay"},
		{"non-positive poll interval", func(c *Config) { c.Console.PollInterval = -time.Second }, "poll_interval"},
		{"non-positive page size", func(c *Config) { c.Console.ToolPageSize = 0 }, "tool_page_size"},
		{"non-positive refresh interval", func(c *Config) { c.Stream.RefreshInterval = 0 }, "refresh_interval"},
		{"non-positive chunk cap", func(c *Config) { c.Stream.MaxChars = 0 }, "max_chars"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestWebsocketURL(t *testing.T) {
	testCases := []struct {
		name     string
		base     string
		expected string
	}{
		{"http becomes ws", "http://127.0.0.1:5000", "ws://127.0.0.1:5000/ws/snapshot"},
		{"https becomes wss", "https://scans.example.internal", "wss://scans.example.internal/ws/snapshot"},
		{"trailing slash is trimmed", "http://127.0.0.1:5000/", "ws://127.0.0.1:5000/ws/snapshot"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Server.BaseURL = tc.base
			assert.Equal(t, tc.expected, cfg.WebsocketURL())
		})
	}
}
