// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Console ConsoleConfig `mapstructure:"console" yaml:"console"`
	Stream  StreamConfig  `mapstructure:"stream" yaml:"stream"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ServerConfig describes how to reach the backend.
type ServerConfig struct {
	// BaseURL is the HTTP root of the backend, e.g. "http://127.0.0.1:5000".
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Timeout bounds each individual HTTP request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ConsoleConfig tunes the live state synchronizer.
type ConsoleConfig struct {
	// Transport selects how snapshots arrive: "websocket" (duplex push) or
	// "poll" (fixed-interval GET).
	Transport string `mapstructure:"transport" yaml:"transport"`
	// ReconnectDelay is the fixed delay between duplex reconnection attempts.
	// Retries continue indefinitely; there is no backoff and no cap.
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	// PollInterval is the fixed snapshot polling cadence in poll mode.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// ToolPageSize is the page size used when hydrating the tool catalog.
	ToolPageSize int `mapstructure:"tool_page_size" yaml:"tool_page_size"`
	// HydrationRate caps tool-catalog page requests per second.
	HydrationRate float64 `mapstructure:"hydration_rate" yaml:"hydration_rate"`
}

// StreamConfig tunes the incremental process-output streamer.
type StreamConfig struct {
	// RefreshInterval is the fixed auto-refresh cadence while a process view
	// is open and the process has not completed.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	// MaxChars caps the chunk size requested per fetch.
	MaxChars int `mapstructure:"max_chars" yaml:"max_chars"`
}

// Transport values accepted by ConsoleConfig.Transport.
const (
	TransportWebsocket = "websocket"
	TransportPoll      = "poll"
)

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "periscope-cli")
	v.SetDefault("logger.log_file", "periscope.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.base_url", "http://127.0.0.1:5000")
	v.SetDefault("server.timeout", "30s")

	// -- Console --
	v.SetDefault("console.transport", TransportWebsocket)
	v.SetDefault("console.reconnect_delay", "1500ms")
	v.SetDefault("console.poll_interval", "2s")
	v.SetDefault("console.tool_page_size", 300)
	v.SetDefault("console.hydration_rate", 4.0)

	// -- Stream --
	v.SetDefault("stream.refresh_interval", "2s")
	v.SetDefault("stream.max_chars", 12000)
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The log file may be specified relative to the user's home directory.
	if cfg.Logger.LogFile != "" {
		expanded, err := homedir.Expand(cfg.Logger.LogFile)
		if err != nil {
			return nil, fmt.Errorf("invalid logger.log_file path: %w", err)
		}
		cfg.Logger.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is a required configuration field")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must start with http:// or https://")
	}
	switch c.Console.Transport {
	case TransportWebsocket, TransportPoll:
	default:
		return fmt.Errorf("console.transport must be %q or %q", TransportWebsocket, TransportPoll)
	}
	if c.Console.ReconnectDelay <= 0 {
		return fmt.Errorf("console.reconnect_delay must be a positive duration")
	}
	if c.Console.PollInterval <= 0 {
		return fmt.Errorf("console.poll_interval must be a positive duration")
	}
	if c.Console.ToolPageSize <= 0 {
		return fmt.Errorf("console.tool_page_size must be a positive integer")
	}
	if c.Stream.RefreshInterval <= 0 {
		return fmt.Errorf("stream.refresh_interval must be a positive duration")
	}
	if c.Stream.MaxChars <= 0 {
		return fmt.Errorf("stream.max_chars must be a positive integer")
	}
	return nil
}

// WebsocketURL derives the duplex snapshot feed URL from the HTTP base URL.
func (c *Config) WebsocketURL() string {
	base := strings.TrimSuffix(c.Server.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/snapshot"
}
