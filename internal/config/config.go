package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all realtime client configuration.
type Config struct {
	Realtime  RealtimeConfig
	Reconnect ReconnectConfig
	Keepalive KeepaliveConfig
	Tags      TagsConfig
	API       APIConfig
	Logging   LogConfig
}

// RealtimeConfig holds WebSocket endpoint configuration.
type RealtimeConfig struct {
	BaseURL        string        `envconfig:"WS_BASE_URL" default:"wss://api.picaton.app"`
	ConnectTimeout time.Duration `envconfig:"WS_CONNECT_TIMEOUT" default:"10s"`
}

// ReconnectConfig holds automatic reconnection policy parameters.
type ReconnectConfig struct {
	MaxAttempts int           `envconfig:"WS_RECONNECT_MAX_ATTEMPTS" default:"5"`
	BaseDelay   time.Duration `envconfig:"WS_RECONNECT_BASE_DELAY" default:"1s"`
}

// KeepaliveConfig holds heartbeat configuration.
type KeepaliveConfig struct {
	Interval time.Duration `envconfig:"WS_KEEPALIVE_INTERVAL" default:"30s"`
}

// TagsConfig holds tag suggestion configuration.
type TagsConfig struct {
	Debounce time.Duration `envconfig:"TAG_SUGGEST_DEBOUNCE" default:"1500ms"`
}

// APIConfig holds the REST fallback configuration.
type APIConfig struct {
	BaseURL    string        `envconfig:"API_BASE_URL" default:"https://api.picaton.app"`
	Timeout    time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
	RetryCount int           `envconfig:"API_RETRY_COUNT" default:"3"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Realtime: RealtimeConfig{
			BaseURL:        "wss://api.picaton.app",
			ConnectTimeout: 10 * time.Second,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 5,
			BaseDelay:   time.Second,
		},
		Keepalive: KeepaliveConfig{
			Interval: 30 * time.Second,
		},
		Tags: TagsConfig{
			Debounce: 1500 * time.Millisecond,
		},
		API: APIConfig{
			BaseURL:    "https://api.picaton.app",
			Timeout:    15 * time.Second,
			RetryCount: 3,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
