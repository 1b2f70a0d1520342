package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	HTTP      HTTPConfig
	Data      DataConfig
	Widgets   WidgetConfig
	Sandbox   SandboxConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins may read the API from a browser; "*" allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds inbound rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// Global shares one bucket across all clients instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
}

// HTTPConfig holds the outbound client used by the fetcher and notifier.
// A zero Timeout leaves the transport default in place; zero Retries means a
// single attempt.
type HTTPConfig struct {
	Timeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s"`
	Retries   int           `envconfig:"HTTP_RETRIES" default:"0"`
	RateLimit float64       `envconfig:"HTTP_RATE_LIMIT" default:"0"`
	UserAgent string        `envconfig:"HTTP_USER_AGENT" default:"widgetkit/1.0"`
}

// DataConfig holds the data source store configuration.
type DataConfig struct {
	Path string `envconfig:"DATA_PATH" default:":memory:"`
	Seed bool   `envconfig:"DATA_SEED" default:"true"`
}

// WidgetConfig holds dashboard and widget rendering configuration.
// PageBaseURL is where this service is reachable; relative widget URLs and
// edit links resolve against it.
type WidgetConfig struct {
	DashboardDir string `envconfig:"DASHBOARD_DIR" default:"dashboards"`
	PageBaseURL  string `envconfig:"PAGE_BASE_URL" default:"http://localhost:8000"`
	AnimationMS  int    `envconfig:"CHART_ANIMATION_MS" default:"3000"`
}

// SandboxConfig holds the init script dry-run pool configuration.
type SandboxConfig struct {
	Timeout  time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"2s"`
	PoolSize int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
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
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		HTTP: HTTPConfig{
			UserAgent: "widgetkit/1.0",
		},
		Data: DataConfig{
			Path: ":memory:",
			Seed: true,
		},
		Widgets: WidgetConfig{
			DashboardDir: "dashboards",
			PageBaseURL:  "http://localhost:8000",
			AnimationMS:  3000,
		},
		Sandbox: SandboxConfig{
			Timeout:  2 * time.Second,
			PoolSize: 4,
		},
	}
}
