package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Breaker     BreakerConfig
	Pipeline    PipelineConfig
	Maintenance MaintenanceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CacheConfig sizes each worker's indicator cache.
type CacheConfig struct {
	MaxSize    int           `envconfig:"CACHE_MAX_SIZE" default:"10000"`
	BaseTTL    time.Duration `envconfig:"CACHE_BASE_TTL" default:"60s"`
	BucketSize time.Duration `envconfig:"CACHE_BUCKET_SIZE" default:"60s"`
}

// BreakerConfig holds the thresholds of each worker's health monitor.
type BreakerConfig struct {
	FailureThreshold int           `envconfig:"BREAKER_FAILURE_THRESHOLD" default:"10"`
	SuccessThreshold int           `envconfig:"BREAKER_SUCCESS_THRESHOLD" default:"3"`
	Timeout          time.Duration `envconfig:"BREAKER_TIMEOUT" default:"5s"`
	RecoveryTimeout  time.Duration `envconfig:"BREAKER_RECOVERY_TIMEOUT" default:"60s"`
}

// PipelineConfig drives the tick loop.
type PipelineConfig struct {
	TickInterval  time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	Workers       int           `envconfig:"WORKERS" default:"4"`
	WatchlistPath string        `envconfig:"WATCHLIST_PATH" default:""`
	HistoryLength int           `envconfig:"HISTORY_LENGTH" default:"500"`
}

// MaintenanceConfig holds cron schedules for background jobs.
type MaintenanceConfig struct {
	CleanupSchedule  string `envconfig:"CLEANUP_SCHEDULE" default:"@every 1m"`
	SnapshotSchedule string `envconfig:"SNAPSHOT_SCHEDULE" default:"@every 15s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Cache.MaxSize <= 0:
		return fmt.Errorf("invalid config: CACHE_MAX_SIZE must be positive, got %d", c.Cache.MaxSize)
	case c.Cache.BucketSize < time.Second:
		return fmt.Errorf("invalid config: CACHE_BUCKET_SIZE must be at least 1s, got %s", c.Cache.BucketSize)
	case c.Pipeline.Workers <= 0:
		return fmt.Errorf("invalid config: WORKERS must be positive, got %d", c.Pipeline.Workers)
	case c.Pipeline.TickInterval <= 0:
		return fmt.Errorf("invalid config: TICK_INTERVAL must be positive, got %s", c.Pipeline.TickInterval)
	case c.Breaker.Timeout <= 0:
		return fmt.Errorf("invalid config: BREAKER_TIMEOUT must be positive, got %s", c.Breaker.Timeout)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
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
		Cache: CacheConfig{
			MaxSize:    10000,
			BaseTTL:    60 * time.Second,
			BucketSize: 60 * time.Second,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 10,
			SuccessThreshold: 3,
			Timeout:          5 * time.Second,
			RecoveryTimeout:  60 * time.Second,
		},
		Pipeline: PipelineConfig{
			TickInterval:  time.Second,
			Workers:       4,
			HistoryLength: 500,
		},
		Maintenance: MaintenanceConfig{
			CleanupSchedule:  "@every 1m",
			SnapshotSchedule: "@every 15s",
		},
	}
}
