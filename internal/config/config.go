// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Analytics sinks.
const (
	SinkNone  = "none"
	SinkHTTP  = "http"
	SinkRedis = "redis"
	SinkKafka = "kafka"
)

// Metrics backends.
const (
	MetricsPrometheus = "prometheus"
	MetricsMemory     = "memory"
	MetricsNone       = "none"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Share state storage
	StorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	StorageDir       string        `env:"STORAGE_DIR" envDefault:"./data"`
	RedisURL         string        `env:"REDIS_URL"`
	RedisBlobTTL     time.Duration `env:"REDIS_BLOB_TTL" envDefault:"0s"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	StorageKeyPrefix string        `env:"STORAGE_KEY_PREFIX" envDefault:"sharetrack:"`
	PersistTimeout   time.Duration `env:"PERSIST_TIMEOUT" envDefault:"2s"`

	// Share tracking
	HistoryCapacity  int    `env:"HISTORY_CAPACITY" envDefault:"100"`
	RecentWindowDays int    `env:"RECENT_WINDOW_DAYS" envDefault:"30"`
	Timezone         string `env:"TIMEZONE" envDefault:"Local"`
	MaxProfiles      int    `env:"MAX_PROFILES" envDefault:"10000"` // resident profile trackers, LRU

	// Tracking links (e.g., https://jobs.example.com)
	ProductName   string `env:"PRODUCT_NAME" envDefault:"jobboard"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`

	// Remote analytics
	AnalyticsSink     string        `env:"ANALYTICS_SINK" envDefault:"none"`
	AnalyticsEndpoint string        `env:"ANALYTICS_ENDPOINT"`
	AnalyticsTimeout  time.Duration `env:"ANALYTICS_TIMEOUT" envDefault:"2s"`
	KafkaBrokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic        string        `env:"KAFKA_TOPIC" envDefault:"share_events"`

	// HMAC secret for signing HTTP analytics requests; empty disables signing
	AnalyticsSigningSecret string `env:"ANALYTICS_SIGNING_SECRET"`

	// Direct email sharing
	EmailShareEndpoint   string        `env:"EMAIL_SHARE_ENDPOINT"`
	EmailShareTimeout    time.Duration `env:"EMAIL_SHARE_TIMEOUT" envDefault:"10s"`
	EmailShareOptimistic bool          `env:"EMAIL_SHARE_OPTIMISTIC" envDefault:"true"`

	// Metrics
	MetricsBackend string `env:"METRICS_BACKEND" envDefault:"prometheus"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// RecentWindow returns the window for "recent" share statistics.
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowDays) * 24 * time.Hour
}

// Location resolves TIMEZONE, the zone share dates and hours are bucketed in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case StorageMemory:
	case StorageFile:
		if c.StorageDir == "" {
			errs = append(errs, errors.New("STORAGE_DIR is required for the file backend"))
		}
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.AnalyticsSink {
	case SinkNone:
	case SinkHTTP:
		if c.AnalyticsEndpoint == "" {
			errs = append(errs, errors.New("ANALYTICS_ENDPOINT is required for the http sink"))
		}
	case SinkRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis sink"))
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka sink"))
		}
		if c.KafkaTopic == "" {
			errs = append(errs, errors.New("KAFKA_TOPIC is required for the kafka sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ANALYTICS_SINK %q", c.AnalyticsSink))
	}

	switch c.MetricsBackend {
	case MetricsPrometheus, MetricsMemory, MetricsNone:
	default:
		errs = append(errs, fmt.Errorf("unknown METRICS_BACKEND %q", c.MetricsBackend))
	}

	if c.HistoryCapacity < 1 {
		errs = append(errs, errors.New("HISTORY_CAPACITY must be at least 1"))
	}
	if c.MaxProfiles < 1 {
		errs = append(errs, errors.New("MAX_PROFILES must be at least 1"))
	}
	if c.RecentWindowDays < 1 {
		errs = append(errs, errors.New("RECENT_WINDOW_DAYS must be at least 1"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
