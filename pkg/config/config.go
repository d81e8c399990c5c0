package config

import "time"

// Config holds runtime configuration for MiniVenmo.
type Config struct {
	AppEnv      string            `mapstructure:"env" validate:"required,oneof=development test production"`
	Log         LogConfig         `mapstructure:"log"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	Feed        FeedConfig        `mapstructure:"feed"`
	Cards       CardsConfig       `mapstructure:"cards"`
	Processor   ProcessorConfig   `mapstructure:"processor"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string        `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn" validate:"omitempty,url"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}

// Enabled reports whether errors should be reported to Sentry.
func (c SentryConfig) Enabled() bool {
	return c.DSN != ""
}

type FeedConfig struct {
	// Emit controls whether rendered feeds are also printed.
	Emit bool `mapstructure:"emit"`
}

type CardsConfig struct {
	Accepted []string `mapstructure:"accepted" validate:"required,min=1,dive,numeric,min=12,max=19"`
}

type ProcessorConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	// Decline lists card numbers the simulated processor always refuses.
	Decline []string `mapstructure:"decline"`
}

type RetryConfig struct {
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" validate:"gte=0"`
	Multiplier     float64       `mapstructure:"multiplier" validate:"gte=1"`
}

type BreakerConfig struct {
	ErrorThreshold      float64       `mapstructure:"error_threshold" validate:"gt=0,lte=1"`
	MinRequests         int           `mapstructure:"min_requests" validate:"gte=1"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
	HalfOpenMaxRequests int           `mapstructure:"half_open_max_requests" validate:"gte=1"`
}

type IdempotencyConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}
