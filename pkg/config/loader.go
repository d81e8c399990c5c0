// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MINIVENMO"

var validate = newValidator()

// Load reads defaults, an optional YAML file at path and MINIVENMO_* environment
// variables, validates the result and returns it together with the viper
// instance that produced it. An empty path falls back to $MINIVENMO_CONFIG;
// when both are empty only defaults and the environment apply.
func Load(path string) (*Config, *viper.Viper, error) {
	for _, file := range []string{".env.local", ".env"} {
		// missing env files are fine
		_ = godotenv.Load(file)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("env", envPrefix+"_ENV", "APP_ENV"); err != nil {
		return nil, nil, fmt.Errorf("bind env: %w", err)
	}

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Watch calls onChange with the re-decoded configuration every time the file
// behind v is written. It reports false when v was not loaded from a file.
func Watch(v *viper.Viper, onChange func(*Config, error)) bool {
	if v == nil || v.ConfigFileUsed() == "" || onChange == nil {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()

	return true
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg := sl.Current().Interface().(Config)
		if cfg.Idempotency.Backend == "redis" && cfg.Redis.Addr == "" {
			sl.ReportError(cfg.Redis.Addr, "Redis.Addr", "addr", "required_with_redis_backend", "")
		}
	}, Config{})

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 28)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	v.SetDefault("feed.emit", true)

	v.SetDefault("cards.accepted", []string{"4111111111111111", "4242424242424242"})

	v.SetDefault("processor.timeout", 5*time.Second)
	v.SetDefault("processor.decline", []string{})
	v.SetDefault("processor.retry.max_retries", 3)
	v.SetDefault("processor.retry.initial_backoff", 100*time.Millisecond)
	v.SetDefault("processor.retry.max_backoff", 5*time.Second)
	v.SetDefault("processor.retry.multiplier", 2.0)
	v.SetDefault("processor.breaker.error_threshold", 0.5)
	v.SetDefault("processor.breaker.min_requests", 10)
	v.SetDefault("processor.breaker.open_timeout", 30*time.Second)
	v.SetDefault("processor.breaker.half_open_max_requests", 3)

	v.SetDefault("idempotency.backend", "memory")
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.shutdown_timeout", 5*time.Second)
}
