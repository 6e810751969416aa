package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "CRM"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Every key needs a default so AutomaticEnv can map it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate_on_start", true)
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.key_header", "X-Api-Key")
	v.SetDefault("rate_limit.trust_forwarded_for", false)

	v.SetDefault("task.worker_count", 5)
	v.SetDefault("task.queue_size", 100)

	v.SetDefault("reports.dir", "informes")
	v.SetDefault("reports.fallback_dir", "")
	v.SetDefault("reports.retention", 7*24*time.Hour)
	v.SetDefault("reports.cleanup_interval", 24*time.Hour)

	v.SetDefault("logs.file", "application.log")
	v.SetDefault("logs.slow_request_threshold", time.Second)
	v.SetDefault("logs.slow_logs_per_second", 5.0)

	v.SetDefault("stats.sink", "file")
	v.SetDefault("stats.redis_addr", "")
	v.SetDefault("stats.redis_key_prefix", "crm:stats")
	v.SetDefault("stats.redis_ttl", 7*24*time.Hour)
}
