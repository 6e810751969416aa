package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Task      TaskConfig      `mapstructure:"task"       validate:"required"`
	Reports   ReportsConfig   `mapstructure:"reports"    validate:"required"`
	Logs      LogsConfig      `mapstructure:"logs"       validate:"required"`
	Stats     StatsConfig     `mapstructure:"stats"      validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL may be a postgres:// DSN or a sqlite: path.
type DatabaseConfig struct {
	URL            string `mapstructure:"url"              validate:"required"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"   validate:"gt=0"`
}

// RateLimitConfig configures the per-client admission controller.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests" validate:"gt=0"`
	Window      time.Duration `mapstructure:"window"       validate:"gt=0"`
	// KeyHeader names a request header whose value identifies the client.
	// When empty or absent on a request, the remote address is used.
	KeyHeader         string `mapstructure:"key_header"`
	TrustForwardedFor bool   `mapstructure:"trust_forwarded_for"`
}

// TaskConfig sizes the background worker pool.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"gt=0"`
}

// ReportsConfig controls where report artifacts go and how long they live.
type ReportsConfig struct {
	Dir             string        `mapstructure:"dir"              validate:"required"`
	FallbackDir     string        `mapstructure:"fallback_dir"`
	Retention       time.Duration `mapstructure:"retention"        validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

// LogsConfig configures the asynchronous application log file.
type LogsConfig struct {
	File                 string        `mapstructure:"file"                   validate:"required"`
	SlowRequestThreshold time.Duration `mapstructure:"slow_request_threshold" validate:"gt=0"`
	// SlowLogsPerSecond caps how many slow-request entries are submitted.
	SlowLogsPerSecond float64 `mapstructure:"slow_logs_per_second" validate:"gt=0"`
}

// StatsConfig selects the destination for statistics exports.
type StatsConfig struct {
	Sink           string        `mapstructure:"sink"             validate:"required,oneof=file redis"`
	RedisAddr      string        `mapstructure:"redis_addr"       validate:"required_if=Sink redis"`
	RedisKeyPrefix string        `mapstructure:"redis_key_prefix"`
	RedisTTL       time.Duration `mapstructure:"redis_ttl"`
}
