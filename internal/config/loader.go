package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Options tweaks where Load looks for files
type Options struct {
	// ConfigPaths are searched for config.yaml
	ConfigPaths []string
	// EnvFile is a dotenv file merged below environment variables
	EnvFile string
}

// DefaultOptions returns the search paths used by the binaries
func DefaultOptions() Options {
	return Options{
		ConfigPaths: []string{".", "./config", "/etc/llmops"},
		EnvFile:     ".env",
	}
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadWithOptions(DefaultOptions())
}

// LoadWithOptions loads configuration with explicit file locations
func LoadWithOptions(opts Options) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range opts.ConfigPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if opts.EnvFile != "" {
		if err := mergeEnvFile(v, opts.EnvFile); err != nil {
			return nil, err
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.Debug = v.GetBool("server_debug")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	cfg.Migrations.Auto = v.GetBool("migrations_auto")

	// Redis
	cfg.Redis.Enabled = v.GetBool("redis_enabled")
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// Rate Limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerSecond = v.GetInt("rate_limit_requests_per_second")
	cfg.RateLimit.Burst = v.GetInt("rate_limit_burst")
	cfg.RateLimit.Window = time.Duration(v.GetInt("rate_limit_window_seconds")) * time.Second

	// Auth
	cfg.Auth.Enabled = v.GetBool("auth_enabled")
	cfg.Auth.JWTSecret = v.GetString("jwt_secret")
	cfg.Auth.Issuer = v.GetString("jwt_issuer")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")

	// Prompts
	cfg.Prompt.LibraryPath = v.GetString("prompt_library_path")

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeEnvFile merges a dotenv file, ignoring a missing one
func mergeEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	// real environment variables win over the file
	for _, key := range env.AllKeys() {
		if _, ok := os.LookupEnv(strings.ToUpper(key)); ok {
			continue
		}
		v.Set(key, env.Get(key))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 5001)
	v.SetDefault("server_env", "development")
	v.SetDefault("server_debug", false)

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "postgres")
	v.SetDefault("postgres_db", "llmops")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	v.SetDefault("migrations_auto", false)

	// Redis defaults
	v.SetDefault("redis_enabled", false)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", false)
	v.SetDefault("rate_limit_requests_per_second", 100)
	v.SetDefault("rate_limit_burst", 200)
	v.SetDefault("rate_limit_window_seconds", 60)

	// Auth defaults
	v.SetDefault("auth_enabled", false)
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_issuer", "llmops")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry defaults
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_sample_rate", 1.0)

	v.SetDefault("prompt_library_path", "configs/prompts.yaml")
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == defaultJWTSecret && cfg.IsProduction() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	if cfg.Sentry.Enabled && cfg.Sentry.DSN == "" {
		return fmt.Errorf("sentry is enabled but sentry_dsn is empty")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("invalid rate limit: %d requests per second", cfg.RateLimit.RequestsPerSecond)
		}
		if cfg.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid rate limit burst: %d", cfg.RateLimit.Burst)
		}
		if cfg.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window: %s", cfg.RateLimit.Window)
		}
	}
	return nil
}
