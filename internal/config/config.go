// Package config loads server configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcoot/quizroom/internal/factory"
	redisstorage "github.com/mcoot/quizroom/internal/storage/redis"
)

// Config holds server configuration loaded from the environment
type Config struct {
	// HTTPHost is the interface the API listens on; empty means all
	HTTPHost string `mapstructure:"HTTP_HOST"`
	// HTTPPort is the API listen port
	HTTPPort int `mapstructure:"HTTP_PORT"`
	// StorageType is one of memory, redis, sqlite or postgres
	StorageType string `mapstructure:"STORAGE_TYPE"`
	// RedisURL is required when StorageType is redis
	RedisURL string `mapstructure:"REDIS_URL"`
	// DatabaseURL is the DSN for sqlite (a file path) or postgres
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// LogLevel is debug, info, warn or error
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Level is LogLevel parsed during validation
	Level slog.Level `mapstructure:"-"`
	// ScoreboardInterval is how often live scoreboards are pushed
	ScoreboardInterval time.Duration `mapstructure:"SCOREBOARD_INTERVAL"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load reads .env (if present), then builds and validates Config from the environment.
// Env vars override .env.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("HTTP_HOST", "")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("STORAGE_TYPE", factory.StorageTypeMemory)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SCOREBOARD_INTERVAL", "5s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}

	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL must be set when STORAGE_TYPE=%s", c.StorageType)
		}
	case factory.StorageTypeSQLite, factory.StorageTypePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL must be set when STORAGE_TYPE=%s", c.StorageType)
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_TYPE %q", c.StorageType)
	}

	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	c.Level = level
	if c.ScoreboardInterval <= 0 {
		return fmt.Errorf("config: SCOREBOARD_INTERVAL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", name)
	}
	return level, nil
}

// Factory translates c into the application factory's configuration
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:             logger,
		StorageType:        c.StorageType,
		DatabaseURL:        c.DatabaseURL,
		ScoreboardInterval: c.ScoreboardInterval,
	}
	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}
