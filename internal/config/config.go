// Package config defines process configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the catalogue backend: memory or redis.
	Store         string `koanf:"store"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// Seed loads fixtures into the store at startup. FixturesPath replaces
	// the embedded fixtures when set.
	Seed         bool   `koanf:"seed"`
	FixturesPath string `koanf:"fixtures_path"`

	// QueueSize bounds the snapshot queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the snapshot id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps ?limit on leaderboard requests.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// DefaultFormula is used when a request names none: gate or legacy.
	DefaultFormula string `koanf:"default_formula"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Store:               StoreMemory,
		RedisAddr:           "localhost:6379",
		RedisPrefix:         "syncops",
		Seed:                true,
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		CORSOrigins:         []string{"*"},
		DefaultFormula:      "gate",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreRedis:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis store", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.DefaultFormula != "gate" && c.DefaultFormula != "legacy":
		return fmt.Errorf("%w: unknown default_formula %q", ErrInvalidConfig, c.DefaultFormula)
	}
	return nil
}
