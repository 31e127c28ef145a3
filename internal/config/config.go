package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Addr         string `env:"ADDR" envDefault:":8080"`
	DatabaseDSN  string `env:"DB_DSN"`
	JWTSecret    string `env:"JWT_SECRET"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Env          string `env:"APP_ENV" envDefault:"dev"`
	HistoryLimit int    `env:"HISTORY_LIMIT" envDefault:"500"`
}

var (
	ErrMissingDSN    = errors.New("DB_DSN is not set")
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
)

// Load parses the environment and validates the settings that have no
// sane default.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DatabaseDSN == "" {
		return Config{}, ErrMissingDSN
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 500
	}
	return cfg, nil
}
