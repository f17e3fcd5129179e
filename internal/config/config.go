// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port         string        `env:"PORT"          envDefault:"5175"`
	LogLevel     string        `env:"LOG_LEVEL"     envDefault:"info"`
	ClientOrigin string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	JWTSecret    string        `env:"JWT_SECRET"    envDefault:"dev_secret_change_me"`
	TokenTTL     time.Duration `env:"TOKEN_TTL"     envDefault:"1h"`
	StoreDSN     string        `env:"STORE_DSN"` // empty → in-memory store
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	DailySalt    string        `env:"DAILY_SALT"    envDefault:"local_dev_salt"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required fields are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET cannot be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be > 0")
	}
	if c.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be > 0")
	}
	return nil
}
