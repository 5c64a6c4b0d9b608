package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/samber/oops"
)

// Config holds server configuration loaded from environment variables
type Config struct {
	Port    int    `envconfig:"PORT" default:"8080"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	CodeTTL       time.Duration `envconfig:"CODE_TTL" default:"5m"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	TerminalGrace time.Duration `envconfig:"TERMINAL_GRACE" default:"5s"`

	// Empty selects the in-memory store and limiter.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL"`

	AuthRateLimit  int           `envconfig:"AUTH_RATE_LIMIT" default:"10"`
	AuthRateWindow time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"15m"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "loading configuration")
	}
	if cfg.JWTSecret == "" {
		return Config{}, oops.Code("CONFIG_INVALID").Errorf("JWT_SECRET must not be empty")
	}
	if cfg.AuthRateLimit <= 0 {
		return Config{}, oops.Code("CONFIG_INVALID").Errorf("AUTH_RATE_LIMIT must be positive")
	}
	return cfg, nil
}
