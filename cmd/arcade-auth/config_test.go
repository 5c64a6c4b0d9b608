package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.CodeTTL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5*time.Second, cfg.TerminalGrace)
	assert.Equal(t, 10, cfg.AuthRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.AuthRateWindow)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CODE_TTL", "90s")
	t.Setenv("AUTH_RATE_LIMIT", "3")
	t.Setenv("BASE_URL", "https://arcade.example")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.CodeTTL)
	assert.Equal(t, 3, cfg.AuthRateLimit)
	assert.Equal(t, "https://arcade.example", cfg.BaseURL)
}

func TestLoadConfig_RejectsZeroLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_RATE_LIMIT", "0")

	_, err := loadConfig()
	assert.Error(t, err)
}
