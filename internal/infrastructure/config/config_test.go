package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoragePostgres, cfg.Storage)
	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.JWTSecret)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, map[string]string{"main": "Main Branch"}, cfg.Branches)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.OutboxInterval)
	assert.Equal(t, 168*time.Hour, cfg.OutboxRetention)
	assert.Equal(t, 5*time.Minute, cfg.BranchCacheTTL)
	assert.Equal(t, 50.0, cfg.RateLimitRPS)
	assert.Equal(t, 100, cfg.RateLimitBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("BRANCHES", "b1:North,b2:South")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.Storage)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, map[string]string{"b1": "North", "b2": "South"}, cfg.Branches)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "top-secret", cfg.JWTSecret)
	assert.Zero(t, cfg.RateLimitRPS)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("auth without secret", func(t *testing.T) {
		t.Setenv("AUTH_ENABLED", "true")
		t.Setenv("JWT_SECRET", "")
		_, err := config.Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Storage:        config.StorageMemory,
			Branches:       map[string]string{"main": "Main"},
			RateLimitRPS:   10,
			RateLimitBurst: 10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid memory", func(c *config.Config) {}, ""},
		{"rate limit disabled", func(c *config.Config) { c.RateLimitRPS, c.RateLimitBurst = 0, 0 }, ""},
		{"unknown storage", func(c *config.Config) { c.Storage = "sqlite" }, "STORAGE"},
		{"postgres without url", func(c *config.Config) { c.Storage = config.StoragePostgres }, "DATABASE_URL"},
		{"negative rps", func(c *config.Config) { c.RateLimitRPS = -1 }, "RATE_LIMIT_RPS"},
		{"zero burst", func(c *config.Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT_BURST"},
		{"empty branch id", func(c *config.Config) { c.Branches[""] = "Nameless" }, "BRANCHES"},
		{"auth without secret", func(c *config.Config) { c.AuthEnabled = true }, "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := config.Config{Storage: "nope", AuthEnabled: true, RateLimitRPS: 1}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "STORAGE")
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "RATE_LIMIT_BURST")
}
