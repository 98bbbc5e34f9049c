package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "")
	t.Setenv("AUTO_APPROVE_REQUESTS", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Requests.AutoApprove)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Thresholds.CacheTTL)
	assert.Equal(t, "10-M", cfg.Auth.LoginRateLimit)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("AUTO_APPROVE_REQUESTS", "true")
	t.Setenv("THRESHOLD_CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_SCHEMA_PATH", "embedded")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Requests.AutoApprove)
	assert.Equal(t, 30*time.Second, cfg.Thresholds.CacheTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "embedded", cfg.DB.SchemaPath)
}

func TestLoad_FailsFast(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("LOGIN_RATE_LIMIT", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "LOGIN_RATE_LIMIT")
}
