package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Zero(t, cfg.UsageRecordTTL)
	assert.Equal(t, 30*time.Second, cfg.CooldownWindow)
	assert.True(t, cfg.BreakerEnabled)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_BACKEND", BackendSQLite)
	t.Setenv("SQLITE_PATH", "/var/lib/quota/usage.db")
	t.Setenv("USAGE_RECORD_TTL", "720h")
	t.Setenv("USAGE_COOLDOWN_WINDOW", "45s")
	t.Setenv("USAGE_BREAKER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "/var/lib/quota/usage.db", cfg.SQLitePath)
	assert.Equal(t, 720*time.Hour, cfg.UsageRecordTTL)
	assert.Equal(t, 45*time.Second, cfg.CooldownWindow)
	assert.False(t, cfg.BreakerEnabled)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("USAGE_COOLDOWN_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.CooldownWindow)
}
