package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any env vars that would override defaults
	for _, key := range []string{
		"SERVICE_NAME", "ENV", "LOG_LEVEL", "PORT", "DATA_DIR", "SNAPSHOT_BACKEND",
		"DATABASE_URL", "NATS_URL", "AWS_SECRET_NAME", "MOA_BASE_URL", "MOA_MARKET_NAME",
		"MOA_ZERO_SAMPLE_SIZE", "MOA_ZERO_THRESHOLD", "WARMUP_ENABLED", "WARMUP_AT",
		"HTTP_BODY_LIMIT", "MOA_RATE_PER_SECOND",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "moa-adapter", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "file", cfg.SnapshotBackend)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.AWSSecretName)
	assert.Equal(t, "https://data.moa.gov.tw", cfg.MOABaseURL)
	assert.Equal(t, "台北一", cfg.MOAMarketName)
	assert.Equal(t, 5, cfg.ZeroSampleSize)
	assert.Equal(t, "0", cfg.ZeroThreshold)
	assert.Equal(t, 2.0, cfg.MOARatePerSecond)
	assert.Equal(t, 10*1024*1024, cfg.HTTPBodyLimit)
	assert.False(t, cfg.WarmUpEnabled)
	assert.Equal(t, 8, cfg.WarmUpAt.Hour())
	assert.Equal(t, 30, cfg.WarmUpAt.Minute())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SNAPSHOT_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MOA_HTTP_TIMEOUT", "5s")
	t.Setenv("MOA_ZERO_SAMPLE_SIZE", "10")
	t.Setenv("MOA_ZERO_THRESHOLD", "0.5")
	t.Setenv("WARMUP_ENABLED", "true")
	t.Setenv("WARMUP_AT", "06:15")
	t.Setenv("WARMUP_INTERVAL", "2h")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "redis", cfg.SnapshotBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.MOAHTTPTimeout)
	assert.Equal(t, 10, cfg.ZeroSampleSize)
	assert.Equal(t, "0.5", cfg.ZeroThreshold)
	assert.True(t, cfg.WarmUpEnabled)
	assert.Equal(t, 6, cfg.WarmUpAt.Hour())
	assert.Equal(t, 15, cfg.WarmUpAt.Minute())
	assert.Equal(t, 2*time.Hour, cfg.WarmUpInterval)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("WARMUP_AT", "25:99")
	t.Setenv("WARMUP_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 8, cfg.WarmUpAt.Hour())
	assert.False(t, cfg.WarmUpEnabled)
}
