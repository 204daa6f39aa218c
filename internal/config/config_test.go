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

	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.False(t, cfg.Postgres.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "fs", cfg.Assets.Source)
	assert.Equal(t, 300*time.Millisecond, cfg.Assets.ImageDelay)
	assert.Equal(t, 24*time.Hour, cfg.Currency.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.Currency.DetectTimeout)
	assert.Equal(t, "embedded", cfg.Specs.Source)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("SPECS_SOURCE", "postgres")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CURRENCY_CACHE_TTL", "12h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Postgres.Enabled())
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=stone_catalog sslmode=disable", cfg.Postgres.DSN())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 12*time.Hour, cfg.Currency.CacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown asset source", map[string]string{"ASSETS_SOURCE": "s3"}},
		{"drive without folder", map[string]string{"ASSETS_SOURCE": "drive"}},
		{"spec file missing", map[string]string{"SPECS_SOURCE": "file"}},
		{"postgres specs without database", map[string]string{"SPECS_SOURCE": "postgres"}},
		{"bad duration", map[string]string{"CURRENCY_CACHE_TTL": "soon"}},
		{"bad app env", map[string]string{"APP_ENV": "qa"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
