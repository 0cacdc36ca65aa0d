package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "https://open.er-api.com/v6", cfg.Exchange.APIBase)
	assert.Equal(t, "criptoya", cfg.Ars.Provider)
	assert.Equal(t, 60*time.Second, cfg.Forex.CacheTTL)
	assert.Equal(t, 45*time.Second, cfg.Ars.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Provider.HTTPTimeout)
	assert.Equal(t, 25*time.Second, cfg.OpenAI.InitialTimeout)
	assert.Equal(t, 15*time.Second, cfg.OpenAI.FollowupTimeout)
	assert.Equal(t, 5, cfg.Scan.MaxIterations)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("ARS_PROVIDER", "dolarapi")
	t.Setenv("FOREX_CACHE_TTL", "2m")
	t.Setenv("SCAN_MAX_ITERATIONS", "3")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "dolarapi", cfg.Ars.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Forex.CacheTTL)
	assert.Equal(t, 3, cfg.Scan.MaxIterations)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}
