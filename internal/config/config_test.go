package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("NO_SHOW_GRACE_MINUTES", "45")
	t.Setenv("SSE_HEARTBEAT_SECONDS", "not-a-number")
	t.Setenv("DEV_DB_NAME", "salonq_test")
	t.Setenv("DEFAULT_PRIORITY_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "salonq_test", cfg.Database.DBName)
	assert.Equal(t, 45*time.Minute, cfg.Queue.NoShowGrace)
	assert.Equal(t, 30*time.Second, cfg.Queue.SSEHeartbeat)
	assert.Equal(t, "0 0 * * *", cfg.Queue.QuotaResetCron)
	assert.Equal(t, 5, cfg.Queue.DefaultPriorityLimit)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
	assert.Same(t, cfg, AppConfig)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PROD_JWT_SECRET", "real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://app.salonq.io", cfg.GetAllowedOrigins())
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	t.Setenv("APP_MODE", "staging")
	_, err := Load()
	assert.Error(t, err)
}
