package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "opentill.workperiod", cfg.EventChannel)
	assert.Equal(t, 24*time.Hour, cfg.MaxOpenAge)
	assert.True(t, cfg.Tolerance().Equal(decimal.RequireFromString("5.00")))
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TILL_VARIANCE_TOLERANCE", "10.50")
	t.Setenv("TILL_MAX_OPEN_AGE", "12h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Tolerance().Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, 12*time.Hour, cfg.MaxOpenAge)
}

func TestLoadConfigRejectsBadTolerance(t *testing.T) {
	t.Setenv("TILL_VARIANCE_TOLERANCE", "five dollars")

	_, err := LoadConfig()
	assert.Error(t, err)
}
