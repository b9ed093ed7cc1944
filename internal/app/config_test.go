package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 2*time.Minute, cfg.PeriodCloseLockTTL)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PERIOD_CLOSE_LOCK_TTL", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 45*time.Second, cfg.PeriodCloseLockTTL)
}

func TestInTestModeUnderGuard(t *testing.T) {
	// The guard import above sets the flag before any test runs.
	RefreshTestMode()
	assert.True(t, InTestMode())
}
