package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10000, cfg.Stores.MetricsMaxEntries)
	assert.Equal(t, 30, cfg.Engine.TickSeconds)
	assert.Equal(t, 300, cfg.Engine.WindowSeconds)
	assert.Equal(t, 10, cfg.Security.BruteForceThreshold)
	assert.Equal(t, 5, cfg.Security.ReputationThreshold)
	assert.InDelta(t, 0.7, cfg.Governance.ToxicityThreshold, 1e-9)
	assert.Equal(t, 4, cfg.Response.Workers)
	assert.Equal(t, 256, cfg.Response.QueueSize)
	assert.Equal(t, 5, cfg.Response.ActionTimeoutSeconds)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VIGIL_PORT", "9090")
	t.Setenv("VIGIL_LOG_LEVEL", "debug")
	t.Setenv("VIGIL_ENGINE_TICK_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Engine.TickSeconds)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	content := []byte(`
environment: production
port: 8443
engine:
  window_seconds: 600
security:
  brute_force_threshold: 25
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, 600, cfg.Engine.WindowSeconds)
	assert.Equal(t, 25, cfg.Security.BruteForceThreshold)
	// untouched sections keep defaults
	assert.Equal(t, 300, cfg.Security.BruteForceWindowSeconds)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VIGIL_PORT", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestValidateConfigBounds(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port: 8080,
			Stores: StoresConfig{
				MetricsMaxEntries: 100, LogsMaxEntries: 100, RetentionHours: 24,
			},
			Engine:     EngineConfig{TickSeconds: 30, WindowSeconds: 300},
			Security:   SecurityConfig{BruteForceThreshold: 10, BruteForceWindowSeconds: 300, ReputationThreshold: 5},
			Governance: GovernanceConfig{ToxicityThreshold: 0.7},
			Response:   ResponseConfig{Workers: 4, QueueSize: 256, ActionTimeoutSeconds: 5},
		}
	}
	require.NoError(t, validateConfig(base()))

	c := base()
	c.Governance.ToxicityThreshold = 1.5
	assert.Error(t, validateConfig(c))

	c = base()
	c.Response.Workers = 0
	assert.Error(t, validateConfig(c))

	c = base()
	c.Stores.LogsMaxEntries = 1
	assert.Error(t, validateConfig(c))
}

// chdirTemp runs the test from an empty directory so a developer's local
// config.yaml cannot leak into assertions.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}
