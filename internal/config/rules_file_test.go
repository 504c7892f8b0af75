package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuleOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte(`
rules:
  - id: error_rate_high
    threshold: 0.1
  - id: latency_high
    enabled: false
  - id: auth_failure_spike
    cooldown_seconds: 120
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	overrides, err := LoadRuleOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 3)

	assert.Equal(t, "error_rate_high", overrides[0].ID)
	require.NotNil(t, overrides[0].Threshold)
	assert.InDelta(t, 0.1, *overrides[0].Threshold, 1e-9)
	assert.Nil(t, overrides[0].Enabled)

	require.NotNil(t, overrides[1].Enabled)
	assert.False(t, *overrides[1].Enabled)
	assert.Nil(t, overrides[1].Threshold)

	require.NotNil(t, overrides[2].CooldownSeconds)
	assert.Equal(t, 120, *overrides[2].CooldownSeconds)
}

func TestLoadRuleOverridesMissingFile(t *testing.T) {
	overrides, err := LoadRuleOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, overrides)
}

func TestLoadRuleOverridesRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - threshold: 0.5\n"), 0o644))

	_, err := LoadRuleOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no id")
}

func TestLoadRuleOverridesRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [unclosed"), 0o644))

	_, err := LoadRuleOverrides(path)
	assert.Error(t, err)
}
