package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Equal(t, 30, cfg.Policy.LinkCap)
	assert.Equal(t, 8*time.Second, cfg.Policy.LinkTimeout)
	assert.Equal(t, 7*time.Second, cfg.Oracle.MinInterval)
	assert.False(t, cfg.Oracle.Enabled())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webqa.yaml")
	data := []byte(`
browser:
  headless: false
  viewport_width: 1920
policy:
  link_cap: 10
oracle:
  model: gpt-4o
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 10, cfg.Policy.LinkCap)
	assert.Equal(t, "gpt-4o", cfg.Oracle.Model)
	// untouched fields keep their defaults
	assert.Equal(t, 812, cfg.Browser.MobileHeight)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webqa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oracle:\n  model: from-yaml\n"), 0o644))

	t.Setenv("WEBQA_ORACLE_MODEL", "from-env")
	t.Setenv("WEBQA_ORACLE_API_KEY", "sk-test")
	t.Setenv("WEBQA_ORACLE_MIN_INTERVAL", "9s")
	t.Setenv("WEBQA_BROWSER_HEADLESS", "false")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Oracle.Model)
	assert.Equal(t, 9*time.Second, cfg.Oracle.MinInterval)
	assert.True(t, cfg.Oracle.Enabled())
	assert.False(t, cfg.Browser.Headless)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/does/not/exist.yaml").Load()
	assert.Error(t, err)
}

func TestEnvPrefix(t *testing.T) {
	t.Setenv("QA_ORACLE_MODEL", "prefixed")
	cfg, err := NewLoader().WithEnvPrefix("QA").Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Oracle.Model)
}

func TestEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WEBQA_ORACLE_MAX_TURNS", "not-a-number")
	t.Setenv("WEBQA_ORACLE_MIN_INTERVAL", "soon")
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Oracle.MaxTurns)
	assert.Equal(t, 7*time.Second, cfg.Oracle.MinInterval)
}
