package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5000, cfg.Timeouts.Normal)
	assert.Equal(t, 0, cfg.Timeouts.Critical, "critical notifications default to sticky")
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 0, cfg.MaxVisible)
	assert.False(t, cfg.DoNotDisturb)
}

func TestLoadExplicitPath(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
max_visible = 5
do_not_disturb = true

[timeouts]
low = 1000
normal = 2000
critical = 30000

[history]
enabled = false

[[rule]]
app_name = "mail*"
urgency = "critical"
timeout = 10000

[[rule]]
app_name = "spam"
suppress = true
stop = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.MaxVisible)
	assert.True(t, cfg.DoNotDisturb)
	assert.Equal(t, 1000, cfg.Timeouts.Low)
	assert.Equal(t, 30000, cfg.Timeouts.Critical)
	assert.False(t, cfg.History.Enabled)

	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, "mail*", cfg.Rules[0].AppName)
	require.NotNil(t, cfg.Rules[0].Timeout)
	assert.Equal(t, 10000, *cfg.Rules[0].Timeout)
	assert.True(t, cfg.Rules[1].Suppress)
	assert.True(t, cfg.Rules[1].Stop)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `log_level = [broken`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `max_visible = 3`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxVisible)
	assert.Equal(t, 5000, cfg.Timeouts.Normal, "unset fields keep defaults")
	assert.Equal(t, "info", cfg.LogLevel)
}
