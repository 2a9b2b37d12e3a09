package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		cfg = nil
		configPathOverride = ""
	})
}

func TestDefaults(t *testing.T) {
	resetViper(t)

	// Point at an empty directory so no real config file is picked up.
	SetConfigPath(filepath.Join(t.TempDir(), "glasspane.toml"))
	require.NoError(t, Init())

	cfg := Get()
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.False(t, cfg.Server.SSHEnabled)
	assert.Equal(t, 8766, cfg.Server.SSHPort)
	assert.True(t, cfg.Server.SSHWhitelistOnly)
	assert.Equal(t, "log", cfg.Display.Sink)
}

func TestLoadFromFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "glasspane.toml")
	content := `
[server]
port = 9999
bind_address = "127.0.0.1"
ssh_enabled = true

[display]
sink = "file"
output_dir = "/tmp/frames"

[logging]
log_level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	SetConfigPath(path)
	require.NoError(t, Init())

	cfg := Get()
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	assert.True(t, cfg.Server.SSHEnabled)
	assert.Equal(t, "file", cfg.Display.Sink)
	assert.Equal(t, "/tmp/frames", cfg.Display.OutputDir)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)

	// Unset fields keep their defaults.
	assert.Equal(t, 8766, cfg.Server.SSHPort)
}

func TestGetWithoutInitReturnsDefaults(t *testing.T) {
	resetViper(t)
	cfg = nil

	got := Get()
	assert.Equal(t, DefaultConfig.Server.Port, got.Server.Port)
}

func TestSaveWritesFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "glasspane.toml")
	SetConfigPath(path)
	require.NoError(t, Init())

	viper.Set("server.port", 4242)
	require.NoError(t, Save())

	// A fresh load sees the saved value.
	viper.Reset()
	SetConfigPath(path)
	require.NoError(t, Init())
	assert.Equal(t, 4242, Get().Server.Port)
}
