package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cutii/enocean/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.True(t, cfg.Metrics.Enable)
	assert.Equal(t, ":9666", cfg.Metrics.Addr)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Devices)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enocean.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serial:
  port: /dev/ttyAMA0
logging:
  level: debug
devices:
  - id: "05:11:72:F7"
    profile: A5-04-01
  - id: "05:0a:3d:6a"
    profile: D2-01-0E
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "05:11:72:F7", cfg.Devices[0].ID)
	assert.Equal(t, "A5-04-01", cfg.Devices[0].Profile)
	// File values not set keep their defaults.
	assert.Equal(t, ":9666", cfg.Metrics.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ENOCEAN_SERIAL_PORT", "/dev/ttyS3")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS3", cfg.Serial.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
