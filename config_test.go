package voxr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 11, cfg.World.GridWidth)
	assert.Equal(t, float32(25), cfg.Camera.Far)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
window:
  title: test
world:
  seed: 42
  grid_width: 5
  workers: 2
save:
  compress: true
physics:
  enabled: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Window.Title)
	assert.Equal(t, 1920, cfg.Window.Width, "unset keys keep defaults")
	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 5, cfg.World.GridWidth)
	assert.Equal(t, 2, cfg.World.Workers)
	assert.True(t, cfg.Save.Compress)
	assert.Equal(t, "world.vxl", cfg.Save.Path)
	assert.True(t, cfg.Physics.Enabled)
	assert.Equal(t, float32(-9.81), cfg.Physics.Gravity)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "world:\n  gridwidth: 5\n"))
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"even grid", func(c *Config) { c.World.GridWidth = 4 }},
		{"zero grid", func(c *Config) { c.World.GridWidth = 0 }},
		{"negative workers", func(c *Config) { c.World.Workers = -1 }},
		{"bad world id", func(c *Config) { c.World.WorldID = "not-a-uuid" }},
		{"zero window", func(c *Config) { c.Window.Height = 0 }},
		{"near", func(c *Config) { c.Camera.Near = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.001 }},
		{"speed", func(c *Config) { c.Camera.MoveSpeed = 0 }},
		{"save path", func(c *Config) { c.Save.Path = " " }},
		{"gravity up", func(c *Config) { c.Physics.Gravity = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}

	cfg := DefaultConfig()
	cfg.World.WorldID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigValidates(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "world:\n  grid_width: 4\n"))
	assert.ErrorIs(t, err, ErrConfig)
}
