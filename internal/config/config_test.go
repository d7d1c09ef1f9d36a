package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/detgeo-mcp/internal/geometry"
	"github.com/ironsheep/detgeo-mcp/internal/raster"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gray", cfg.Render.Colormap)
	assert.Equal(t, 1, cfg.Render.Zoom)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel())
	assert.Nil(t, cfg.Raster.Offset)
}

func TestLoadTOML(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvCalibDir, "")
	path := writeConfig(t, "detgeo.toml", `
[geometry]
verbosity = 3
strict_roots = true

[raster]
scale = 109.92
offset = { x = 5, y = 1 }

[render]
colormap = "viridis"
zoom = 2
flip_y = true

[render.grid]
spacing = 50
labels = true

[calib]
dir = "/data/calib"
group = "PNCCD::CalibV1"

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, geometry.PrintFileInfo|geometry.PrintGeoList, cfg.Geometry.Verbosity)
	assert.True(t, cfg.Geometry.StrictRoots)
	assert.Equal(t, 109.92, cfg.Raster.Scale)
	assert.Equal(t, &raster.Offset{X: 5, Y: 1}, cfg.Raster.Offset)
	assert.Equal(t, "viridis", cfg.Render.Colormap)
	assert.Equal(t, 2, cfg.Render.Zoom)
	assert.True(t, cfg.Render.FlipY)
	assert.Equal(t, 50, cfg.Render.Grid.Spacing)
	assert.True(t, cfg.Render.Grid.Labels)
	assert.Equal(t, "/data/calib", cfg.Calib.Dir)
	assert.Equal(t, "PNCCD::CalibV1", cfg.Calib.Group)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel())
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvCalibDir, "")
	path := writeConfig(t, "detgeo.yml", `
render:
  colormap: hot
  region: {x1: 0, y1: 0, x2: 10, y2: 20}
calib:
  dir: ./calib
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hot", cfg.Render.Colormap)
	require.NotNil(t, cfg.Render.Region)
	assert.Equal(t, 20, cfg.Render.Region.Y2)
	assert.Equal(t, "./calib", cfg.Calib.Dir)
	// unset keys keep their defaults
	assert.Equal(t, 1, cfg.Render.Zoom)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvCalibDir, "/env/calib")
	path := writeConfig(t, "detgeo.toml", "[calib]\ndir = \"/file/calib\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/calib", cfg.Calib.Dir)
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel())

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/calib", cfg.Calib.Dir)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvCalibDir, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "detgeo.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(writeConfig(t, "bad.toml", "[render\ncolormap ="))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad.yaml", "render: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative scale", func(c *Config) { c.Raster.Scale = -1 }},
		{"negative zoom", func(c *Config) { c.Render.Zoom = -2 }},
		{"negative gamma", func(c *Config) { c.Render.Gamma = -0.5 }},
		{"colormap", func(c *Config) { c.Render.Colormap = "rainbow" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGeometryOptions(t *testing.T) {
	logger := logrus.New()
	g := Geometry{Verbosity: geometry.PrintAll, StrictRoots: true}

	opts := g.Options(logger)
	assert.Equal(t, geometry.PrintAll, opts.Verbosity)
	assert.True(t, opts.StrictRoots)
	assert.Same(t, logger, opts.Logger)
}
