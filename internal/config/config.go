// Package config holds the settings shared by the detgeo command line and
// the MCP server.
//
// Settings come from three layers applied in order: built-in defaults, an
// optional TOML or YAML file chosen by extension, and environment
// variables. Command line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/detgeo-mcp/internal/geometry"
	"github.com/ironsheep/detgeo-mcp/internal/imaging"
	"github.com/ironsheep/detgeo-mcp/internal/raster"
)

// Environment variables overriding file settings.
const (
	EnvLogLevel = "DETGEO_LOG_LEVEL"
	EnvCalibDir = "DETGEO_CALIB_DIR"
)

// ErrUnsupportedFormat is returned by Load for files that are neither TOML
// nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the complete detgeo configuration.
type Config struct {
	Geometry Geometry              `json:"geometry" toml:"geometry" yaml:"geometry"`
	Raster   Raster                `json:"raster" toml:"raster" yaml:"raster"`
	Render   imaging.RenderOptions `json:"render" toml:"render" yaml:"render"`
	Calib    Calib                 `json:"calib" toml:"calib" yaml:"calib"`
	Log      Log                   `json:"log" toml:"log" yaml:"log"`
}

// Geometry controls geometry loading.
type Geometry struct {
	Verbosity   geometry.Verbosity `json:"verbosity" toml:"verbosity" yaml:"verbosity"`
	StrictRoots bool               `json:"strict_roots" toml:"strict_roots" yaml:"strict_roots"`
}

// Options converts the settings into loader options using logger for
// diagnostics.
func (g Geometry) Options(logger logrus.FieldLogger) geometry.Options {
	return geometry.Options{
		Verbosity:   g.Verbosity,
		StrictRoots: g.StrictRoots,
		Logger:      logger,
	}
}

// Raster controls pixel index computation. A zero Scale uses the
// geometry's pixel scale size; a nil Offset places the minimum
// coordinate at index 0.
type Raster struct {
	Scale  float64        `json:"scale" toml:"scale" yaml:"scale"`
	Offset *raster.Offset `json:"offset,omitempty" toml:"offset,omitempty" yaml:"offset,omitempty"`
}

// Calib locates calibration files.
type Calib struct {
	Dir   string `json:"dir" toml:"dir" yaml:"dir"`
	Group string `json:"group" toml:"group" yaml:"group"`
}

// Log controls the process logger.
type Log struct {
	Level string `json:"level" toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Geometry: Geometry{Verbosity: geometry.PrintNone},
		Render:   imaging.RenderOptions{Colormap: "gray", Zoom: 1},
		Log:      Log{Level: "info"},
	}
}

// Load reads the configuration file at path over the defaults and applies
// environment overrides. An empty path yields the defaults plus the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from DETGEO_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvCalibDir); v != "" {
		c.Calib.Dir = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Raster.Scale < 0 {
		return fmt.Errorf("invalid raster scale %g: must not be negative", c.Raster.Scale)
	}
	if c.Render.Zoom < 0 {
		return fmt.Errorf("invalid render zoom %d", c.Render.Zoom)
	}
	if c.Render.Gamma < 0 {
		return fmt.Errorf("invalid render gamma %g", c.Render.Gamma)
	}
	if _, err := imaging.NewColormap(c.Render.Colormap); err != nil {
		return fmt.Errorf("invalid render colormap: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
