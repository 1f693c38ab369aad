// Package config holds the engine settings: backend, window, shadows, culling, batching, logging
// and profiling. Settings load from TOML or YAML files overlaid on Default and can be watched for
// changes while the engine runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded config fails validation.
var ErrInvalid = errors.New("invalid config")

// ErrFormat is returned for a config file extension with no known parser.
var ErrFormat = errors.New("unsupported config format")

// Backend names.
const (
	BackendGL       = "gl"
	BackendWGPU     = "wgpu"
	BackendHeadless = "headless"
)

// Window configures the application window.
type Window struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	VSync  bool   `toml:"vsync" yaml:"vsync"`
}

// Shadow configures the single shadow map.
type Shadow struct {
	Enabled             bool    `toml:"enabled" yaml:"enabled"`
	Resolution          int     `toml:"resolution" yaml:"resolution"`
	DirectionalDistance float32 `toml:"directional_distance" yaml:"directional_distance"`
	SpotNear            float32 `toml:"spot_near" yaml:"spot_near"`
	SpotFar             float32 `toml:"spot_far" yaml:"spot_far"`
}

// Culling configures frustum culling.
type Culling struct {
	// RadiusScale multiplies the length of an entity's scale to get its bounding radius.
	RadiusScale float32 `toml:"radius_scale" yaml:"radius_scale"`
}

// Batching configures the batch compiler.
type Batching struct {
	// Epsilon is the metallic/roughness tolerance of the material batching key.
	Epsilon float32 `toml:"epsilon" yaml:"epsilon"`
	// MaxInstances is the instance capacity of meshes created without an explicit capacity.
	MaxInstances int `toml:"max_instances" yaml:"max_instances"`
}

// Log configures the logger built by the logging package.
type Log struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
	// File enables a rotating file sink next to stderr when set.
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
}

// Profiling configures the periodic stats log line.
type Profiling struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled"`
	Interval Duration `toml:"interval" yaml:"interval"`
}

// Config is the complete engine configuration.
type Config struct {
	Backend    string     `toml:"backend" yaml:"backend"`
	TickRate   int        `toml:"tick_rate" yaml:"tick_rate"`
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`

	Window    Window    `toml:"window" yaml:"window"`
	Shadow    Shadow    `toml:"shadow" yaml:"shadow"`
	Culling   Culling   `toml:"culling" yaml:"culling"`
	Batching  Batching  `toml:"batching" yaml:"batching"`
	Log       Log       `toml:"log" yaml:"log"`
	Profiling Profiling `toml:"profiling" yaml:"profiling"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:    BackendGL,
		TickRate:   60,
		ClearColor: [4]float32{0.1, 0.1, 0.12, 1},
		Window: Window{
			Title:  "engine",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Shadow: Shadow{
			Enabled:             true,
			Resolution:          2048,
			DirectionalDistance: 50,
			SpotNear:            0.5,
			SpotFar:             100,
		},
		Culling: Culling{
			RadiusScale: 5,
		},
		Batching: Batching{
			Epsilon:      1e-3,
			MaxInstances: 1000,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Profiling: Profiling{
			Enabled:  true,
			Interval: Duration(time.Second),
		},
	}
}

// Load reads a config file and overlays it on Default. The parser is chosen by extension:
// .toml, or .yaml / .yml. The result is validated.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: read, parse or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext and overlays it on Default.
//
// Parameters:
//   - data: the file contents
//   - ext: the file extension, with or without the leading dot
//
// Returns:
//   - Config: the validated configuration
//   - error: ErrFormat, a decode error or ErrInvalid
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%q: %w", ext, ErrFormat)
	}
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. Every problem is reported in one joined error wrapping ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	switch c.Backend {
	case BackendGL, BackendWGPU, BackendHeadless:
	default:
		check(false, "backend %q", c.Backend)
	}
	check(c.TickRate > 0, "tick_rate %d must be positive", c.TickRate)
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Shadow.Resolution > 0 && c.Shadow.Resolution&(c.Shadow.Resolution-1) == 0,
		"shadow.resolution %d must be a power of two", c.Shadow.Resolution)
	check(c.Shadow.DirectionalDistance > 0, "shadow.directional_distance must be positive")
	check(c.Shadow.SpotNear > 0 && c.Shadow.SpotFar > c.Shadow.SpotNear,
		"shadow spot range [%g, %g]", c.Shadow.SpotNear, c.Shadow.SpotFar)
	check(c.Culling.RadiusScale > 0, "culling.radius_scale must be positive")
	check(c.Batching.Epsilon >= 0, "batching.epsilon must not be negative")
	check(c.Batching.MaxInstances > 0, "batching.max_instances must be positive")
	check(c.Profiling.Interval >= 0, "profiling.interval must not be negative")
	return errors.Join(errs...)
}
