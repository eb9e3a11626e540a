// Package config provides configuration loading and management for volraycast.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"volraycast/pkg/log"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Render parameters
	Render struct {
		// Width and Height are the viewport size in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Threads is the size of the ray marching worker pool
		Threads int `yaml:"threads"`

		// Mode is one of slice, slice-borders, volume, projection, projection-max
		Mode string `yaml:"mode"`

		// Interpolation is nearest or trilinear
		Interpolation string `yaml:"interpolation"`

		// Sampling is the number of samples per voxel along a ray
		Sampling float64 `yaml:"sampling"`

		// Scale is the zoom factor
		Scale float64 `yaml:"scale"`

		// ZAspect stretches the z axis; 0 derives it from the voxel spacing
		ZAspect float64 `yaml:"zAspect"`

		// AngleX, AngleY, AngleZ are the initial Euler angles in degrees
		AngleX float64 `yaml:"angleX"`
		AngleY float64 `yaml:"angleY"`
		AngleZ float64 `yaml:"angleZ"`

		// Clip is the clip plane position as a fraction of the volume depth on screen
		Clip float64 `yaml:"clip"`

		// Background is the RGB background colour
		Background [3]int `yaml:"background"`
	} `yaml:"render"`

	// Light parameters
	Light struct {
		// Enabled toggles shading in volume mode
		Enabled bool `yaml:"enabled"`

		// Ambient, Diffuse, Specular are the Phong coefficients
		Ambient  float64 `yaml:"ambient"`
		Diffuse  float64 `yaml:"diffuse"`
		Specular float64 `yaml:"specular"`

		// Shine is the specular exponent
		Shine float64 `yaml:"shine"`

		// Object blends the unshaded object colour into the result
		Object float64 `yaml:"object"`

		// Color is the RGB light colour
		Color [3]int `yaml:"color"`
	} `yaml:"light"`

	// Transfer function parameters
	Transfer struct {
		// Mode is one of luminance, lumgrad, meandiff, paint
		Mode string `yaml:"mode"`

		// Palette is the name of a built-in colour map
		Palette string `yaml:"palette"`

		// Auto derives the initial opacity from the histograms
		Auto bool `yaml:"auto"`

		// LumTolerance and GradTolerance bound the region paint fill
		LumTolerance  int `yaml:"lumTolerance"`
		GradTolerance int `yaml:"gradTolerance"`

		// PaintAlpha is the opacity assigned by paint operations
		PaintAlpha int `yaml:"paintAlpha"`
	} `yaml:"transfer"`

	// Output parameters
	Output struct {
		// Directory receives rendered frames and slice sequences
		Directory string `yaml:"directory"`

		// Verbose raises the log level to info
		Verbose bool `yaml:"verbose"`

		// Modules overrides the level of single loggers, e.g. render: debug
		Modules map[string]string `yaml:"modules,omitempty"`
	} `yaml:"output"`

	// Server parameters
	Server struct {
		// Address is the listen address of the preview server
		Address string `yaml:"address"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Render.Width = 512
	cfg.Render.Height = 512
	cfg.Render.Threads = runtime.NumCPU()
	if cfg.Render.Threads > 8 {
		cfg.Render.Threads = 8
	}
	cfg.Render.Mode = "volume"
	cfg.Render.Interpolation = "trilinear"
	cfg.Render.Sampling = 1
	cfg.Render.Scale = 1
	cfg.Render.ZAspect = 0
	cfg.Render.AngleX = 115
	cfg.Render.AngleY = 41
	cfg.Render.AngleZ = 17
	cfg.Render.Clip = 0
	cfg.Render.Background = [3]int{0, 52, 101}

	cfg.Light.Enabled = false
	cfg.Light.Ambient = 0.5
	cfg.Light.Diffuse = 0.5
	cfg.Light.Specular = 0.5
	cfg.Light.Shine = 17
	cfg.Light.Object = 0.5
	cfg.Light.Color = [3]int{255, 128, 0}

	cfg.Transfer.Mode = "luminance"
	cfg.Transfer.Palette = "gray"
	cfg.Transfer.Auto = true
	cfg.Transfer.LumTolerance = 10
	cfg.Transfer.GradTolerance = 20
	cfg.Transfer.PaintAlpha = 128

	cfg.Output.Directory = "output"
	cfg.Output.Verbose = false

	cfg.Server.Address = "localhost:8080"

	return cfg
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Render.Threads)
	}
	if c.Render.Sampling <= 0 {
		return fmt.Errorf("sampling must be positive, got %f", c.Render.Sampling)
	}
	if c.Render.Scale < 0.25 || c.Render.Scale > 128 {
		return fmt.Errorf("scale %f out of range [0.25, 128]", c.Render.Scale)
	}
	if c.Render.Clip < 0 || c.Render.Clip > 1 {
		return fmt.Errorf("clip %f out of range [0, 1]", c.Render.Clip)
	}
	if c.Transfer.PaintAlpha < 0 || c.Transfer.PaintAlpha > 255 {
		return fmt.Errorf("paint alpha %d out of range [0, 255]", c.Transfer.PaintAlpha)
	}
	for module, level := range c.Output.Modules {
		if _, err := log.ParseLevel(level); err != nil {
			return fmt.Errorf("output module %s: %w", module, err)
		}
	}
	for _, rgb := range [][3]int{c.Render.Background, c.Light.Color} {
		for _, v := range rgb {
			if v < 0 || v > 255 {
				return fmt.Errorf("colour component %d out of range [0, 255]", v)
			}
		}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
