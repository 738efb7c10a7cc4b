package pipeline

import (
	"fmt"

	"github.com/go-theft-craft/terraingen/pkg/terrain/erosion"
	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/surface"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// Config fully specifies one generation pass. Noise offsets and the rock
// and tree offsets are drawn per run and ignored here.
type Config struct {
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
	Depth  float64 `json:"depth" yaml:"depth"`

	// HeightmapResolution is the host heightmap size per side; 0 means Width+1.
	HeightmapResolution int `json:"heightmap_resolution" yaml:"heightmap_resolution"`
	// AlphamapResolution is the splat grid size per side; 0 means Width.
	AlphamapResolution int `json:"alphamap_resolution" yaml:"alphamap_resolution"`

	NoiseKind string                  `json:"noise" yaml:"noise"`
	Seed      int64                   `json:"seed" yaml:"seed"`
	Noise     heightfield.NoiseParams `json:"heights" yaml:"heights"`

	EnableErosion bool           `json:"enable_erosion" yaml:"enable_erosion"`
	Erosion       erosion.Params `json:"erosion" yaml:"erosion"`

	Layers int          `json:"layers" yaml:"layers"`
	Splat  splat.Params `json:"splat" yaml:"splat"`

	Trees     vegetation.Acceptance `json:"trees" yaml:"trees"`
	TreeCount int                   `json:"tree_count" yaml:"tree_count"`

	// Workers bounds the row-parallel stages; 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns a 256×256 terrain, 12 units deep, with erosion on
// and the standard grass/rock/sand layers.
func DefaultConfig() Config {
	return Config{
		Width:     256,
		Height:    256,
		Depth:     12,
		NoiseKind: "simplex",
		Noise: heightfield.NoiseParams{
			Scale:       12,
			Octaves:     8,
			Persistence: 0.5,
		},
		EnableErosion: true,
		Erosion:       erosion.DefaultParams(),
		Layers:        3,
		Splat:         splat.DefaultParams(),
		Trees:         vegetation.DefaultAcceptance(),
		TreeCount:     5000,
	}
}

// Validate reports settings no pass can run with. Conditions that degrade
// to a fallback, such as too few layers, are warnings raised by Generate.
func (c Config) Validate() error {
	switch {
	case c.Width < 1 || c.Height < 1:
		return &ConfigError{Field: "size", Err: fmt.Errorf("must be positive, got %dx%d", c.Width, c.Height)}
	case c.Depth <= 0:
		return &ConfigError{Field: "depth", Err: fmt.Errorf("must be positive, got %v", c.Depth)}
	case c.HeightmapResolution < 0 || c.AlphamapResolution < 0:
		return &ConfigError{Field: "resolution", Err: fmt.Errorf("must not be negative")}
	case c.TreeCount < 0:
		return &ConfigError{Field: "tree_count", Err: fmt.Errorf("must not be negative, got %d", c.TreeCount)}
	}
	if c.EnableErosion {
		if err := c.Erosion.Validate(); err != nil {
			return &ConfigError{Field: "erosion", Err: err}
		}
	}
	return nil
}

// Size returns the world extent the host terrain uses.
func (c Config) Size() surface.Size {
	return surface.Size{Width: float64(c.Width), Depth: c.Depth, Length: float64(c.Height)}
}

func (c Config) heightmapResolution() int {
	if c.HeightmapResolution > 0 {
		return c.HeightmapResolution
	}
	return c.Width + 1
}

func (c Config) alphamapResolution() int {
	if c.AlphamapResolution > 0 {
		return c.AlphamapResolution
	}
	return c.Width
}

// ConfigError is a configuration problem. Generate returns it as a fatal
// error from Validate, or records it in Result.Warnings when the stage
// degrades instead.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
