package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/go-theft-craft/terraingen/pkg/terrain/pipeline"
)

// Store kinds for generated output.
const (
	StoreFiles   = "files"
	StoreLevelDB = "leveldb"
)

// Config holds the generator configuration.
type Config struct {
	Terrain pipeline.Config `json:"terrain" yaml:"terrain"`
	Output  Output          `json:"output" yaml:"output"`
}

// Output selects where a generated terrain is written.
type Output struct {
	Dir   string `json:"dir" yaml:"dir"`
	Store string `json:"store" yaml:"store"` // "files" or "leveldb"
}

// DefaultConfig returns a Config with the standard terrain and file output.
func DefaultConfig() *Config {
	return &Config{
		Terrain: pipeline.DefaultConfig(),
		Output: Output{
			Dir:   "out",
			Store: StoreFiles,
		},
	}
}

// Load reads a YAML (.yaml, .yml) or JSON (.json) file over the defaults, so
// fields the file omits keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML or JSON depending on the file extension.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Merge replaces cfg with the file-loaded values, except for the fields whose
// flags were explicitly set on the command line. explicitFlags contains the
// flag names that were explicitly provided.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	flags := *cfg
	*cfg = *fromFile

	if explicitFlags["width"] {
		cfg.Terrain.Width = flags.Terrain.Width
	}
	if explicitFlags["height"] {
		cfg.Terrain.Height = flags.Terrain.Height
	}
	if explicitFlags["depth"] {
		cfg.Terrain.Depth = flags.Terrain.Depth
	}
	if explicitFlags["seed"] {
		cfg.Terrain.Seed = flags.Terrain.Seed
	}
	if explicitFlags["noise"] {
		cfg.Terrain.NoiseKind = flags.Terrain.NoiseKind
	}
	if explicitFlags["erosion"] {
		cfg.Terrain.EnableErosion = flags.Terrain.EnableErosion
	}
	if explicitFlags["droplets"] {
		cfg.Terrain.Erosion.Iterations = flags.Terrain.Erosion.Iterations
	}
	if explicitFlags["layers"] {
		cfg.Terrain.Layers = flags.Terrain.Layers
	}
	if explicitFlags["trees"] {
		cfg.Terrain.TreeCount = flags.Terrain.TreeCount
	}
	if explicitFlags["workers"] {
		cfg.Terrain.Workers = flags.Terrain.Workers
	}
	if explicitFlags["out"] {
		cfg.Output.Dir = flags.Output.Dir
	}
	if explicitFlags["store"] {
		cfg.Output.Store = flags.Output.Store
	}
}

// Validate checks the output settings and the terrain settings.
func (c *Config) Validate() error {
	switch c.Output.Store {
	case StoreFiles, StoreLevelDB:
	default:
		return fmt.Errorf("output store must be %q or %q, got %q", StoreFiles, StoreLevelDB, c.Output.Store)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir required")
	}
	return c.Terrain.Validate()
}
