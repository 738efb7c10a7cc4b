package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-theft-craft/terraingen/pkg/terrain/pipeline"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Terrain != pipeline.DefaultConfig() {
		t.Errorf("terrain defaults = %+v", cfg.Terrain)
	}
	if cfg.Output.Store != StoreFiles || cfg.Output.Dir == "" {
		t.Errorf("output defaults = %+v", cfg.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "island.yaml", `
terrain:
  width: 128
  height: 64
  noise: perlin
  enable_erosion: false
  erosion:
    iterations: 1000
  splat:
    rock_density: 2
  trees:
    threshold: 0.6
output:
  store: leveldb
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tr := cfg.Terrain
	if tr.Width != 128 || tr.Height != 64 || tr.NoiseKind != "perlin" || tr.EnableErosion {
		t.Errorf("terrain = %+v", tr)
	}
	if tr.Erosion.Iterations != 1000 || tr.Erosion.Inertia != 0.1 {
		t.Errorf("erosion = %+v, want iterations overridden and inertia default", tr.Erosion)
	}
	if tr.Splat.RockDensity != 2 || tr.Splat.TextureScale != 60 {
		t.Errorf("splat = %+v", tr.Splat)
	}
	if tr.Trees.Threshold != 0.6 || tr.Trees.Scale != 40 {
		t.Errorf("trees = %+v", tr.Trees)
	}
	if tr.Depth != 12 {
		t.Errorf("depth = %v, want default 12", tr.Depth)
	}
	if cfg.Output.Store != StoreLevelDB || cfg.Output.Dir != "out" {
		t.Errorf("output = %+v", cfg.Output)
	}
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "flat.json", `{"terrain": {"depth": 40, "layers": 2, "tree_count": 10}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Terrain.Depth != 40 || cfg.Terrain.Layers != 2 || cfg.Terrain.TreeCount != 10 {
		t.Errorf("terrain = %+v", cfg.Terrain)
	}
	if cfg.Terrain.Width != 256 {
		t.Errorf("width = %d, want default 256", cfg.Terrain.Width)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope.yaml")},
		{"extension", writeFile(t, dir, "preset.toml", "width = 3")},
		{"bad yaml", writeFile(t, dir, "bad.yaml", "terrain: [")},
		{"bad json", writeFile(t, dir, "bad.json", "{")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Terrain.Seed = 42
	cfg.Terrain.Noise.Octaves = 5

	for _, name := range []string{"cfg.yaml", "cfg.json"} {
		p := filepath.Join(dir, name)
		if err := Save(cfg, p); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		got, err := Load(p)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if *got != *cfg {
			t.Errorf("%s round trip = %+v, want %+v", name, got, cfg)
		}
	}
}

func TestMerge(t *testing.T) {
	flags := DefaultConfig()
	flags.Terrain.Seed = 99
	flags.Terrain.Width = 64
	flags.Output.Dir = "flags-out"

	fromFile := DefaultConfig()
	fromFile.Terrain.Seed = 1
	fromFile.Terrain.Width = 512
	fromFile.Terrain.Depth = 30
	fromFile.Output.Dir = "file-out"

	Merge(flags, fromFile, map[string]bool{"seed": true, "out": true})

	if flags.Terrain.Seed != 99 || flags.Output.Dir != "flags-out" {
		t.Errorf("explicit flags lost: seed=%d dir=%q", flags.Terrain.Seed, flags.Output.Dir)
	}
	if flags.Terrain.Width != 512 || flags.Terrain.Depth != 30 {
		t.Errorf("file values not applied: width=%d depth=%v", flags.Terrain.Width, flags.Terrain.Depth)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
		ok   bool
	}{
		{"default", func(*Config) {}, true},
		{"leveldb", func(c *Config) { c.Output.Store = StoreLevelDB }, true},
		{"unknown store", func(c *Config) { c.Output.Store = "s3" }, false},
		{"no dir", func(c *Config) { c.Output.Dir = "" }, false},
		{"bad terrain", func(c *Config) { c.Terrain.Width = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestFetchLocalPreset(t *testing.T) {
	src := writeFile(t, t.TempDir(), "dunes.yaml", "terrain:\n  width: 96\n")
	dst := t.TempDir()

	p, err := Fetch(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(p) != "dunes.yaml" {
		t.Errorf("fetched to %s", p)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Terrain.Width != 96 {
		t.Errorf("width = %d, want 96", cfg.Terrain.Width)
	}
}

func TestPresetName(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"https://example.com/presets/alps.yaml?ref=v1", "alps.yaml"},
		{"s3::https://s3.amazonaws.com/bucket/dunes.json", "dunes.json"},
		{"/tmp/local/island.yml", "island.yml"},
		{"presets/flat.json", "flat.json"},
	}
	for _, tt := range tests {
		got, err := presetName(tt.src)
		if err != nil || got != tt.want {
			t.Errorf("presetName(%q) = %q, %v, want %q", tt.src, got, err, tt.want)
		}
	}
	if _, err := presetName(""); err == nil {
		t.Error("expected error for empty source")
	}
}
