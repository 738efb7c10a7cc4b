package storage

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/pipeline"
	"github.com/go-theft-craft/terraingen/pkg/terrain/rng"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

func TestEncodeHeights(t *testing.T) {
	hf := heightfield.FromSlice(2, 2, []float64{0, 1, 0.5, -3})
	data := EncodeHeights(hf)
	want := []byte{0x00, 0x00, 0xff, 0xff, 0x00, 0x80, 0x00, 0x00}
	if !slices.Equal(data, want) {
		t.Fatalf("EncodeHeights = % x, want % x", data, want)
	}

	got, err := DecodeHeights(HeightsHeader{Width: 2, Height: 2, Format: HeightsFormat}, data)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range []float64{0, 1, 0.5, 0} {
		if math.Abs(got.Values()[i]-w) > 1.0/65535 {
			t.Errorf("value %d = %v, want ~%v", i, got.Values()[i], w)
		}
	}
}

func TestDecodeHeightsErrors(t *testing.T) {
	tests := []struct {
		name string
		h    HeightsHeader
		data []byte
	}{
		{"format", HeightsHeader{Width: 1, Height: 1, Format: "r32"}, []byte{0, 0}},
		{"short", HeightsHeader{Width: 2, Height: 2, Format: HeightsFormat}, []byte{0, 0}},
		{"empty", HeightsHeader{Format: HeightsFormat}, nil},
	}
	for _, tt := range tests {
		if _, err := DecodeHeights(tt.h, tt.data); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestFilesRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "terrain")
	f, err := NewFiles(dir, nil)
	if err != nil {
		t.Fatalf("NewFiles: %v", err)
	}

	hf := heightfield.FromSlice(3, 2, []float64{0, 0.25, 0.5, 0.75, 1, 0.125})
	if err := f.SetHeights(hf); err != nil {
		t.Fatal(err)
	}
	m := splat.NewMap(2, 1, 3)
	copy(m.Values(), []float64{1, 0, 0, 0.2, 0.3, 0.5})
	if err := f.SetSplatWeights(m); err != nil {
		t.Fatal(err)
	}
	trees := vegetation.Instances([]vegetation.Candidate{{X: 0.1, Z: 0.2, Height: 0.3, Rotation: 45}})
	if err := f.ReplaceInstances(trees); err != nil {
		t.Fatal(err)
	}

	gotHF, err := f.LoadHeights()
	if err != nil {
		t.Fatalf("LoadHeights: %v", err)
	}
	if gotHF.W != 3 || gotHF.H != 2 {
		t.Fatalf("heights %dx%d, want 3x2", gotHF.W, gotHF.H)
	}
	for i, v := range hf.Values() {
		if math.Abs(gotHF.Values()[i]-v) > 1.0/65535 {
			t.Errorf("height %d = %v, want %v", i, gotHF.Values()[i], v)
		}
	}

	gotM, err := f.LoadSplatWeights()
	if err != nil {
		t.Fatalf("LoadSplatWeights: %v", err)
	}
	if !slices.Equal(gotM.Values(), m.Values()) || gotM.Layers != 3 {
		t.Errorf("splat = %v, want %v", gotM.Values(), m.Values())
	}

	gotTrees, err := f.LoadInstances()
	if err != nil {
		t.Fatalf("LoadInstances: %v", err)
	}
	if !slices.Equal(gotTrees, trees) {
		t.Errorf("trees = %+v, want %+v", gotTrees, trees)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFilesReplaceInstances(t *testing.T) {
	f, err := NewFiles(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	first := vegetation.Instances(make([]vegetation.Candidate, 5))
	if err := f.ReplaceInstances(first); err != nil {
		t.Fatal(err)
	}
	if err := f.ReplaceInstances(nil); err != nil {
		t.Fatal(err)
	}
	got, err := f.LoadInstances()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d instances after replace with none", len(got))
	}
}

func TestFilesNotFound(t *testing.T) {
	f, err := NewFiles(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.LoadHeights(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadHeights = %v, want ErrNotFound", err)
	}
	if _, err := f.LoadSplatWeights(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSplatWeights = %v, want ErrNotFound", err)
	}
	if _, err := f.LoadMeta(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadMeta = %v, want ErrNotFound", err)
	}
}

func TestFilesAsPipelineSinks(t *testing.T) {
	f, err := NewFiles(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := pipeline.DefaultConfig()
	cfg.Width, cfg.Height = 24, 24
	cfg.Erosion.Iterations = 200
	cfg.TreeCount = 100

	o := pipeline.Orchestrator{Terrain: f, Vegetation: f}
	res, err := o.Run(context.Background(), cfg, rng.New(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := f.SaveMeta(MetaFromResult(cfg, res)); err != nil {
		t.Fatal(err)
	}

	meta, err := f.LoadMeta()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Offsets != res.Offsets || meta.Trees != len(res.Placements) || meta.Stats != res.Erosion {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Coverage) != 3 {
		t.Errorf("coverage = %v, want 3 layers", meta.Coverage)
	}
	trees, err := f.LoadInstances()
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != len(res.Placements) {
		t.Errorf("saved %d trees, want %d", len(trees), len(res.Placements))
	}
}

func TestSplatDataMismatch(t *testing.T) {
	d := SplatData{Width: 2, Height: 2, Layers: 2, Weights: []float64{1}}
	if _, err := d.Map(); err == nil {
		t.Fatal("expected size mismatch error")
	}
}
