package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// File names inside a terrain directory.
const (
	HeightsFile       = "heights.raw"
	HeightsHeaderFile = "heights.json"
	SplatFile         = "splat.json"
	TreesFile         = "trees.json"
	MetaFile          = "meta.json"
)

// ErrNotFound is returned by the Load methods when nothing was saved yet.
var ErrNotFound = errors.New("storage: not found")

// Files persists a generated terrain as plain files in one directory. It
// satisfies both pipeline sinks. Every file is replaced atomically.
type Files struct {
	dir string
	log *slog.Logger
}

// NewFiles creates a Files store rooted at dir, creating it as needed.
func NewFiles(dir string, log *slog.Logger) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Files{dir: dir, log: log}, nil
}

// Dir returns the root directory.
func (f *Files) Dir() string { return f.dir }

// SetHeights writes heights.raw and its header.
func (f *Files) SetHeights(hf *heightfield.Heightfield) error {
	if hf == nil {
		return errors.New("set heights: nil heightfield")
	}
	if err := atomicWrite(filepath.Join(f.dir, HeightsFile), EncodeHeights(hf)); err != nil {
		return fmt.Errorf("save heights: %w", err)
	}
	h := HeightsHeader{Width: hf.W, Height: hf.H, Format: HeightsFormat}
	if err := atomicWriteJSON(filepath.Join(f.dir, HeightsHeaderFile), &h); err != nil {
		return fmt.Errorf("save heights header: %w", err)
	}
	f.log.Info("saved heights", "width", hf.W, "height", hf.H)
	return nil
}

// SetSplatWeights writes splat.json.
func (f *Files) SetSplatWeights(m *splat.Map) error {
	if m == nil {
		return errors.New("set splat weights: nil map")
	}
	d := SplatDataFromMap(m)
	if err := atomicWriteJSON(filepath.Join(f.dir, SplatFile), &d); err != nil {
		return fmt.Errorf("save splat: %w", err)
	}
	f.log.Info("saved splat weights", "layers", m.Layers)
	return nil
}

// ReplaceInstances overwrites trees.json with in.
func (f *Files) ReplaceInstances(in []vegetation.Instance) error {
	d := TreeData{Instances: in}
	if d.Instances == nil {
		d.Instances = []vegetation.Instance{}
	}
	if err := atomicWriteJSON(filepath.Join(f.dir, TreesFile), &d); err != nil {
		return fmt.Errorf("save trees: %w", err)
	}
	f.log.Info("saved trees", "count", len(in))
	return nil
}

// SaveMeta writes meta.json.
func (f *Files) SaveMeta(m *Meta) error {
	if err := atomicWriteJSON(filepath.Join(f.dir, MetaFile), m); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// LoadHeights reads the RAW heights back.
func (f *Files) LoadHeights() (*heightfield.Heightfield, error) {
	var h HeightsHeader
	if err := readJSON(filepath.Join(f.dir, HeightsHeaderFile), &h); err != nil {
		return nil, fmt.Errorf("load heights header: %w", err)
	}
	data, err := readFile(filepath.Join(f.dir, HeightsFile))
	if err != nil {
		return nil, fmt.Errorf("load heights: %w", err)
	}
	return DecodeHeights(h, data)
}

// LoadSplatWeights reads splat.json back.
func (f *Files) LoadSplatWeights() (*splat.Map, error) {
	var d SplatData
	if err := readJSON(filepath.Join(f.dir, SplatFile), &d); err != nil {
		return nil, fmt.Errorf("load splat: %w", err)
	}
	return d.Map()
}

// LoadInstances reads trees.json back.
func (f *Files) LoadInstances() ([]vegetation.Instance, error) {
	var d TreeData
	if err := readJSON(filepath.Join(f.dir, TreesFile), &d); err != nil {
		return nil, fmt.Errorf("load trees: %w", err)
	}
	return d.Instances, nil
}

// LoadMeta reads meta.json back.
func (f *Files) LoadMeta() (*Meta, error) {
	var m Meta
	if err := readJSON(filepath.Join(f.dir, MetaFile), &m); err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	return &m, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func readJSON(path string, v any) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// atomicWriteJSON marshals v to JSON and writes it atomically.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// atomicWrite writes data using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
