// Package surface is a reference host terrain: it resamples a simulation
// heightfield to its own resolution and answers interpolated height and
// normal queries in world units. It also stores the splat weights and tree
// instances handed to it, so it can stand in for both host sinks.
package surface

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// ErrNilData is returned when a nil heightfield or splat map is handed in.
var ErrNilData = errors.New("surface: nil data")

// Size is the world extent of the terrain. Depth is the vertical scale: a
// normalized height of 1 is Depth world units tall.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Depth  float64 `json:"depth" yaml:"depth"`
	Length float64 `json:"length" yaml:"length"`
}

// Terrain is safe for concurrent use.
type Terrain struct {
	size       Size
	resolution int

	mu        sync.RWMutex
	heights   *heightfield.Heightfield
	weights   *splat.Map
	instances []vegetation.Instance
}

// New creates an empty terrain. A resolution below 2 defaults to
// Width+1 samples per side.
func New(size Size, resolution int) *Terrain {
	if resolution < 2 {
		resolution = max(int(size.Width)+1, 2)
	}
	return &Terrain{size: size, resolution: resolution}
}

// Size returns the world extent.
func (t *Terrain) Size() Size { return t.size }

// Resolution returns the number of height samples per side.
func (t *Terrain) Resolution() int { return t.resolution }

// VerticalExtent is the world height of a normalized height of 1.
func (t *Terrain) VerticalExtent() float64 { return t.size.Depth }

// SetHeights replaces the heightmap with hf resampled to the terrain resolution.
func (t *Terrain) SetHeights(hf *heightfield.Heightfield) error {
	if hf == nil {
		return fmt.Errorf("set heights: %w", ErrNilData)
	}
	r := hf.Resample(t.resolution, t.resolution)

	t.mu.Lock()
	t.heights = r
	t.mu.Unlock()
	return nil
}

// Heights returns a copy of the resampled heightmap, or nil before SetHeights.
func (t *Terrain) Heights() *heightfield.Heightfield {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.heights == nil {
		return nil
	}
	return t.heights.Clone()
}

// InterpolatedHeight returns the world height at normalized (nx, nz).
// Coordinates outside [0,1] are clamped to the border.
func (t *Terrain) InterpolatedHeight(nx, nz float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height(nx, nz)
}

func (t *Terrain) height(nx, nz float64) float64 {
	if t.heights == nil {
		return 0
	}
	span := float64(t.resolution - 1)
	return t.heights.Sample(clamp01(nx)*span, clamp01(nz)*span) * t.size.Depth
}

// InterpolatedNormal returns the unit surface normal at normalized (nx, nz),
// from central differences one sample apart in world units. An empty terrain
// reports straight up.
func (t *Terrain) InterpolatedNormal(nx, nz float64) heightfield.Vec3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.heights == nil {
		return heightfield.Up
	}

	e := 1 / float64(t.resolution-1)
	xl, xr := clamp01(nx-e), clamp01(nx+e)
	zl, zr := clamp01(nz-e), clamp01(nz+e)

	var dhdx, dhdz float64
	if dx := (xr - xl) * t.size.Width; dx > 0 {
		dhdx = (t.height(xr, nz) - t.height(xl, nz)) / dx
	}
	if dz := (zr - zl) * t.size.Length; dz > 0 {
		dhdz = (t.height(nx, zr) - t.height(nx, zl)) / dz
	}
	return heightfield.Vec3{X: -dhdx, Y: 1, Z: -dhdz}.Normalize()
}

// SetSplatWeights stores a copy of m.
func (t *Terrain) SetSplatWeights(m *splat.Map) error {
	if m == nil {
		return fmt.Errorf("set splat weights: %w", ErrNilData)
	}
	c := m.Clone()

	t.mu.Lock()
	t.weights = c
	t.mu.Unlock()
	return nil
}

// SplatWeights returns a copy of the stored weights, or nil.
func (t *Terrain) SplatWeights() *splat.Map {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.weights == nil {
		return nil
	}
	return t.weights.Clone()
}

// ReplaceInstances drops every stored instance and stores a copy of in.
func (t *Terrain) ReplaceInstances(in []vegetation.Instance) error {
	c := make([]vegetation.Instance, len(in))
	copy(c, in)

	t.mu.Lock()
	t.instances = c
	t.mu.Unlock()
	return nil
}

// Instances returns a copy of the stored instances.
func (t *Terrain) Instances() []vegetation.Instance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]vegetation.Instance, len(t.instances))
	copy(out, t.instances)
	return out
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
