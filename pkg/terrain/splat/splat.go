// Package splat derives per-cell ground-texture blend weights (grass, rock and
// optional sand) from a terrain surface and a secondary rock-noise channel.
package splat

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/go-theft-craft/terraingen/pkg/terrain/noise"
)

// Layer indices in every weight vector.
const (
	LayerGrass = 0
	LayerRock  = 1
	LayerSand  = 2
)

// normalizeEpsilon is the total weight below which a cell is left all zero.
const normalizeEpsilon = 1e-4

// ErrTooFewLayers reports a layer count below 2. It is a warning: Compute
// still returns an all-zero map of the requested shape.
var ErrTooFewLayers = errors.New("splat: at least 2 layers (grass, rock) are required")

// Sampler exposes the host terrain surface the weights are derived from.
type Sampler interface {
	// InterpolatedHeight returns the world-space height at normalized (nx, nz).
	InterpolatedHeight(nx, nz float64) float64
	// VerticalExtent is the world height that corresponds to normalized 1.
	VerticalExtent() float64
}

// Params holds the height bands and the rock-noise settings.
type Params struct {
	SandMaxHeight float64 `json:"sand_max_height" yaml:"sand_max_height"`
	SandBlend     float64 `json:"sand_blend" yaml:"sand_blend"`
	RockMinHeight float64 `json:"rock_min_height" yaml:"rock_min_height"`
	RockMaxHeight float64 `json:"rock_max_height" yaml:"rock_max_height"`

	TextureScale float64 `json:"texture_scale" yaml:"texture_scale"`
	Octaves      int     `json:"texture_octaves" yaml:"texture_octaves"`
	Persistence  float64 `json:"texture_persistence" yaml:"texture_persistence"`
	RockDensity  float64 `json:"rock_density" yaml:"rock_density"`

	// RockOffset decorrelates the rock channel; drawn per run.
	RockOffset float64 `json:"-" yaml:"-"`
	// Workers bounds row parallelism; 0 uses GOMAXPROCS.
	Workers int `json:"-" yaml:"-"`
}

// DefaultParams returns the standard bands: sand below 0.2, rock from 0.4 to 0.7.
func DefaultParams() Params {
	return Params{
		SandMaxHeight: 0.2,
		SandBlend:     0.05,
		RockMinHeight: 0.4,
		RockMaxHeight: 0.7,
		TextureScale:  60,
		Octaves:       16,
		Persistence:   0.5,
		RockDensity:   1,
	}
}

// InverseLerp returns the fraction of x between a and b, clamped to [0, 1].
// a may be greater than b, which yields a descending ramp.
func InverseLerp(a, b, x float64) float64 {
	if a == b {
		return 0
	}
	return min(max((x-a)/(b-a), 0), 1)
}

// Compute builds a w×h map with the given layer count. Cell (x, y) samples
// the surface at (x/w, y/h). With fewer than 2 layers the returned map is all
// zero and the error wraps ErrTooFewLayers.
func Compute(ctx context.Context, s Sampler, w, h, layers int, rock noise.Source, p Params) (*Map, error) {
	m := NewMap(w, h, max(layers, 0))
	if layers < 2 {
		return m, ErrTooFewLayers
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	oct := noise.Octaves{
		Scale:       p.TextureScale,
		Count:       p.Octaves,
		Persistence: p.Persistence,
		OffsetX:     p.RockOffset,
		OffsetY:     p.RockOffset,
	}
	extent := s.VerticalExtent()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < m.H; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nz := float64(y) / float64(m.H)
			for x := 0; x < m.W; x++ {
				nx := float64(x) / float64(m.W)
				var height float64
				if extent > 0 {
					height = s.InterpolatedHeight(nx, nz) / extent
				}
				rockNoise := noise.Fractal(rock, nx, nz, oct)
				weigh(m.Cell(x, y), height, rockNoise, p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// weigh fills out (already zeroed, len >= 2) for one cell and normalizes it.
func weigh(out []float64, height, rockNoise float64, p Params) {
	rock := InverseLerp(p.RockMinHeight, p.RockMaxHeight, height) * rockNoise * p.RockDensity

	var grass, sand float64
	hasSand := len(out) > LayerSand
	if hasSand {
		sand = InverseLerp(p.SandMaxHeight+p.SandBlend, p.SandMaxHeight-p.SandBlend, height)
		toSand := InverseLerp(p.SandMaxHeight-p.SandBlend, p.SandMaxHeight+p.SandBlend, height)
		toRock := InverseLerp(p.RockMinHeight+0.1, p.RockMinHeight-0.1, height)
		grass = toSand * toRock
	} else {
		// Rock density above 1 can push rock past 1; grass never goes negative.
		grass = max(1-rock, 0)
	}

	out[LayerGrass] = grass
	out[LayerRock] = rock
	if hasSand {
		out[LayerSand] = sand
	}

	var total float64
	for _, v := range out {
		total += v
	}
	if total <= normalizeEpsilon {
		// Unclassified cell: every weight stays zero.
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i := range out {
		out[i] /= total
	}
}
