package heightfield

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/go-theft-craft/terraingen/pkg/terrain/noise"
)

// NoiseParams configures the octave summation. Offsets are chosen once per
// generation run to decorrelate successive terrains.
type NoiseParams struct {
	Scale       float64 `json:"scale" yaml:"scale"`
	Octaves     int     `json:"octaves" yaml:"octaves"`
	Persistence float64 `json:"persistence" yaml:"persistence"`
	OffsetX     float64 `json:"offset_x" yaml:"offset_x"`
	OffsetY     float64 `json:"offset_y" yaml:"offset_y"`
}

// Generate fills a w×h heightfield with multi-octave noise remapped into
// [0, 1]. The result depends only on the parameters and src.
func Generate(w, h int, p NoiseParams, src noise.Source) *Heightfield {
	hf := New(w, h)
	for y := 0; y < hf.H; y++ {
		fillRow(hf, y, p, src)
	}
	return hf
}

// GenerateParallel computes the same grid as Generate, partitioned by row
// across workers goroutines. Each cell is independent, so the output is
// bit-identical to the sequential path. workers <= 0 uses GOMAXPROCS.
func GenerateParallel(ctx context.Context, w, h int, p NoiseParams, src noise.Source, workers int) (*Heightfield, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	hf := New(w, h)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < hf.H; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fillRow(hf, y, p, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hf, nil
}

func fillRow(hf *Heightfield, y int, p NoiseParams, src noise.Source) {
	octaves := max(p.Octaves, 1)
	for x := 0; x < hf.W; x++ {
		hf.Set(x, y, octaveHeight(x, y, hf.W, hf.H, octaves, p, src))
	}
}

// octaveHeight sums signed octaves and remaps the theoretical range
// [-maxValue, maxValue] back onto [0, 1].
func octaveHeight(x, y, w, h, octaves int, p NoiseParams, src noise.Source) float64 {
	var total, maxValue float64
	amplitude := 1.0
	frequency := 1.0

	for range octaves {
		xc := float64(x)/float64(w)*p.Scale*frequency + p.OffsetX
		yc := float64(y)/float64(h)*p.Scale*frequency + p.OffsetY

		total += (src.Sample(xc, yc)*2 - 1) * amplitude

		maxValue += amplitude
		amplitude *= p.Persistence
		frequency *= 2
	}

	if maxValue == 0 {
		return 0.5
	}
	// Clamp absorbs summation rounding at the extremes.
	return min(max((total+maxValue)/(maxValue*2), 0), 1)
}
