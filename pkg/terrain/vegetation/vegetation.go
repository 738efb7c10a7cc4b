// Package vegetation scatters tree placements over a terrain surface,
// accepting random candidates by noise density, slope and height.
package vegetation

import (
	"iter"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/noise"
	"github.com/go-theft-craft/terraingen/pkg/terrain/rng"
)

// Surface is the host terrain view the placer reads. Its answers are
// authoritative even when the host resamples the simulation grid.
type Surface interface {
	InterpolatedHeight(nx, nz float64) float64
	InterpolatedNormal(nx, nz float64) heightfield.Vec3
	VerticalExtent() float64
}

// Acceptance holds the placement criteria.
type Acceptance struct {
	Scale      float64 `json:"scale" yaml:"scale"`
	Threshold  float64 `json:"threshold" yaml:"threshold"`
	SlopeLimit float64 `json:"slope_limit" yaml:"slope_limit"` // degrees
	MinHeight  float64 `json:"min_height" yaml:"min_height"`   // normalized

	// Offset decorrelates the density noise; drawn per run.
	Offset float64 `json:"-" yaml:"-"`
}

// DefaultAcceptance returns the standard forest criteria.
func DefaultAcceptance() Acceptance {
	return Acceptance{
		Scale:      40,
		Threshold:  0.5,
		SlopeLimit: 30,
		MinHeight:  0.1,
	}
}

// Candidate is an accepted placement. X and Z are normalized terrain
// coordinates, Height is the normalized surface height, Rotation is degrees.
type Candidate struct {
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Place returns a lazy sequence over count random draws, yielding only the
// accepted ones in draw order. The sequence consumes rnd as it runs and can be
// iterated once; later iterations yield nothing.
func Place(s Surface, density noise.Source, a Acceptance, count int, rnd rng.Source) iter.Seq[Candidate] {
	remaining := max(count, 0)
	return func(yield func(Candidate) bool) {
		extent := s.VerticalExtent()
		for remaining > 0 {
			remaining--

			x := rnd.Uniform(0, 1)
			z := rnd.Uniform(0, 1)

			var height float64
			if extent > 0 {
				height = s.InterpolatedHeight(x, z) / extent
			}
			slope := heightfield.Up.Angle(s.InterpolatedNormal(x, z))
			n := density.Sample(x*a.Scale+a.Offset, z*a.Scale+a.Offset)

			if !(n > a.Threshold && slope < a.SlopeLimit && height > a.MinHeight) {
				continue
			}
			c := Candidate{X: x, Z: z, Height: height, Rotation: rnd.Uniform(0, 360)}
			if !yield(c) {
				return
			}
		}
	}
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[Candidate]) []Candidate {
	var out []Candidate
	for c := range seq {
		out = append(out, c)
	}
	return out
}
