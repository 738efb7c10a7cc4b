// Package erosion simulates particle-based hydraulic erosion: water droplets
// roll downhill over a heightfield, eroding where they can carry more sediment
// and depositing where they slow down or climb.
//
// The simulation is sequential. For a fixed random stream it is fully
// reproducible; concurrent droplets would change floating-point rounding at
// shared cells and are not supported.
package erosion

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/rng"
)

const (
	// minDirection is the direction length below which a droplet is given
	// a random heading instead of stalling on flat ground.
	minDirection = 0.0001
	// minWater ends a traversal once evaporation has drained the droplet.
	minWater = 0.01
	// cancelCheckEvery is how many droplets run between context checks.
	cancelCheckEvery = 1024
)

// ErrGridTooSmall is returned when the grid has no interior to spawn droplets
// in: both dimensions must exceed 2 to keep the 1-cell sampling border.
var ErrGridTooSmall = errors.New("erosion: grid must be larger than 2x2")

// Params holds the droplet tuning constants.
type Params struct {
	Iterations             int     `json:"iterations" yaml:"iterations"`
	MaxLifetime            int     `json:"max_lifetime" yaml:"max_lifetime"`
	Inertia                float64 `json:"inertia" yaml:"inertia"`
	SedimentCapacityFactor float64 `json:"sediment_capacity_factor" yaml:"sediment_capacity_factor"`
	MinSlope               float64 `json:"min_slope" yaml:"min_slope"`
	ErosionSpeed           float64 `json:"erosion_speed" yaml:"erosion_speed"`
	DepositionSpeed        float64 `json:"deposition_speed" yaml:"deposition_speed"`
	EvaporationSpeed       float64 `json:"evaporation_speed" yaml:"evaporation_speed"`
	Gravity                float64 `json:"gravity" yaml:"gravity"`
}

// DefaultParams returns the tuning used for 256×256 terrains.
func DefaultParams() Params {
	return Params{
		Iterations:             50000,
		MaxLifetime:            30,
		Inertia:                0.1,
		SedimentCapacityFactor: 4,
		MinSlope:               0.01,
		ErosionSpeed:           0.3,
		DepositionSpeed:        0.3,
		EvaporationSpeed:       0.01,
		Gravity:                4,
	}
}

// Validate checks that counts and speeds are non-negative and inertia is in [0,1].
func (p Params) Validate() error {
	switch {
	case p.Iterations < 0:
		return fmt.Errorf("erosion: iterations must be >= 0, got %d", p.Iterations)
	case p.MaxLifetime < 0:
		return fmt.Errorf("erosion: max lifetime must be >= 0, got %d", p.MaxLifetime)
	case p.Inertia < 0 || p.Inertia > 1 || math.IsNaN(p.Inertia):
		return fmt.Errorf("erosion: inertia must be in [0,1], got %v", p.Inertia)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"sediment capacity factor", p.SedimentCapacityFactor},
		{"min slope", p.MinSlope},
		{"erosion speed", p.ErosionSpeed},
		{"deposition speed", p.DepositionSpeed},
		{"evaporation speed", p.EvaporationSpeed},
		{"gravity", p.Gravity},
	} {
		if f.v < 0 || math.IsNaN(f.v) {
			return fmt.Errorf("erosion: %s must be >= 0, got %v", f.name, f.v)
		}
	}
	return nil
}

// Stats summarizes a run. Deposited and Eroded are the amounts actually
// applied to the grid, so Sum(after)-Sum(before) == Deposited-Eroded up to
// rounding.
type Stats struct {
	Droplets      int
	Steps         int
	BoundaryExits int
	Evaporated    int
	Redirects     int
	SpeedClamps   int
	Deposited     float64
	Eroded        float64
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Droplets += o.Droplets
	s.Steps += o.Steps
	s.BoundaryExits += o.BoundaryExits
	s.Evaporated += o.Evaporated
	s.Redirects += o.Redirects
	s.SpeedClamps += o.SpeedClamps
	s.Deposited += o.Deposited
	s.Eroded += o.Eroded
}

// Erode runs p.Iterations droplet traversals over hf, mutating it in place.
// If ctx is cancelled the run stops between droplets and returns the context
// error along with the stats so far; hf is then partially eroded.
func Erode(ctx context.Context, hf *heightfield.Heightfield, p Params, rnd rng.Source) (Stats, error) {
	var stats Stats
	if err := p.Validate(); err != nil {
		return stats, err
	}
	if p.Iterations == 0 {
		return stats, nil
	}
	if hf.W <= 2 || hf.H <= 2 {
		return stats, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, hf.W, hf.H)
	}

	sim := simulator{hf: hf, p: p, rnd: rnd}
	for i := range p.Iterations {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
		stats.Add(sim.traverse(sim.spawn()))
	}
	return stats, nil
}

type simulator struct {
	hf  *heightfield.Heightfield
	p   Params
	rnd rng.Source
}

// spawn places a fresh droplet strictly inside the 1-cell border.
func (s *simulator) spawn() Droplet {
	return Droplet{
		X:     s.rnd.Uniform(1, float64(s.hf.W)-2),
		Y:     s.rnd.Uniform(1, float64(s.hf.H)-2),
		Speed: 1,
		Water: 1,
	}
}

// inside reports whether (x, y) keeps the 2×2 sampling neighbourhood and the
// 1-cell border within the grid.
func (s *simulator) inside(x, y float64) bool {
	return x >= 1 && x < float64(s.hf.W)-2 && y >= 1 && y < float64(s.hf.H)-2
}
