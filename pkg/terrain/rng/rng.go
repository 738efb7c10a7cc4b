// Package rng defines the injectable random source used by the stochastic
// stages (offsets, erosion droplets, vegetation draws).
package rng

import (
	"math"
	"math/rand/v2"
)

// Source draws uniformly distributed floats.
type Source interface {
	// Uniform returns a value in [min, max).
	Uniform(min, max float64) float64
}

// PCG is a deterministic Source backed by math/rand/v2's PCG generator.
type PCG struct {
	r *rand.Rand
}

// New creates a PCG seeded with seed. Equal seeds produce equal streams.
func New(seed int64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))}
}

// Uniform returns a value in [min, max).
func (p *PCG) Uniform(min, max float64) float64 {
	v := min + p.r.Float64()*(max-min)
	if v >= max && max > min {
		// Rounding can land exactly on max for wide ranges.
		return math.Nextafter(max, min)
	}
	return v
}

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (p *PCG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return p.r.IntN(n)
}

// Int63 returns a non-negative 63-bit value, used to derive noise seeds.
func (p *PCG) Int63() int64 { return p.r.Int64() }
