package noise

import (
	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Perlin wraps classic gradient noise from go-perlin.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin creates a Perlin source with alpha 2, beta 2 and 3 iterations.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// Sample returns Perlin noise at (x, y) mapped into [0, 1].
func (p *Perlin) Sample(x, y float64) float64 {
	return unit(p.p.Noise2D(x, y))
}

// OpenSimplex wraps the normalized OpenSimplex field.
type OpenSimplex struct {
	n opensimplex.Noise
}

// NewOpenSimplex creates an OpenSimplex source from a seed.
func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{n: opensimplex.NewNormalized(seed)}
}

// Sample returns OpenSimplex noise at (x, y), already in [0, 1].
func (o *OpenSimplex) Sample(x, y float64) float64 {
	v := o.n.Eval2(x, y)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
