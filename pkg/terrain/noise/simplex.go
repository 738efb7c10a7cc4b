package noise

// Simplex noise after Ken Perlin's simplex algorithm, 2D only.

var grad2 = [12][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {1, 0}, {-1, 0},
	{0, 1}, {0, -1}, {0, 1}, {0, -1},
}

// Simplex is a seeded simplex noise field.
type Simplex struct {
	perm [512]int
}

// NewSimplex shuffles the permutation table with a seed-derived LCG so the
// same seed always yields the same field.
func NewSimplex(seed int64) *Simplex {
	s := &Simplex{}

	var p [256]int
	for i := range p {
		p[i] = i
	}

	state := seed
	for i := 255; i > 0; i-- {
		state = state*6364136223846793005 + 1442695040888963407
		j := int((state>>33)&0x7FFFFFFF) % (i + 1)
		p[i], p[j] = p[j], p[i]
	}

	for i := range s.perm {
		s.perm[i] = p[i&255]
	}
	return s
}

// Sample returns simplex noise at (x, y) mapped into [0, 1].
func (s *Simplex) Sample(x, y float64) float64 {
	return unit(s.Raw(x, y))
}

// Raw returns the signed simplex value at (x, y), in [-1, 1].
func (s *Simplex) Raw(x, y float64) float64 {
	const (
		f2 = 0.36602540378443864676 // (sqrt(3) - 1) / 2
		g2 = 0.21132486540518711775 // (3 - sqrt(3)) / 6
	)

	skew := (x + y) * f2
	i := fastFloor(x + skew)
	j := fastFloor(y + skew)

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1.0 + 2.0*g2
	y2 := y0 - 1.0 + 2.0*g2

	ii := i & 255
	jj := j & 255

	n := corner(s.perm[ii+s.perm[jj]]%12, x0, y0) +
		corner(s.perm[ii+i1+s.perm[jj+j1]]%12, x1, y1) +
		corner(s.perm[ii+1+s.perm[jj+1]]%12, x2, y2)

	return 70.0 * n
}

func corner(gi int, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	t *= t
	return t * t * (grad2[gi][0]*x + grad2[gi][1]*y)
}

func fastFloor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}
