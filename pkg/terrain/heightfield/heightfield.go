// Package heightfield holds the dense elevation grid shared by every stage of
// terrain generation, along with its bilinear sampling helpers and the
// multi-octave noise generator that fills it.
package heightfield

// Heightfield is a W×H grid of normalized elevations stored in row-major
// order. Index = y*W + x.
type Heightfield struct {
	W, H int
	data []float64
}

// New allocates a zeroed heightfield. Non-positive dimensions become 1.
func New(w, h int) *Heightfield {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Heightfield{W: w, H: h, data: make([]float64, w*h)}
}

// FromSlice wraps data as a w×h heightfield. It panics if len(data) != w*h.
func FromSlice(w, h int, data []float64) *Heightfield {
	if w <= 0 || h <= 0 || len(data) != w*h {
		panic("heightfield: data length does not match dimensions")
	}
	return &Heightfield{W: w, H: h, data: data}
}

// At returns the height at grid node (x, y).
func (hf *Heightfield) At(x, y int) float64 { return hf.data[y*hf.W+x] }

// Set stores v at grid node (x, y).
func (hf *Heightfield) Set(x, y int, v float64) { hf.data[y*hf.W+x] = v }

// Add adds v to grid node (x, y).
func (hf *Heightfield) Add(x, y int, v float64) { hf.data[y*hf.W+x] += v }

// Values exposes the backing slice.
func (hf *Heightfield) Values() []float64 { return hf.data }

// Clone returns a deep copy.
func (hf *Heightfield) Clone() *Heightfield {
	data := make([]float64, len(hf.data))
	copy(data, hf.data)
	return &Heightfield{W: hf.W, H: hf.H, data: data}
}

// Sum returns the total of all cell heights.
func (hf *Heightfield) Sum() float64 {
	var s float64
	for _, v := range hf.data {
		s += v
	}
	return s
}

// Bounds returns the minimum and maximum cell heights.
func (hf *Heightfield) Bounds() (lo, hi float64) {
	lo, hi = hf.data[0], hf.data[0]
	for _, v := range hf.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Cell returns the top-left node of the 2×2 neighbourhood containing the
// continuous position (px, py) and the fractional offsets inside it.
// Positions outside the grid are clamped to the border cell.
func (hf *Heightfield) Cell(px, py float64) (x, y int, fx, fy float64) {
	x, fx = split(px, hf.W)
	y, fy = split(py, hf.H)
	return x, y, fx, fy
}

func split(p float64, n int) (int, float64) {
	if n < 2 {
		return 0, 0
	}
	if p <= 0 {
		return 0, 0
	}
	i := int(p)
	if i >= n-1 {
		return n - 2, 1
	}
	return i, p - float64(i)
}

// Sample bilinearly interpolates the height at (px, py).
func (hf *Heightfield) Sample(px, py float64) float64 {
	x, y, fx, fy := hf.Cell(px, py)
	if hf.W < 2 || hf.H < 2 {
		return hf.sampleDegenerate(x, y, fx, fy)
	}

	tl := hf.At(x, y)
	tr := hf.At(x+1, y)
	bl := hf.At(x, y+1)
	br := hf.At(x+1, y+1)

	top := tl + (tr-tl)*fx
	bottom := bl + (br-bl)*fx
	return top + (bottom-top)*fy
}

// Gradient returns the bilinear-weighted finite-difference slope at (px, py).
func (hf *Heightfield) Gradient(px, py float64) (gx, gy float64) {
	if hf.W < 2 || hf.H < 2 {
		return 0, 0
	}
	x, y, fx, fy := hf.Cell(px, py)

	tl := hf.At(x, y)
	tr := hf.At(x+1, y)
	bl := hf.At(x, y+1)
	br := hf.At(x+1, y+1)

	gx = (tr-tl)*(1-fy) + (br-bl)*fy
	gy = (bl-tl)*(1-fx) + (br-tr)*fx
	return gx, gy
}

// sampleDegenerate handles 1-wide grids by interpolating along the one axis
// that has two nodes, if any.
func (hf *Heightfield) sampleDegenerate(x, y int, fx, fy float64) float64 {
	switch {
	case hf.W >= 2:
		a, b := hf.At(x, 0), hf.At(x+1, 0)
		return a + (b-a)*fx
	case hf.H >= 2:
		a, b := hf.At(0, y), hf.At(0, y+1)
		return a + (b-a)*fy
	default:
		return hf.data[0]
	}
}

// Resample bilinearly reinterpolates hf onto a w×h grid covering the same
// extent, so node (0,0) and node (w-1,h-1) map onto the source corners.
func (hf *Heightfield) Resample(w, h int) *Heightfield {
	out := New(w, h)
	if out.W == hf.W && out.H == hf.H {
		copy(out.data, hf.data)
		return out
	}
	sx := scaleFactor(hf.W, out.W)
	sy := scaleFactor(hf.H, out.H)
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			out.Set(x, y, hf.Sample(float64(x)*sx, float64(y)*sy))
		}
	}
	return out
}

func scaleFactor(src, dst int) float64 {
	if dst < 2 {
		return 0
	}
	return float64(src-1) / float64(dst-1)
}
