package splat

// Map stores a weight vector of Layers floats for every cell of a W×H grid.
// Index of layer l at (x, y) = (y*W + x)*Layers + l.
type Map struct {
	W, H   int
	Layers int
	data   []float64
}

// NewMap allocates a zeroed map. Non-positive dimensions become 1; a negative
// layer count becomes 0.
func NewMap(w, h, layers int) *Map {
	w, h, layers = max(w, 1), max(h, 1), max(layers, 0)
	return &Map{W: w, H: h, Layers: layers, data: make([]float64, w*h*layers)}
}

// Cell returns the weight vector at (x, y). The slice aliases the map.
func (m *Map) Cell(x, y int) []float64 {
	i := (y*m.W + x) * m.Layers
	return m.data[i : i+m.Layers : i+m.Layers]
}

// Weight returns the weight of layer l at (x, y).
func (m *Map) Weight(x, y, l int) float64 {
	return m.data[(y*m.W+x)*m.Layers+l]
}

// Values exposes the backing slice.
func (m *Map) Values() []float64 { return m.data }

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Map{W: m.W, H: m.H, Layers: m.Layers, data: data}
}

// Coverage returns the summed weight of each layer divided by the cell count.
func (m *Map) Coverage() []float64 {
	out := make([]float64, m.Layers)
	if m.Layers == 0 {
		return out
	}
	for i, v := range m.data {
		out[i%m.Layers] += v
	}
	n := float64(m.W * m.H)
	for i := range out {
		out[i] /= n
	}
	return out
}
