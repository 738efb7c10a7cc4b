package vegetation

// Color is a linear RGBA colour.
type Color struct {
	R, G, B, A float32
}

// White is the untinted colour.
var White = Color{1, 1, 1, 1}

// Instance is the record handed to the host instancing system.
type Instance struct {
	Position       [3]float64 `json:"position"` // normalized x, height, z
	Rotation       float64    `json:"rotation"`
	PrototypeIndex int        `json:"prototype_index"`
	WidthScale     float64    `json:"width_scale"`
	HeightScale    float64    `json:"height_scale"`
	Color          Color      `json:"color"`
	LightmapColor  Color      `json:"lightmap_color"`
}

// Instances converts candidates to host records with the fixed defaults:
// prototype 0, unit scale and white tint.
func Instances(cs []Candidate) []Instance {
	out := make([]Instance, len(cs))
	for i, c := range cs {
		out[i] = Instance{
			Position:       [3]float64{c.X, c.Height, c.Z},
			Rotation:       c.Rotation,
			PrototypeIndex: 0,
			WidthScale:     1,
			HeightScale:    1,
			Color:          White,
			LightmapColor:  White,
		}
	}
	return out
}
