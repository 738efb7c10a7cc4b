package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/go-theft-craft/terraingen/pkg/terrain/erosion"
	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/pipeline"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// HeightsFormat names the RAW encoding: row-major little-endian uint16,
// 0 for normalized height 0 and 65535 for 1.
const HeightsFormat = "r16le"

// HeightsHeader describes a RAW heights blob.
type HeightsHeader struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// SplatData is the serializable representation of a splat map.
type SplatData struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Layers  int       `json:"layers"`
	Weights []float64 `json:"weights"`
}

// TreeData holds the tree instances of a terrain.
type TreeData struct {
	Instances []vegetation.Instance `json:"instances"`
}

// Meta records how a terrain was generated.
type Meta struct {
	Seed        int64            `json:"seed"`
	Noise       string           `json:"noise"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Depth       float64          `json:"depth"`
	Erosion     bool             `json:"erosion"`
	Offsets     pipeline.Offsets `json:"offsets"`
	Stats       erosion.Stats    `json:"stats"`
	Trees       int              `json:"trees"`
	Coverage    []float64        `json:"coverage,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	Elapsed     string           `json:"elapsed"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// MetaFromResult summarizes a finished pass.
func MetaFromResult(cfg pipeline.Config, res *pipeline.Result) *Meta {
	m := &Meta{
		Seed:        cfg.Seed,
		Noise:       cfg.NoiseKind,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Depth:       cfg.Depth,
		Erosion:     cfg.EnableErosion,
		Offsets:     res.Offsets,
		Stats:       res.Erosion,
		Trees:       len(res.Placements),
		Elapsed:     res.Elapsed.String(),
		GeneratedAt: time.Now().UTC(),
	}
	if res.Splat != nil {
		m.Coverage = res.Splat.Coverage()
	}
	for _, w := range res.Warnings {
		m.Warnings = append(m.Warnings, w.Error())
	}
	return m
}

// EncodeHeights quantizes hf to the RAW format. Values are clamped to [0,1].
func EncodeHeights(hf *heightfield.Heightfield) []byte {
	vals := hf.Values()
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		q := uint16(math.Round(min(max(v, 0), 1) * math.MaxUint16))
		binary.LittleEndian.PutUint16(out[2*i:], q)
	}
	return out
}

// DecodeHeights rebuilds a heightfield from a RAW blob.
func DecodeHeights(h HeightsHeader, data []byte) (*heightfield.Heightfield, error) {
	if h.Format != HeightsFormat {
		return nil, fmt.Errorf("heights format %q not supported", h.Format)
	}
	if h.Width < 1 || h.Height < 1 || len(data) != 2*h.Width*h.Height {
		return nil, fmt.Errorf("heights blob is %d bytes, want %dx%d uint16", len(data), h.Width, h.Height)
	}
	vals := make([]float64, h.Width*h.Height)
	for i := range vals {
		vals[i] = float64(binary.LittleEndian.Uint16(data[2*i:])) / math.MaxUint16
	}
	return heightfield.FromSlice(h.Width, h.Height, vals), nil
}

// SplatDataFromMap copies m into its serializable form.
func SplatDataFromMap(m *splat.Map) SplatData {
	w := make([]float64, len(m.Values()))
	copy(w, m.Values())
	return SplatData{Width: m.W, Height: m.H, Layers: m.Layers, Weights: w}
}

// Map rebuilds the splat map.
func (d SplatData) Map() (*splat.Map, error) {
	m := splat.NewMap(d.Width, d.Height, d.Layers)
	if m.W != d.Width || m.H != d.Height || len(d.Weights) != len(m.Values()) {
		return nil, fmt.Errorf("splat data has %d weights, want %dx%dx%d", len(d.Weights), d.Width, d.Height, d.Layers)
	}
	copy(m.Values(), d.Weights)
	return m, nil
}
