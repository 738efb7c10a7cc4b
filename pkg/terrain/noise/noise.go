// Package noise provides the coherent 2D noise primitives consumed by the
// terrain generators. Every Source returns values in [0, 1].
package noise

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownKind is returned by New for an unregistered backend name.
var ErrUnknownKind = errors.New("unknown noise kind")

// Source samples a continuous 2D noise field. Sample must be deterministic for
// fixed inputs and return a value in [0, 1].
type Source interface {
	Sample(x, y float64) float64
}

// Func adapts a plain function to the Source interface.
type Func func(x, y float64) float64

// Sample calls f(x, y).
func (f Func) Sample(x, y float64) float64 { return f(x, y) }

// Constant is a Source that returns the same value everywhere.
type Constant float64

// Sample returns c regardless of the coordinates.
func (c Constant) Sample(_, _ float64) float64 { return float64(c) }

// Octaves configures a fractal sum. A sample point (x, y) is read at
// (x*Scale*f + OffsetX, y*Scale*f + OffsetY) for each octave frequency f.
type Octaves struct {
	Scale       float64
	Count       int
	Persistence float64
	OffsetX     float64
	OffsetY     float64
}

// Fractal sums octaves of raw [0,1] noise and divides by the accumulated
// amplitude, so the result stays in [0, 1]. Frequency doubles and amplitude is
// multiplied by Persistence at every octave. Count < 1 is treated as 1.
func Fractal(src Source, x, y float64, o Octaves) float64 {
	count := max(o.Count, 1)
	var total, maxVal float64
	amplitude := 1.0
	frequency := 1.0

	for range count {
		total += src.Sample(x*o.Scale*frequency+o.OffsetX, y*o.Scale*frequency+o.OffsetY) * amplitude
		maxVal += amplitude
		amplitude *= o.Persistence
		frequency *= 2.0
	}
	if maxVal == 0 {
		return 0
	}
	return total / maxVal
}

// Factory builds a Source from a seed.
type Factory func(seed int64) Source

var kinds = map[string]Factory{
	"simplex":     func(seed int64) Source { return NewSimplex(seed) },
	"perlin":      func(seed int64) Source { return NewPerlin(seed) },
	"opensimplex": func(seed int64) Source { return NewOpenSimplex(seed) },
	// flat yields a level terrain at half depth.
	"flat": func(int64) Source { return Constant(0.5) },
}

// Register adds a backend under name, replacing any previous registration.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	kinds[name] = f
}

// New returns the backend registered under kind.
func New(kind string, seed int64) (Source, error) {
	f, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f(seed), nil
}

// Kinds lists the registered backend names in sorted order.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unit maps a [-1,1] sample into [0,1] and clamps it.
func unit(v float64) float64 {
	v = (v + 1) * 0.5
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
