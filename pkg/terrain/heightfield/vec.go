package heightfield

import "math"

// Vec3 is a world-space vector with Y pointing up.
type Vec3 struct {
	X, Y, Z float64
}

// Up is the vertical axis.
var Up = Vec3{0, 1, 0}

// Len returns the Euclidean length.
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Normalize returns v scaled to unit length, or Up for a zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Up
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Angle returns the angle between v and o in degrees, in [0, 180].
func (v Vec3) Angle(o Vec3) float64 {
	d := v.Len() * o.Len()
	if d == 0 {
		return 0
	}
	c := min(max(v.Dot(o)/d, -1), 1)
	return math.Acos(c) * 180 / math.Pi
}
