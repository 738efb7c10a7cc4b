package erosion

import "math"

// Droplet is the transient state of one erosion particle.
type Droplet struct {
	X, Y       float64
	DirX, DirY float64
	Speed      float64
	Water      float64
	Sediment   float64
}

// traverse moves d for at most MaxLifetime steps, until it leaves the
// interior or its water evaporates.
func (s *simulator) traverse(d Droplet) Stats {
	st := Stats{Droplets: 1}
	hf := s.hf
	p := s.p

	for range p.MaxLifetime {
		st.Steps++
		oldHeight := hf.Sample(d.X, d.Y)
		gx, gy := hf.Gradient(d.X, d.Y)

		d.DirX = d.DirX*p.Inertia - gx*(1-p.Inertia)
		d.DirY = d.DirY*p.Inertia - gy*(1-p.Inertia)

		length := math.Hypot(d.DirX, d.DirY)
		if length < minDirection {
			st.Redirects++
			d.DirX, d.DirY, length = s.randomDirection()
		}
		d.DirX /= length
		d.DirY /= length

		d.X += d.DirX
		d.Y += d.DirY

		if !s.inside(d.X, d.Y) {
			st.BoundaryExits++
			break
		}

		heightDiff := oldHeight - hf.Sample(d.X, d.Y)
		capacity := math.Max(-heightDiff, p.MinSlope) * d.Speed * d.Water * p.SedimentCapacityFactor

		if d.Sediment > capacity || heightDiff > 0 {
			amount := (d.Sediment - capacity) * p.DepositionSpeed
			if heightDiff > 0 {
				amount = math.Min(d.Sediment, heightDiff)
			}
			amount = math.Max(amount, 0)
			d.Sediment -= amount
			st.Deposited += s.deposit(d.X, d.Y, amount)
		} else {
			amount := math.Min(capacity-d.Sediment, -heightDiff) * p.ErosionSpeed
			removed := s.erode(d.X, d.Y, amount)
			d.Sediment += removed
			st.Eroded += removed
		}

		radicand := d.Speed*d.Speed + heightDiff*p.Gravity
		if radicand < 0 {
			st.SpeedClamps++
			radicand = 0
		}
		d.Speed = math.Sqrt(radicand)

		d.Water *= 1 - p.EvaporationSpeed
		if d.Water < minWater {
			st.Evaporated++
			break
		}
	}
	return st
}

// randomDirection draws components in [-1,1) until the vector is long enough
// to normalize.
func (s *simulator) randomDirection() (dx, dy, length float64) {
	for {
		dx = s.rnd.Uniform(-1, 1)
		dy = s.rnd.Uniform(-1, 1)
		length = math.Hypot(dx, dy)
		if length >= minDirection {
			return dx, dy, length
		}
	}
}

// deposit spreads amount over the 2×2 neighbourhood of (x, y) using bilinear
// weights and returns the total added.
func (s *simulator) deposit(x, y, amount float64) float64 {
	if amount == 0 {
		return 0
	}
	cx, cy, fx, fy := s.hf.Cell(x, y)
	var added float64
	for _, n := range neighbours(cx, cy, fx, fy) {
		v := amount * n.w
		s.hf.Add(n.x, n.y, v)
		added += v
	}
	return added
}

// erode requests amount from the 2×2 neighbourhood of (x, y). Each node is
// clamped independently so no height drops below zero; the return value is
// what was actually removed.
func (s *simulator) erode(x, y, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	cx, cy, fx, fy := s.hf.Cell(x, y)
	var removed float64
	for _, n := range neighbours(cx, cy, fx, fy) {
		cur := s.hf.At(n.x, n.y)
		next := math.Max(0, cur-amount*n.w)
		s.hf.Set(n.x, n.y, next)
		removed += cur - next
	}
	return removed
}

type node struct {
	x, y int
	w    float64
}

func neighbours(x, y int, fx, fy float64) [4]node {
	return [4]node{
		{x, y, (1 - fx) * (1 - fy)},
		{x + 1, y, fx * (1 - fy)},
		{x, y + 1, (1 - fx) * fy},
		{x + 1, y + 1, fx * fy},
	}
}
