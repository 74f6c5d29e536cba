package placement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Obstacle is a fixed volume placed points must keep clear of.
type Obstacle interface {
	IntersectsSphere(center mgl64.Vec3, radius float64) bool
}

// Region is an axis-aligned box.
type Region struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Cube returns the region [-half, half]^3.
func Cube(half float64) Region {
	return Region{
		Min: mgl64.Vec3{-half, -half, -half},
		Max: mgl64.Vec3{half, half, half},
	}
}

func (r Region) valid() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(r.Min[i]) || math.IsInf(r.Min[i], 0) || math.IsNaN(r.Max[i]) || math.IsInf(r.Max[i], 0) {
			return false
		}
		if r.Min[i] > r.Max[i] {
			return false
		}
	}
	return true
}

// Box is an axis-aligned obstacle grown by Padding on every side.
type Box struct {
	Min     mgl64.Vec3
	Max     mgl64.Vec3
	Padding float64
}

// BoxAround returns a box obstacle centered on center.
func BoxAround(center, halfExtents mgl64.Vec3, padding float64) Box {
	return Box{
		Min:     center.Sub(halfExtents),
		Max:     center.Add(halfExtents),
		Padding: padding,
	}
}

func (b Box) IntersectsSphere(center mgl64.Vec3, radius float64) bool {
	var d2 float64
	for i := 0; i < 3; i++ {
		lo, hi := b.Min[i]-b.Padding, b.Max[i]+b.Padding
		c := center[i]
		switch {
		case c < lo:
			d2 += (lo - c) * (lo - c)
		case c > hi:
			d2 += (c - hi) * (c - hi)
		}
	}
	return d2 < radius*radius
}

// Sphere is a spherical obstacle.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (s Sphere) IntersectsSphere(center mgl64.Vec3, radius float64) bool {
	return center.Sub(s.Center).Len() < s.Radius+radius
}

// ConstraintSet is the obstacle plus the points accepted so far in one
// session.
type ConstraintSet struct {
	obstacle Obstacle
	points   []mgl64.Vec3
}

// NewConstraintSet returns an empty set. A nil obstacle constrains nothing.
func NewConstraintSet(obstacle Obstacle) *ConstraintSet {
	return &ConstraintSet{obstacle: obstacle}
}

// Reset drops every accepted point.
func (s *ConstraintSet) Reset() {
	s.points = s.points[:0]
}

// Points returns a copy of the accepted points in acceptance order.
func (s *ConstraintSet) Points() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(s.points))
	copy(out, s.points)
	return out
}

func (s *ConstraintSet) Len() int {
	return len(s.points)
}

func (s *ConstraintSet) clearOfObstacle(p mgl64.Vec3, radius float64) bool {
	return s.obstacle == nil || !s.obstacle.IntersectsSphere(p, radius)
}

func (s *ConstraintSet) clearOfPoints(p mgl64.Vec3, minDistance float64) bool {
	for _, q := range s.points {
		if p.Sub(q).Len() < minDistance {
			return false
		}
	}
	return true
}

func (s *ConstraintSet) accept(p mgl64.Vec3) {
	s.points = append(s.points, p)
}
