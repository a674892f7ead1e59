package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// AxisCircleEntry intersects the local +Y axis with a circle centred at c.
// It returns the distance along the axis at which the axis enters the circle,
// or the exit distance when the entry lies at or behind the origin.
// ok is false when the axis misses the circle.
func AxisCircleEntry(c r2.Vec, radius float64) (dist float64, ok bool) {
	if math.Abs(c.X) >= radius {
		return 0, false
	}
	sq := math.Sqrt(radius*radius - c.X*c.X)
	dist = c.Y - sq
	if dist <= 0 {
		dist = c.Y + sq
	}
	return dist, true
}

// RayHit describes where a ray struck a circle.
type RayHit struct {
	Point  r2.Vec
	Normal r2.Vec
	Dist   float64
}

// RayCircle casts a ray from origin along the unit direction dir for at most maxDist.
// Rays that start inside the circle report no hit.
func RayCircle(origin, dir r2.Vec, maxDist float64, center r2.Vec, radius float64) (RayHit, bool) {
	oc := r2.Sub(origin, center)
	c := r2.Dot(oc, oc) - radius*radius
	if c <= 0 {
		return RayHit{}, false
	}
	b := r2.Dot(oc, dir)
	if b > 0 {
		// pointing away
		return RayHit{}, false
	}
	disc := b*b - c
	if disc < 0 {
		return RayHit{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > maxDist {
		return RayHit{}, false
	}
	p := r2.Add(origin, r2.Scale(t, dir))
	return RayHit{
		Point:  p,
		Normal: SafeUnit(r2.Sub(p, center)),
		Dist:   t,
	}, true
}

// SegmentAABB returns the bounding box of the segment a-b grown by pad.
func SegmentAABB(a, b r2.Vec, pad float64) (min, max r2.Vec) {
	min = r2.Vec{X: math.Min(a.X, b.X) - pad, Y: math.Min(a.Y, b.Y) - pad}
	max = r2.Vec{X: math.Max(a.X, b.X) + pad, Y: math.Max(a.Y, b.Y) + pad}
	return min, max
}
