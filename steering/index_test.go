package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
)

// listIndex is a brute-force SpatialIndex over a fixed slice.
type listIndex struct {
	bodies []*Body
}

func newListIndex(bodies ...*Body) *listIndex {
	return &listIndex{bodies: bodies}
}

func (l *listIndex) InRadius(dst []*Body, center r2.Vec, radius float64) []*Body {
	for _, b := range l.bodies {
		if geom.Distance(b.Position, center) <= radius+b.Radius {
			dst = append(dst, b)
		}
	}
	return dst
}

func (l *listIndex) RayIntersect(origin, dir r2.Vec, maxDist float64, filter Tag) Intersection {
	best := Intersection{Depth: math.MaxFloat64}
	for _, b := range l.bodies {
		if !b.Tag.Matches(filter) {
			continue
		}
		hit, ok := geom.RayCircle(origin, dir, maxDist, b.Position, b.Radius)
		if ok && hit.Dist < best.Depth {
			best = Intersection{Valid: true, ID: b.ID, Position: hit.Point, Normal: hit.Normal, Depth: hit.Dist}
		}
	}
	if !best.Valid {
		return Intersection{}
	}
	return best
}

func (l *listIndex) Lookup(id ID) (*Body, bool) {
	for _, b := range l.bodies {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}
