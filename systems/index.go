package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/steering"
)

// RayCaster answers ray queries over the same snapshot as the broad phase.
type RayCaster interface {
	Sync(bodies []steering.Body)
	Cast(origin, dir r2.Vec, maxDist float64, filter steering.Tag) steering.Intersection
}

// Index is the per-tick spatial snapshot handed to steering.
// It is rebuilt once per tick and is then read-only, so concurrent queries are safe.
type Index struct {
	bodies []steering.Body
	byID   map[steering.ID]int
	broad  Broadphase
	caster RayCaster // nil uses the analytic caster over the broad phase
}

var _ steering.SpatialIndex = (*Index)(nil)

// NewIndex creates an index over the given broad phase. caster may be nil.
func NewIndex(broad Broadphase, caster RayCaster) *Index {
	return &Index{
		byID:   make(map[steering.ID]int),
		broad:  broad,
		caster: caster,
	}
}

// Rebuild replaces the snapshot.
func (ix *Index) Rebuild(bodies []steering.Body) {
	ix.bodies = append(ix.bodies[:0], bodies...)
	clear(ix.byID)
	for i := range ix.bodies {
		ix.byID[ix.bodies[i].ID] = i
	}
	ix.broad.Rebuild(ix.bodies)
	if ix.caster != nil {
		ix.caster.Sync(ix.bodies)
	}
}

// Len returns the number of bodies in the snapshot.
func (ix *Index) Len() int { return len(ix.bodies) }

// Bodies returns the snapshot. Callers must not modify it.
func (ix *Index) Bodies() []steering.Body { return ix.bodies }

// InRadius appends every body whose circle overlaps the query circle.
// Results are not capped.
func (ix *Index) InRadius(dst []*steering.Body, center r2.Vec, radius float64) []*steering.Body {
	ix.broad.Visit(center, radius, func(i int) bool {
		b := &ix.bodies[i]
		reach := radius + b.Radius
		if r2.Norm2(r2.Sub(b.Position, center)) <= reach*reach {
			dst = append(dst, b)
		}
		return true
	})
	return dst
}

// Lookup resolves an ID against the snapshot.
func (ix *Index) Lookup(id steering.ID) (*steering.Body, bool) {
	i, ok := ix.byID[id]
	if !ok || id == steering.NoID {
		return nil, false
	}
	return &ix.bodies[i], true
}

// RayIntersect returns the nearest body struck by the ray.
func (ix *Index) RayIntersect(origin, dir r2.Vec, maxDist float64, filter steering.Tag) steering.Intersection {
	dir = geom.SafeUnit(dir)
	if maxDist <= 0 || dir == (r2.Vec{}) {
		return steering.Intersection{}
	}
	if ix.caster != nil {
		return ix.caster.Cast(origin, dir, maxDist, filter)
	}
	return ix.castAnalytic(origin, dir, maxDist, filter)
}

// castAnalytic gathers candidates around the segment midpoint and tests each circle exactly.
func (ix *Index) castAnalytic(origin, dir r2.Vec, maxDist float64, filter steering.Tag) steering.Intersection {
	half := maxDist / 2
	mid := r2.Add(origin, r2.Scale(half, dir))

	best := steering.Intersection{Depth: math.MaxFloat64}
	ix.broad.Visit(mid, half, func(i int) bool {
		b := &ix.bodies[i]
		if !b.Tag.Matches(filter) {
			return true
		}
		hit, ok := geom.RayCircle(origin, dir, maxDist, b.Position, b.Radius)
		if ok && hit.Dist < best.Depth {
			best = steering.Intersection{
				Valid:    true,
				ID:       b.ID,
				Position: hit.Point,
				Normal:   hit.Normal,
				Depth:    hit.Dist,
			}
		}
		return true
	})
	if !best.Valid {
		return steering.Intersection{}
	}
	return best
}
