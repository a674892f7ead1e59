// Package steering composes prioritized movement behaviors for autonomous agents.
//
// Each agent owns a State. Once per tick the game hands it a Tick describing the agent's
// own body and a SpatialIndex over a start-of-tick snapshot; State.Steering returns the
// smoothed steering force. Nothing in this package writes to bodies.
package steering

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
)

// ID identifies a body in the spatial index. Zero means no body.
type ID uint32

// NoID is the zero ID.
const NoID ID = 0

// Tag is a bitmask classifying bodies (boid, obstacle, hunter...).
type Tag uint32

// Matches reports whether t passes filter. A zero filter passes everything.
func (t Tag) Matches(filter Tag) bool {
	return filter == 0 || t&filter != 0
}

// Body is a read-only snapshot of a physics body.
type Body struct {
	ID       ID
	Position r2.Vec
	Velocity r2.Vec
	Forward  r2.Vec // unit heading
	Radius   float64
	Tag      Tag
}

// Speed returns |Velocity|.
func (b *Body) Speed() float64 {
	return r2.Norm(b.Velocity)
}

// Frame returns the body's local frame (forward = local +Y).
func (b *Body) Frame() geom.Frame {
	return geom.NewFrame(b.Position, b.Forward)
}

// WorldToLocal maps a world point into the body's frame.
func (b *Body) WorldToLocal(p r2.Vec) r2.Vec {
	return b.Frame().ToLocal(p)
}

// ToWorld maps a point in the body's frame to world space.
func (b *Body) ToWorld(p r2.Vec) r2.Vec {
	return b.Frame().ToWorld(p)
}

// ToWorldDirection rotates a direction in the body's frame to world space.
func (b *Body) ToWorldDirection(v r2.Vec) r2.Vec {
	return b.Frame().ToWorldDirection(v)
}

// Intersection is the result of a ray query.
type Intersection struct {
	Valid    bool
	ID       ID
	Position r2.Vec
	Normal   r2.Vec
	Depth    float64 // distance from the ray origin to Position
}

// SpatialIndex answers the broad-phase and ray queries steering needs.
// Implementations must reflect a single snapshot for the whole tick.
type SpatialIndex interface {
	// InRadius appends to dst every body whose circle overlaps the query circle.
	// The result may include the caller's own body.
	InRadius(dst []*Body, center r2.Vec, radius float64) []*Body

	// RayIntersect returns the nearest hit along a unit direction among bodies
	// whose tag matches filter. Rays starting inside a body do not hit it.
	RayIntersect(origin, direction r2.Vec, maxDistance float64, filter Tag) Intersection

	// Lookup resolves an ID, reporting false when the body no longer exists.
	Lookup(id ID) (*Body, bool)
}

// Tick is everything a State needs for one evaluation.
type Tick struct {
	Self    *Body
	Index   SpatialIndex
	Elapsed float64 // seconds since the previous tick
}
