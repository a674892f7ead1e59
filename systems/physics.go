package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/geom"
)

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float64
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p r2.Vec) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= b.Width && p.Y <= b.Height
}

// minHeadingSpeedSq is the squared speed below which heading is left unchanged.
const minHeadingSpeedSq = 0.01

// Integrator advances agents by their steering force.
type Integrator struct {
	Bounds      Bounds
	Restitution float64 // fraction of normal speed kept on wall contact
	Drag        float64 // per-second velocity decay, 0 disables
}

// Step applies force to one agent for dt seconds.
func (in *Integrator) Step(pos *components.Position, vel *components.Velocity, rot *components.Rotation,
	body *components.Body, caps *components.Capabilities, force r2.Vec, dt float64) {

	mass := caps.Mass
	if mass <= 0 {
		mass = 1
	}
	v := r2.Add(vel.Vec(), r2.Scale(dt/mass, force))
	if in.Drag > 0 {
		v = r2.Scale(math.Max(0, 1-in.Drag*dt), v)
	}
	v = geom.Truncate(v, caps.MaxSpeed)

	p := r2.Add(pos.Vec(), r2.Scale(dt, v))
	p, v = in.bounce(p, v, body.Radius)

	pos.X, pos.Y = p.X, p.Y
	vel.X, vel.Y = v.X, v.Y

	// Update heading (not while nearly still)
	if r2.Norm2(v) > minHeadingSpeedSq {
		rot.Heading = geom.Heading(v)
	}
}

// bounce keeps a circle of radius r inside the bounds, reflecting velocity off walls.
func (in *Integrator) bounce(p, v r2.Vec, r float64) (r2.Vec, r2.Vec) {
	if in.Bounds.Width <= 0 || in.Bounds.Height <= 0 {
		return p, v
	}
	if p.X < r {
		p.X = r
		v.X = math.Abs(v.X) * in.Restitution
	} else if p.X > in.Bounds.Width-r {
		p.X = in.Bounds.Width - r
		v.X = -math.Abs(v.X) * in.Restitution
	}
	if p.Y < r {
		p.Y = r
		v.Y = math.Abs(v.Y) * in.Restitution
	} else if p.Y > in.Bounds.Height-r {
		p.Y = in.Bounds.Height - r
		v.Y = -math.Abs(v.Y) * in.Restitution
	}
	return p, v
}

// Resolve pushes a moving circle out of a static one, removing the inward velocity.
// It reports whether the circles overlapped.
func Resolve(pos *components.Position, vel *components.Velocity, radius float64, obstacle r2.Vec, obstacleRadius float64) bool {
	delta := r2.Sub(pos.Vec(), obstacle)
	minDist := radius + obstacleRadius
	d := r2.Norm(delta)
	if d >= minDist {
		return false
	}
	n := geom.SafeUnit(delta)
	if n == (r2.Vec{}) {
		n = r2.Vec{X: 1}
	}
	p := r2.Add(obstacle, r2.Scale(minDist, n))
	pos.X, pos.Y = p.X, p.Y

	v := vel.Vec()
	if into := r2.Dot(v, n); into < 0 {
		v = r2.Sub(v, r2.Scale(into, n))
		vel.X, vel.Y = v.X, v.Y
	}
	return true
}
