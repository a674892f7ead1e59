package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
)

const (
	arriveTweaker     = 0.3
	lookAheadScale    = 0.1
	minBoxFraction    = 0.25
	brakingWeight     = 0.2
	separationMinDist = 0.01
	stillSpeedSq      = 0.001
)

// SeekForce steers at full acceleration toward target.
func SeekForce(self *Body, p *Params, target r2.Vec) r2.Vec {
	return r2.Scale(p.MaxAcceleration, geom.SafeUnit(r2.Sub(target, self.Position)))
}

// FleeForce steers at full acceleration directly away from target.
func FleeForce(self *Body, p *Params, target r2.Vec) r2.Vec {
	return r2.Scale(p.MaxAcceleration, geom.SafeUnit(r2.Sub(self.Position, target)))
}

// ArriveForce steers toward target, slowing down as it gets close.
// deceleration controls how early braking begins.
func ArriveForce(self *Body, p *Params, target r2.Vec, deceleration float64) r2.Vec {
	toTarget := r2.Sub(target, self.Position)
	dist := r2.Norm(toTarget)
	if dist <= geom.Epsilon {
		return r2.Vec{}
	}
	speed := p.MaxSpeed
	if deceleration > 0 {
		speed = math.Min(dist/(deceleration*arriveTweaker), p.MaxSpeed)
	}
	desired := r2.Scale(speed/dist, toTarget)
	return r2.Sub(desired, self.Velocity)
}

func lookAhead(dist, maxSpeed, otherSpeed float64) float64 {
	denom := maxSpeed + otherSpeed
	if denom <= 0 {
		return 0
	}
	return dist / denom * lookAheadScale
}

// EvadeForce flees the predicted position of pursuer when it is within EvadeDistance.
func EvadeForce(self *Body, p *Params, pursuer *Body) r2.Vec {
	toPursuer := r2.Sub(pursuer.Position, self.Position)
	if r2.Norm2(toPursuer) > p.EvadeDistance*p.EvadeDistance {
		return r2.Vec{}
	}
	t := lookAhead(r2.Norm(toPursuer), p.MaxSpeed, pursuer.Speed())
	return FleeForce(self, p, r2.Add(pursuer.Position, r2.Scale(t, pursuer.Velocity)))
}

// OffsetPursuitForce seeks the predicted position of a point fixed in leader's frame.
func OffsetPursuitForce(self *Body, p *Params, leader *Body, offset r2.Vec) r2.Vec {
	target := leader.ToWorld(offset)
	t := lookAhead(geom.Distance(target, self.Position), p.MaxSpeed, leader.Speed())
	return SeekForce(self, p, r2.Add(target, r2.Scale(t, leader.Velocity)))
}

// Neighbors in the functions below may contain self and the agent being
// pursued or evaded; both are skipped.

// CohesionForce seeks the centroid of the neighbors, normalized.
func CohesionForce(self *Body, p *Params, neighbors []*Body, skip ID) r2.Vec {
	var center r2.Vec
	n := 0
	for _, b := range neighbors {
		if b.ID == self.ID || (skip != NoID && b.ID == skip) {
			continue
		}
		center = r2.Add(center, b.Position)
		n++
	}
	if n == 0 {
		return r2.Vec{}
	}
	center = r2.Scale(1/float64(n), center)
	return geom.SafeUnit(SeekForce(self, p, center))
}

// SeparationForce pushes away from each neighbor, inversely to its distance.
func SeparationForce(self *Body, neighbors []*Body, skip ID) r2.Vec {
	var force r2.Vec
	for _, b := range neighbors {
		if b.ID == self.ID || (skip != NoID && b.ID == skip) {
			continue
		}
		away := r2.Sub(self.Position, b.Position)
		d := r2.Norm(away)
		if d > separationMinDist {
			force = r2.Add(force, r2.Scale(1/(d*d), away))
		}
	}
	return force
}

// AlignmentForce steers toward the neighbors' mean heading.
func AlignmentForce(self *Body, neighbors []*Body, skip ID) r2.Vec {
	var heading r2.Vec
	n := 0
	for _, b := range neighbors {
		if b.ID == self.ID || (skip != NoID && b.ID == skip) {
			continue
		}
		heading = r2.Add(heading, geom.SafeUnit(b.Forward))
		n++
	}
	if n == 0 {
		return r2.Vec{}
	}
	heading = r2.Scale(1/float64(n), heading)
	return r2.Sub(heading, geom.SafeUnit(self.Forward))
}

// avoidGeometric projects candidate obstacles into a detection box that grows with speed
// and steers away from the closest one the box would clip.
func avoidGeometric(t Tick, p *Params, scratch []*Body) (r2.Vec, []*Body) {
	self := t.Self
	boxLength := DetectionBoxLength(self, p)
	if boxLength <= 0 {
		return r2.Vec{}, scratch
	}

	scratch = t.Index.InRadius(scratch[:0], self.Position, boxLength)

	frame := self.Frame()
	var closest *Body
	var closestLocal r2.Vec
	closestDist := math.MaxFloat64
	for _, ob := range scratch {
		if ob.ID == self.ID || !ob.Tag.Matches(p.ObstacleTag) {
			continue
		}
		local := frame.ToLocal(ob.Position)
		if local.Y < 0 {
			continue
		}
		ip, ok := geom.AxisCircleEntry(local, ob.Radius+self.Radius)
		if !ok || ip >= closestDist {
			continue
		}
		closest, closestLocal, closestDist = ob, local, ip
	}
	if closest == nil {
		return r2.Vec{}, scratch
	}

	multiplier := 1 + (boxLength-closestLocal.Y)/boxLength
	force := r2.Vec{
		X: (closest.Radius - closestLocal.X) * multiplier,
		Y: (closest.Radius - closestLocal.Y) * brakingWeight,
	}
	return frame.ToWorldDirection(force), scratch
}

// DetectionBoxLength is how far ahead geometric avoidance looks. It grows from a
// quarter of ObstacleAvoidanceRadius at rest to half of it at MaxSpeed.
func DetectionBoxLength(self *Body, p *Params) float64 {
	minLength := p.ObstacleAvoidanceRadius * minBoxFraction
	ratio := 0.0
	if p.MaxSpeed > 0 {
		ratio = self.Speed() / p.MaxSpeed
	}
	return minLength + ratio*minLength
}

// Feeler is one avoidance probe in world space.
type Feeler struct {
	Dir    r2.Vec // unit
	Length float64
}

// Feelers returns the front feeler and the two side feelers, which sit
// ObstacleSideFeelerSpread degrees off the heading.
func Feelers(self *Body, p *Params) [3]Feeler {
	heading := geom.SafeUnit(self.Velocity)
	if heading == (r2.Vec{}) {
		heading = self.Forward
	}
	frame := geom.NewFrame(self.Position, heading)

	spread := (p.ObstacleSideFeelerSpread + 90) * math.Pi / 180
	c, s := math.Cos(spread), math.Sin(spread)
	return [3]Feeler{
		{frame.ToWorldDirection(r2.Vec{Y: 1}), p.ObstacleFrontFeelerLength},
		{frame.ToWorldDirection(r2.Vec{X: c, Y: s}), p.ObstacleSideFeelerLength},
		{frame.ToWorldDirection(r2.Vec{X: -c, Y: s}), p.ObstacleSideFeelerLength},
	}
}

// avoidFeelers casts the feelers and pushes out along the normal of the
// shallowest hit.
func avoidFeelers(t Tick, p *Params) r2.Vec {
	self := t.Self
	var best Intersection
	bestLength := 0.0
	for _, f := range Feelers(self, p) {
		if f.Length <= 0 {
			continue
		}
		hit := t.Index.RayIntersect(self.Position, f.Dir, f.Length, p.ObstacleTag)
		if !hit.Valid || hit.ID == self.ID {
			continue
		}
		if !best.Valid || hit.Depth < best.Depth {
			best, bestLength = hit, f.Length
		}
	}
	if !best.Valid {
		return r2.Vec{}
	}
	return r2.Scale(bestLength-best.Depth, best.Normal)
}
