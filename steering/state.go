package steering

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/geom"
)

// SmoothingFactor is the fraction of the newly computed force blended into the
// previous output each tick.
const SmoothingFactor = 0.1

// budgetEpsilon absorbs rounding after a truncated add so the budget reads as spent.
const budgetEpsilon = 1e-9

// Report describes how the last Calculate spent its budget.
type Report struct {
	Evaluated  Behavior // behaviors whose force was added to the total
	Truncated  Behavior // behavior whose force was scaled down to fit, if any
	Starved    Behavior // enabled behaviors skipped because the budget ran out
	Neighbors  int      // flocking neighbors after filtering
	StaleAgent bool     // Agent referred to a body that no longer exists
	Raw        r2.Vec   // accumulated force before smoothing
}

// Exhausted reports whether any enabled behavior was starved.
func (r Report) Exhausted() bool {
	return r.Starved != NoBehavior
}

// State is one agent's steering accumulator.
type State struct {
	Flags  Behavior
	Params Params

	Target r2.Vec // seek/arrive point
	Agent  ID     // pursued or evaded body
	Offset r2.Vec // offset pursuit point in Agent's frame

	current      r2.Vec
	total        r2.Vec
	wanderTarget r2.Vec
	rng          *rand.Rand

	neighbors []*Body
	obstacles []*Body
	report    Report
}

// NewState returns a state with no behaviors enabled.
// seed drives the wander random walk.
func NewState(params Params, seed int64) State {
	return State{
		Params:       params,
		wanderTarget: r2.Vec{Y: params.WanderRadius},
		rng:          rand.New(rand.NewSource(seed)),
		neighbors:    make([]*Body, 0, 32),
		obstacles:    make([]*Body, 0, 16),
	}
}

// Enable turns behaviors on.
func (s *State) Enable(b Behavior) { s.Flags |= b }

// Disable turns behaviors off.
func (s *State) Disable(b Behavior) { s.Flags &^= b }

// IsOn reports whether b is enabled.
func (s *State) IsOn(b Behavior) bool { return s.Flags.Has(b) }

// Current returns the last smoothed output.
func (s *State) Current() r2.Vec { return s.current }

// WanderTarget returns the wander anchor on the wander circle, in local space.
func (s *State) WanderTarget() r2.Vec { return s.wanderTarget }

// Report returns the breakdown of the last Calculate.
func (s *State) Report() Report { return s.report }

// Neighbors returns the flocking neighbors found by the last Calculate.
// The slice is reused on the next call.
func (s *State) Neighbors() []*Body { return s.neighbors }

// Steering runs the prioritized calculation and blends it into the previous output.
func (s *State) Steering(t Tick) r2.Vec {
	raw := s.Calculate(t)
	s.current = geom.Lerp(s.current, raw, SmoothingFactor)
	return s.current
}

// Calculate evaluates enabled behaviors in priority order until the force budget runs out
// and returns the raw accumulated force.
func (s *State) Calculate(t Tick) r2.Vec {
	s.total = r2.Vec{}
	s.report = Report{}
	if t.Self == nil || t.Index == nil {
		return s.total
	}
	self := t.Self
	p := &s.Params

	s.neighbors = s.neighbors[:0]
	if s.Flags&flocking != 0 {
		s.neighbors = s.flockingNeighbors(t)
		s.report.Neighbors = countOthers(self, s.neighbors)
	}

	var agent *Body
	if s.Agent != NoID {
		if b, ok := t.Index.Lookup(s.Agent); ok {
			agent = b
		} else {
			s.Agent = NoID
			s.report.StaleAgent = true
		}
	}

	for i, b := range Priority {
		if !s.IsOn(b) {
			continue
		}
		var force r2.Vec
		switch b {
		case ObstacleAvoidance:
			force = s.obstacleAvoidance(t)
		case Seek:
			force = SeekForce(self, p, s.Target)
		case Arrive:
			force = ArriveForce(self, p, s.Target, p.ArriveDeceleration)
		case Evade:
			if agent == nil {
				continue
			}
			force = EvadeForce(self, p, agent)
		case OffsetPursuit:
			if agent == nil {
				continue
			}
			force = OffsetPursuitForce(self, p, agent, s.Offset)
		case Separation:
			force = SeparationForce(self, s.neighbors, s.Agent)
		case Cohesion:
			force = CohesionForce(self, p, s.neighbors, s.Agent)
		case Alignment:
			force = AlignmentForce(self, s.neighbors, s.Agent)
		case Wander:
			force = s.wander(self, t.Elapsed)
		}
		force = r2.Scale(p.Weights.Of(b), force)
		ok, truncated := s.accumulate(force)
		if !ok {
			// b itself is starved, not evaluated
			for _, rest := range Priority[i:] {
				if agent == nil && (rest == Evade || rest == OffsetPursuit) {
					continue
				}
				s.report.Starved |= s.Flags & rest
			}
			break
		}
		s.report.Evaluated |= b
		if truncated {
			s.report.Truncated = b
		}
	}

	s.report.Raw = s.total
	return s.total
}

// Accumulate adds force to the running total without exceeding MaxForce.
// It returns false once the budget is spent, leaving the total unchanged.
func (s *State) Accumulate(force r2.Vec) bool {
	ok, _ := s.accumulate(force)
	return ok
}

func (s *State) accumulate(force r2.Vec) (ok, truncated bool) {
	remaining := s.Params.MaxForce - r2.Norm(s.total)
	if remaining <= budgetEpsilon {
		return false, false
	}
	if r2.Norm(force) < remaining {
		s.total = r2.Add(s.total, force)
		return true, false
	}
	s.total = r2.Add(s.total, r2.Scale(remaining, geom.SafeUnit(force)))
	return true, true
}

// Total returns the running total of the current calculation.
func (s *State) Total() r2.Vec { return s.total }

// Reset clears the running total, the smoothed output and the wander anchor.
func (s *State) Reset() {
	s.total = r2.Vec{}
	s.current = r2.Vec{}
	s.wanderTarget = r2.Vec{Y: s.Params.WanderRadius}
}

func (s *State) flockingNeighbors(t Tick) []*Body {
	found := t.Index.InRadius(s.neighbors[:0], t.Self.Position, s.Params.FlockingRadius)
	out := found[:0]
	for _, b := range found {
		if b.Tag.Matches(s.Params.FlockingTag) {
			out = append(out, b)
		}
	}
	return out
}

func countOthers(self *Body, bodies []*Body) int {
	n := 0
	for _, b := range bodies {
		if b.ID != self.ID {
			n++
		}
	}
	return n
}

func (s *State) obstacleAvoidance(t Tick) r2.Vec {
	if s.Params.Avoidance == AvoidFeelers {
		return avoidFeelers(t, &s.Params)
	}
	var force r2.Vec
	force, s.obstacles = avoidGeometric(t, &s.Params, s.obstacles)
	return force
}

// wander moves the anchor by a time-scaled random jitter, reprojects it onto the
// wander circle and returns the offset to that point projected ahead of the agent.
func (s *State) wander(self *Body, elapsed float64) r2.Vec {
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(int64(self.ID)))
	}
	heading := self.Velocity
	if r2.Norm2(heading) < stillSpeedSq {
		heading = self.Forward
	}

	jitter := s.Params.WanderJitter * elapsed
	s.wanderTarget = r2.Add(s.wanderTarget, r2.Vec{
		X: (s.rng.Float64()*2 - 1) * jitter,
		Y: (s.rng.Float64()*2 - 1) * jitter,
	})
	dir := geom.SafeUnit(s.wanderTarget)
	if dir == (r2.Vec{}) {
		dir = r2.Vec{Y: 1}
	}
	s.wanderTarget = r2.Scale(s.Params.WanderRadius, dir)

	local := r2.Add(s.wanderTarget, r2.Vec{Y: s.Params.WanderDistance})
	world := geom.NewFrame(self.Position, heading).ToWorld(local)
	return r2.Sub(world, self.Position)
}
