package steering

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestArriveForce(t *testing.T) {
	p := testParams()
	tests := []struct {
		name   string
		self   Body
		target r2.Vec
		decel  float64
		want   r2.Vec
	}{
		{"at target", Body{Position: r2.Vec{X: 4, Y: 4}, Velocity: r2.Vec{X: 1}}, r2.Vec{X: 4, Y: 4}, 2, r2.Vec{}},
		{"far clamps to max speed", Body{}, r2.Vec{X: 1000}, 2, r2.Vec{X: 10}},
		{"near slows down", Body{}, r2.Vec{X: 0.3}, 1, r2.Vec{X: 1}},
		{"subtracts velocity", Body{Velocity: r2.Vec{X: 4}}, r2.Vec{X: 1000}, 2, r2.Vec{X: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArriveForce(&tt.self, &p, tt.target, tt.decel)
			if !approx(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeekAndFleeZeroDistance(t *testing.T) {
	p := testParams()
	self := &Body{Position: r2.Vec{X: 2, Y: 2}}
	if got := SeekForce(self, &p, self.Position); got != (r2.Vec{}) {
		t.Errorf("seek: got %v, want zero", got)
	}
	if got := FleeForce(self, &p, self.Position); got != (r2.Vec{}) {
		t.Errorf("flee: got %v, want zero", got)
	}
}

func TestEvadeForce(t *testing.T) {
	p := testParams()
	p.EvadeDistance = 50
	self := &Body{}

	near := &Body{Position: r2.Vec{X: 20}}
	if got := EvadeForce(self, &p, near); !approx(got, r2.Vec{X: -1}) {
		t.Errorf("near: got %v, want (-1,0)", got)
	}

	far := &Body{Position: r2.Vec{X: 80}}
	if got := EvadeForce(self, &p, far); got != (r2.Vec{}) {
		t.Errorf("far: got %v, want zero", got)
	}
}

func TestOffsetPursuitForce(t *testing.T) {
	p := testParams()
	leader := &Body{Forward: r2.Vec{Y: 1}}
	self := &Body{Position: r2.Vec{X: 10, Y: -10}}

	got := OffsetPursuitForce(self, &p, leader, r2.Vec{Y: -10})
	if !approx(got, r2.Vec{X: -1}) {
		t.Errorf("got %v, want (-1,0)", got)
	}
}

func TestSeparationZeroDistance(t *testing.T) {
	self := &Body{ID: 1}
	twin := &Body{ID: 2}
	got := SeparationForce(self, []*Body{self, twin}, NoID)
	if got != (r2.Vec{}) || math.IsNaN(got.X) {
		t.Errorf("got %v, want zero", got)
	}
}

func TestCohesionForce(t *testing.T) {
	p := testParams()
	self := &Body{ID: 1}
	neighbors := []*Body{
		self,
		{ID: 2, Position: r2.Vec{X: 10, Y: 10}},
		{ID: 3, Position: r2.Vec{X: 10, Y: -10}},
		{ID: 9, Position: r2.Vec{X: -100}},
	}
	got := CohesionForce(self, &p, neighbors, 9)
	if !approx(got, r2.Vec{X: 1}) {
		t.Errorf("got %v, want (1,0)", got)
	}
	if got := CohesionForce(self, &p, []*Body{self}, NoID); got != (r2.Vec{}) {
		t.Errorf("alone: got %v, want zero", got)
	}
}

func TestAlignmentForce(t *testing.T) {
	self := &Body{ID: 1, Forward: r2.Vec{X: 1}}
	neighbors := []*Body{
		self,
		{ID: 2, Forward: r2.Vec{Y: 3}},
		{ID: 3, Forward: r2.Vec{Y: 1}},
	}
	got := AlignmentForce(self, neighbors, NoID)
	if !approx(got, r2.Vec{X: -1, Y: 1}) {
		t.Errorf("got %v, want (-1,1)", got)
	}
}

func TestGeometricAvoidance(t *testing.T) {
	const rock Tag = 4
	p := testParams()
	p.MaxForce = 100
	p.ObstacleAvoidanceRadius = 100 // min box 25, full speed box 50
	p.ObstacleTag = rock

	tests := []struct {
		name     string
		obstacle r2.Vec
		want     r2.Vec
	}{
		{"dead ahead", r2.Vec{Y: 20}, r2.Vec{X: 8, Y: -3}},
		{"out of range", r2.Vec{Y: 200}, r2.Vec{}},
		{"beside the box", r2.Vec{X: 10, Y: 20}, r2.Vec{}},
		{"behind", r2.Vec{Y: -20}, r2.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			self := &Body{ID: 1, Velocity: r2.Vec{Y: 10}, Forward: r2.Vec{Y: 1}, Radius: 1}
			ob := &Body{ID: 2, Position: tt.obstacle, Radius: 5, Tag: rock}
			s := NewState(p, 1)
			s.Enable(ObstacleAvoidance)

			got := s.Calculate(Tick{Self: self, Index: newListIndex(self, ob), Elapsed: 0.016})
			if !approx(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeometricAvoidanceOutOfRangeLeavesSeek(t *testing.T) {
	const rock Tag = 4
	p := testParams()
	p.MaxForce = 100
	p.ObstacleAvoidanceRadius = 100
	p.ObstacleTag = rock

	self := &Body{ID: 1, Velocity: r2.Vec{Y: 10}, Forward: r2.Vec{Y: 1}, Radius: 1}
	ob := &Body{ID: 2, Position: r2.Vec{Y: 200}, Radius: 5, Tag: rock}
	s := NewState(p, 1)
	s.Enable(ObstacleAvoidance | Seek)
	s.Target = r2.Vec{X: 10}

	s.Calculate(Tick{Self: self, Index: newListIndex(self, ob), Elapsed: 0.016})
	want := SeekForce(self, &p, s.Target)
	if got := s.Report().Raw; !approx(got, want) {
		t.Errorf("got %v, want seek force %v", got, want)
	}
	if !approx(want, r2.Vec{X: 1}) {
		t.Errorf("seek force: got %v, want (1,0)", want)
	}
}

func TestGeometricAvoidanceIgnoresOtherTags(t *testing.T) {
	p := testParams()
	p.ObstacleAvoidanceRadius = 100
	p.ObstacleTag = 4

	self := &Body{ID: 1, Velocity: r2.Vec{Y: 10}, Forward: r2.Vec{Y: 1}, Radius: 1}
	friend := &Body{ID: 2, Position: r2.Vec{Y: 20}, Radius: 5, Tag: 1}
	s := NewState(p, 1)
	s.Enable(ObstacleAvoidance)

	if got := s.Calculate(Tick{Self: self, Index: newListIndex(self, friend)}); got != (r2.Vec{}) {
		t.Errorf("got %v, want zero", got)
	}
}

func TestFeelerAvoidance(t *testing.T) {
	p := testParams()
	p.MaxForce = 100
	p.Avoidance = AvoidFeelers
	p.ObstacleFrontFeelerLength = 60
	p.ObstacleSideFeelerLength = 30
	p.ObstacleSideFeelerSpread = 35

	self := &Body{ID: 1, Velocity: r2.Vec{X: 5}, Forward: r2.Vec{X: 1}, Radius: 1}
	ob := &Body{ID: 2, Position: r2.Vec{X: 30}, Radius: 5}
	s := NewState(p, 1)
	s.Enable(ObstacleAvoidance)

	// front feeler strikes at 25 along a normal of (-1,0)
	got := s.Calculate(Tick{Self: self, Index: newListIndex(self, ob)})
	if !approx(got, r2.Vec{X: -35}) {
		t.Errorf("got %v, want (-35,0)", got)
	}
}

func TestBehaviorNames(t *testing.T) {
	b, err := ParseBehaviors([]string{"seek", "wander", "obstacle_avoidance"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := ObstacleAvoidance | Seek | Wander; b != want {
		t.Errorf("got %v, want %v", b, want)
	}
	if s := b.String(); s != "obstacle_avoidance|seek|wander" {
		t.Errorf("String() = %q", s)
	}
	if _, err := ParseBehavior("flee"); err == nil {
		t.Error("expected error for unknown behavior")
	}
}

func TestDetectionBoxLength(t *testing.T) {
	p := testParams()
	p.ObstacleAvoidanceRadius = 120

	tests := []struct {
		name string
		vel  r2.Vec
		want float64
	}{
		{"at rest", r2.Vec{}, 30},
		{"half speed", r2.Vec{Y: 5}, 45},
		{"max speed", r2.Vec{X: 10}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			self := &Body{Velocity: tt.vel, Forward: r2.Vec{Y: 1}}
			if got := DetectionBoxLength(self, &p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFeelersFollowHeading(t *testing.T) {
	p := testParams()
	p.ObstacleFrontFeelerLength = 60
	p.ObstacleSideFeelerLength = 30
	p.ObstacleSideFeelerSpread = 35

	// velocity wins over Forward
	self := &Body{Velocity: r2.Vec{X: 5}, Forward: r2.Vec{Y: 1}}
	f := Feelers(self, &p)

	if !approx(f[0].Dir, r2.Vec{X: 1}) || f[0].Length != 60 {
		t.Errorf("front: got %v len %f, want (1,0) len 60", f[0].Dir, f[0].Length)
	}
	cos := math.Cos(35 * math.Pi / 180)
	for _, side := range f[1:] {
		if side.Length != 30 {
			t.Errorf("side length: got %f, want 30", side.Length)
		}
		if got := r2.Dot(side.Dir, r2.Vec{X: 1}); math.Abs(got-cos) > 1e-9 {
			t.Errorf("side spread: got cos %f, want %f", got, cos)
		}
	}
	// the side feelers mirror each other across the heading
	if sum := r2.Add(f[1].Dir, f[2].Dir); math.Abs(sum.Y) > 1e-9 {
		t.Errorf("side feelers not symmetric: sum %v", sum)
	}

	// still bodies use Forward
	still := &Body{Forward: r2.Vec{Y: 1}}
	if got := Feelers(still, &p)[0].Dir; !approx(got, r2.Vec{Y: 1}) {
		t.Errorf("still front: got %v, want (0,1)", got)
	}
}
