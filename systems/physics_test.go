package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
)

func TestIntegratorStep(t *testing.T) {
	in := &Integrator{Bounds: Bounds{Width: 1000, Height: 1000}, Restitution: 0.5}
	tests := []struct {
		name    string
		pos     components.Position
		vel     components.Velocity
		force   r2.Vec
		mass    float64
		wantPos components.Position
		wantVel components.Velocity
	}{
		{
			name:    "accelerates by force over mass",
			pos:     components.Position{X: 500, Y: 500},
			force:   r2.Vec{X: 10},
			mass:    2,
			wantPos: components.Position{X: 505, Y: 500},
			wantVel: components.Velocity{X: 5},
		},
		{
			name:    "clamps to max speed",
			pos:     components.Position{X: 500, Y: 500},
			vel:     components.Velocity{X: 30},
			force:   r2.Vec{X: 100},
			mass:    1,
			wantPos: components.Position{X: 520, Y: 500},
			wantVel: components.Velocity{X: 20},
		},
		{
			name:    "bounces off left wall",
			pos:     components.Position{X: 6, Y: 500},
			vel:     components.Velocity{X: -10},
			mass:    1,
			wantPos: components.Position{X: 5, Y: 500},
			wantVel: components.Velocity{X: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, vel := tt.pos, tt.vel
			var rot components.Rotation
			body := components.Body{Radius: 5}
			caps := components.Capabilities{MaxSpeed: 20, Mass: tt.mass}

			in.Step(&pos, &vel, &rot, &body, &caps, tt.force, 1)

			if math.Abs(pos.X-tt.wantPos.X) > 1e-9 || math.Abs(pos.Y-tt.wantPos.Y) > 1e-9 {
				t.Errorf("pos: got %+v, want %+v", pos, tt.wantPos)
			}
			if math.Abs(vel.X-tt.wantVel.X) > 1e-9 || math.Abs(vel.Y-tt.wantVel.Y) > 1e-9 {
				t.Errorf("vel: got %+v, want %+v", vel, tt.wantVel)
			}
		})
	}
}

func TestIntegratorHeadingFollowsVelocity(t *testing.T) {
	in := &Integrator{Bounds: Bounds{Width: 100, Height: 100}}
	pos := components.Position{X: 50, Y: 50}
	vel := components.Velocity{Y: 3}
	rot := components.Rotation{Heading: 0}
	caps := components.Capabilities{MaxSpeed: 10, Mass: 1}

	in.Step(&pos, &vel, &rot, &components.Body{Radius: 1}, &caps, r2.Vec{}, 0.1)
	if math.Abs(rot.Heading-math.Pi/2) > 1e-9 {
		t.Errorf("heading: got %f, want %f", rot.Heading, math.Pi/2)
	}

	// nearly still keeps the last heading
	vel = components.Velocity{X: 0.01}
	in.Step(&pos, &vel, &rot, &components.Body{Radius: 1}, &caps, r2.Vec{}, 0.1)
	if math.Abs(rot.Heading-math.Pi/2) > 1e-9 {
		t.Errorf("heading changed while still: got %f", rot.Heading)
	}
}

func TestResolve(t *testing.T) {
	pos := components.Position{X: 12}
	vel := components.Velocity{X: -4, Y: 1}
	if !Resolve(&pos, &vel, 2, r2.Vec{}, 12) {
		t.Fatal("expected overlap")
	}
	if math.Abs(pos.X-14) > 1e-9 || pos.Y != 0 {
		t.Errorf("pos: got %+v, want (14,0)", pos)
	}
	if vel.X != 0 || vel.Y != 1 {
		t.Errorf("vel: got %+v, want (0,1)", vel)
	}

	if Resolve(&pos, &vel, 2, r2.Vec{X: 100}, 5) {
		t.Error("reported overlap for distant obstacle")
	}
}
