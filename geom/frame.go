package geom

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r2"
)

// Frame is a body-local coordinate system.
// Local +Y points along the body's forward axis and local +X along its right.
type Frame struct {
	toWorld mgl64.Mat3
	toLocal mgl64.Mat3
}

// NewFrame builds the frame at origin facing forward.
// A zero forward falls back to world +Y.
func NewFrame(origin, forward r2.Vec) Frame {
	f := SafeUnit(forward)
	if f == (r2.Vec{}) {
		f = r2.Vec{Y: 1}
	}
	right := r2.Vec{X: f.Y, Y: -f.X}

	m := mgl64.Mat3FromCols(
		mgl64.Vec3{right.X, right.Y, 0},
		mgl64.Vec3{f.X, f.Y, 0},
		mgl64.Vec3{origin.X, origin.Y, 1},
	)
	return Frame{toWorld: m, toLocal: m.Inv()}
}

// Forward returns the frame's unit forward axis in world space.
func (f Frame) Forward() r2.Vec {
	c := f.toWorld.Col(1)
	return r2.Vec{X: c[0], Y: c[1]}
}

// Right returns the frame's unit right axis in world space.
func (f Frame) Right() r2.Vec {
	c := f.toWorld.Col(0)
	return r2.Vec{X: c[0], Y: c[1]}
}

// ToWorld maps a local point to world space.
func (f Frame) ToWorld(p r2.Vec) r2.Vec {
	w := f.toWorld.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return r2.Vec{X: w[0], Y: w[1]}
}

// ToWorldDirection rotates a local direction into world space without translating it.
func (f Frame) ToWorldDirection(v r2.Vec) r2.Vec {
	w := f.toWorld.Mul3x1(mgl64.Vec3{v.X, v.Y, 0})
	return r2.Vec{X: w[0], Y: w[1]}
}

// ToLocal maps a world point into the frame.
func (f Frame) ToLocal(p r2.Vec) r2.Vec {
	l := f.toLocal.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return r2.Vec{X: l[0], Y: l[1]}
}
