// Package geom holds the small amount of 2D geometry shared by steering and the spatial index.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// SafeUnit returns the unit vector of v, or the zero vector when v has no length.
func SafeUnit(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n < Epsilon {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}

// Truncate limits the length of v to max.
func Truncate(v r2.Vec, max float64) r2.Vec {
	if max <= 0 {
		return r2.Vec{}
	}
	n := r2.Norm(v)
	if n <= max {
		return v
	}
	return r2.Scale(max/n, v)
}

// Lerp interpolates from a to b by t.
func Lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// FromAngle returns the unit vector at angle radians from the +X axis.
func FromAngle(angle float64) r2.Vec {
	s, c := math.Sincos(angle)
	return r2.Vec{X: c, Y: s}
}

// Heading returns the angle of v measured from the +X axis.
func Heading(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// Distance returns |a - b|.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
