// Package components defines ECS components for the simulation.
package components

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Velocity represents an entity's velocity in world units per second.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// Rotation holds the heading in radians, measured from +X.
type Rotation struct {
	Heading float64
}

// Body is the collision circle shared by agents and obstacles.
type Body struct {
	ID     steering.ID
	Radius float64
	Tag    steering.Tag
}

// Capabilities limit how an agent responds to steering.
type Capabilities struct {
	MaxSpeed float64
	Mass     float64
}

// RelationKind says how an agent picks its Agent reference.
type RelationKind uint8

const (
	RelationNone   RelationKind = iota
	RelationPursue              // offset pursuit of the nearest agent of Other at zero offset
	RelationEvade               // evade the nearest agent of Other
	RelationEscort              // offset pursuit of a leader of Other at Offset
)

// Agent marks a steered entity.
type Agent struct {
	Archetype uint8
	Relation  RelationKind
	Other     uint8 // archetype index the relation targets
	Captures  int
}

// Obstacle marks a static obstacle.
type Obstacle struct {
	Archetype uint8
}

// Force records the smoothed steering force applied on the last tick.
type Force struct {
	X, Y float64
}

// Vec returns the force as a vector.
func (f Force) Vec() r2.Vec { return r2.Vec{X: f.X, Y: f.Y} }
