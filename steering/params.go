package steering

import (
	"fmt"
	"strings"
)

// Behavior is a bitmask of steering behaviors.
type Behavior uint16

const (
	ObstacleAvoidance Behavior = 1 << iota
	Seek
	Arrive
	Evade
	OffsetPursuit
	Separation
	Cohesion
	Alignment
	Wander

	NoBehavior Behavior = 0
)

// Priority is the fixed evaluation order.
var Priority = [...]Behavior{
	ObstacleAvoidance,
	Seek,
	Arrive,
	Evade,
	OffsetPursuit,
	Separation,
	Cohesion,
	Alignment,
	Wander,
}

const flocking = Separation | Cohesion | Alignment

var behaviorNames = map[Behavior]string{
	ObstacleAvoidance: "obstacle_avoidance",
	Seek:              "seek",
	Arrive:            "arrive",
	Evade:             "evade",
	OffsetPursuit:     "offset_pursuit",
	Separation:        "separation",
	Cohesion:          "cohesion",
	Alignment:         "alignment",
	Wander:            "wander",
}

// Has reports whether every bit of other is set.
func (b Behavior) Has(other Behavior) bool {
	return b&other == other && other != 0
}

// String lists the set behaviors in priority order.
func (b Behavior) String() string {
	if b == NoBehavior {
		return "none"
	}
	var parts []string
	for _, p := range Priority {
		if b&p != 0 {
			parts = append(parts, behaviorNames[p])
		}
	}
	return strings.Join(parts, "|")
}

// ParseBehavior parses a single behavior name.
func ParseBehavior(name string) (Behavior, error) {
	for b, n := range behaviorNames {
		if n == name {
			return b, nil
		}
	}
	return NoBehavior, fmt.Errorf("unknown behavior %q", name)
}

// ParseBehaviors ORs together a list of behavior names.
func ParseBehaviors(names []string) (Behavior, error) {
	var out Behavior
	for _, n := range names {
		b, err := ParseBehavior(n)
		if err != nil {
			return NoBehavior, err
		}
		out |= b
	}
	return out, nil
}

// AvoidanceMode selects the obstacle avoidance algorithm.
type AvoidanceMode uint8

const (
	// AvoidGeometric projects obstacles into a detection box ahead of the agent.
	AvoidGeometric AvoidanceMode = iota
	// AvoidFeelers casts three rays along the heading.
	AvoidFeelers
)

func (m AvoidanceMode) String() string {
	switch m {
	case AvoidFeelers:
		return "feelers"
	default:
		return "geometric"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m AvoidanceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AvoidanceMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "geometric":
		*m = AvoidGeometric
	case "feelers":
		*m = AvoidFeelers
	default:
		return fmt.Errorf("unknown avoidance mode %q", text)
	}
	return nil
}

// Weights scale each behavior's output before accumulation.
type Weights struct {
	ObstacleAvoidance float64 `yaml:"obstacle_avoidance"`
	Seek              float64 `yaml:"seek"`
	Arrive            float64 `yaml:"arrive"`
	Evade             float64 `yaml:"evade"`
	OffsetPursuit     float64 `yaml:"offset_pursuit"`
	Separation        float64 `yaml:"separation"`
	Cohesion          float64 `yaml:"cohesion"`
	Alignment         float64 `yaml:"alignment"`
	Wander            float64 `yaml:"wander"`
}

// Of returns the weight of a single behavior.
func (w *Weights) Of(b Behavior) float64 {
	switch b {
	case ObstacleAvoidance:
		return w.ObstacleAvoidance
	case Seek:
		return w.Seek
	case Arrive:
		return w.Arrive
	case Evade:
		return w.Evade
	case OffsetPursuit:
		return w.OffsetPursuit
	case Separation:
		return w.Separation
	case Cohesion:
		return w.Cohesion
	case Alignment:
		return w.Alignment
	case Wander:
		return w.Wander
	}
	return 0
}

// Params tunes one agent's behaviors.
type Params struct {
	MaxAcceleration float64 `yaml:"max_acceleration"` // magnitude of seek/flee output
	MaxForce        float64 `yaml:"max_force"`        // accumulation budget
	MaxSpeed        float64 `yaml:"max_speed"`

	ArriveDeceleration float64 `yaml:"arrive_deceleration"`

	WanderJitter   float64 `yaml:"wander_jitter"` // per second
	WanderRadius   float64 `yaml:"wander_radius"`
	WanderDistance float64 `yaml:"wander_distance"`

	EvadeDistance float64 `yaml:"evade_distance"`

	FlockingRadius float64 `yaml:"flocking_radius"`
	FlockingTag    Tag     `yaml:"-"`

	Avoidance                 AvoidanceMode `yaml:"avoidance"`
	ObstacleTag               Tag           `yaml:"-"`
	ObstacleAvoidanceRadius   float64       `yaml:"obstacle_avoidance_radius"`
	ObstacleFrontFeelerLength float64       `yaml:"obstacle_front_feeler_length"`
	ObstacleSideFeelerLength  float64       `yaml:"obstacle_side_feeler_length"`
	ObstacleSideFeelerSpread  float64       `yaml:"obstacle_side_feeler_spread"` // degrees off the heading

	Weights Weights `yaml:"weights"`
}

// DefaultParams returns parameters that produce a reasonable flock at unit scale.
func DefaultParams() Params {
	return Params{
		MaxAcceleration:           60,
		MaxForce:                  80,
		MaxSpeed:                  60,
		ArriveDeceleration:        2,
		WanderJitter:              40,
		WanderRadius:              12,
		WanderDistance:            24,
		EvadeDistance:             120,
		FlockingRadius:            50,
		Avoidance:                 AvoidGeometric,
		ObstacleAvoidanceRadius:   120,
		ObstacleFrontFeelerLength: 60,
		ObstacleSideFeelerLength:  35,
		ObstacleSideFeelerSpread:  35,
		Weights: Weights{
			ObstacleAvoidance: 3,
			Seek:              1,
			Arrive:            1,
			Evade:             1,
			OffsetPursuit:     1,
			Separation:        60,
			Cohesion:          20,
			Alignment:         25,
			Wander:            1,
		},
	}
}
