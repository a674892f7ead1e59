package main

import (
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/steering"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name  string  // Human-readable name
	Path  string  // Config path for logging
	Min   float64 // Lower bound
	Max   float64 // Upper bound
	Field func(*steering.Params) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the flocking and avoidance parameters. They tune the global
// steering defaults, so archetypes without their own override follow them.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Flocking weights
			{Name: "w_separation", Path: "steering.weights.separation", Min: 5, Max: 200,
				Field: func(p *steering.Params) *float64 { return &p.Weights.Separation }},
			{Name: "w_cohesion", Path: "steering.weights.cohesion", Min: 1, Max: 80,
				Field: func(p *steering.Params) *float64 { return &p.Weights.Cohesion }},
			{Name: "w_alignment", Path: "steering.weights.alignment", Min: 1, Max: 80,
				Field: func(p *steering.Params) *float64 { return &p.Weights.Alignment }},
			{Name: "w_wander", Path: "steering.weights.wander", Min: 0, Max: 3,
				Field: func(p *steering.Params) *float64 { return &p.Weights.Wander }},
			// Avoidance
			{Name: "w_avoid", Path: "steering.weights.obstacle_avoidance", Min: 0.5, Max: 10,
				Field: func(p *steering.Params) *float64 { return &p.Weights.ObstacleAvoidance }},
			{Name: "avoid_radius", Path: "steering.obstacle_avoidance_radius", Min: 40, Max: 240,
				Field: func(p *steering.Params) *float64 { return &p.ObstacleAvoidanceRadius }},
			// Neighborhood and budget
			{Name: "flocking_radius", Path: "steering.flocking_radius", Min: 20, Max: 120,
				Field: func(p *steering.Params) *float64 { return &p.FlockingRadius }},
			{Name: "max_force", Path: "steering.max_force", Min: 20, Max: 200,
				Field: func(p *steering.Params) *float64 { return &p.MaxForce }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into the steering defaults and
// re-resolves the archetypes.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		*spec.Field(&cfg.Steering) = clamped[i]
	}
	return cfg.Recompute()
}

// ExtractFromConfig reads the current steering defaults.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.Field(&cfg.Steering)
	}
	return v
}
