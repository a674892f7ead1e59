package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

// InspectorData holds the selected agent's state for display and editing.
type InspectorData struct {
	ID        uint32
	Archetype string
	Position  r2.Vec
	Velocity  r2.Vec
	Force     r2.Vec
	State     *steering.State // edits are written straight into the agent
}

// Inspector renders the selected agent's steering panel.
type Inspector struct {
	renderer *Renderer
	panel    PanelDescriptor
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		panel:    SteeringPanel(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Contains reports whether a screen point is over the panel.
func (ins *Inspector) Contains(px, py float32, data *InspectorData) bool {
	h := ins.panel.Height(ins.renderer.Theme, data)
	return px >= float32(ins.x) && px <= float32(ins.x+ins.width) &&
		py >= float32(ins.y) && py <= float32(ins.y+h)
}

// Draw renders the inspector panel and applies any edits.
func (ins *Inspector) Draw(data *InspectorData) int32 {
	if data == nil || data.State == nil {
		return ins.y
	}
	r := ins.renderer
	h := ins.panel.Height(r.Theme, data)
	r.DrawPanel(ins.x, ins.y, ins.width, h)

	x := ins.x + r.Theme.Padding
	y := ins.y + r.Theme.Padding
	inner := ins.width - r.Theme.Padding*2

	rl.DrawText(ins.panel.Title, x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4
	for _, sd := range ins.panel.Sections {
		y = r.DrawSection(x, y, sd, data, inner)
	}
	return y
}

func inspected(data any) *InspectorData {
	return data.(*InspectorData)
}

// paramSlider builds a slider bound to one steering parameter.
func paramSlider(id, label string, lo, hi float32, field func(*steering.Params) *float64) FieldDescriptor {
	return FieldDescriptor{
		ID:     id,
		Label:  label,
		Widget: WidgetSlider,
		Range:  FieldRange{Min: lo, Max: hi},
		Getter: func(d any) float32 {
			return float32(*field(&inspected(d).State.Params))
		},
		Setter: func(d any, v float32) {
			*field(&inspected(d).State.Params) = float64(v)
		},
	}
}

func behaviorToggle(b steering.Behavior) FieldDescriptor {
	return FieldDescriptor{
		ID:         "behavior_" + b.String(),
		Label:      b.String(),
		Widget:     WidgetToggle,
		BoolGetter: func(d any) bool { return inspected(d).State.IsOn(b) },
		BoolSetter: func(d any, on bool) {
			if on {
				inspected(d).State.Enable(b)
			} else {
				inspected(d).State.Disable(b)
			}
		},
	}
}

// SteeringPanel describes the inspector layout for one agent.
func SteeringPanel() PanelDescriptor {
	toggles := make([]FieldDescriptor, 0, len(steering.Priority))
	for _, b := range steering.Priority {
		toggles = append(toggles, behaviorToggle(b))
	}

	return PanelDescriptor{
		ID:    "steering",
		Title: "Steering",
		Width: 300,
		Sections: []SectionDescriptor{
			{
				ID:    "agent",
				Title: "Agent",
				Fields: []FieldDescriptor{
					{ID: "id", Label: "ID", Widget: WidgetText, TextGetter: func(d any) string {
						return fmt.Sprintf("%d (%s)", inspected(d).ID, inspected(d).Archetype)
					}},
					{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
						p := inspected(d).Position
						return fmt.Sprintf("%.0f, %.0f", p.X, p.Y)
					}},
					{ID: "speed", Label: "Speed", Widget: WidgetBar, Getter: func(d any) float32 {
						return float32(r2.Norm(inspected(d).Velocity))
					}, Range: FieldRange{Max: 200}},
					{ID: "target", Label: "Agent", Widget: WidgetText, TextGetter: func(d any) string {
						if id := inspected(d).State.Agent; id != steering.NoID {
							return fmt.Sprintf("%d", id)
						}
						return "-"
					}},
				},
			},
			{
				ID:    "budget",
				Title: "Budget",
				Fields: []FieldDescriptor{
					{ID: "used", Label: "Used", Widget: WidgetBar, Getter: func(d any) float32 {
						s := inspected(d).State
						if s.Params.MaxForce <= 0 {
							return 0
						}
						return float32(r2.Norm(s.Report().Raw) / s.Params.MaxForce)
					}, Range: DefaultRange()},
					{ID: "applied", Label: "Applied", Widget: WidgetText, TextGetter: func(d any) string {
						return fmt.Sprintf("%.1f", r2.Norm(inspected(d).Force))
					}},
					{ID: "neighbors", Label: "Neighbors", Widget: WidgetText, TextGetter: func(d any) string {
						return fmt.Sprintf("%d", inspected(d).State.Report().Neighbors)
					}},
					{ID: "truncated", Label: "Truncated", Widget: WidgetText, TextGetter: func(d any) string {
						return inspected(d).State.Report().Truncated.String()
					}},
					{ID: "starved", Label: "Starved", Widget: WidgetText, TextGetter: func(d any) string {
						return inspected(d).State.Report().Starved.String()
					}},
				},
			},
			{ID: "behaviors", Title: "Behaviors", Fields: toggles},
			{
				ID:    "params",
				Title: "Parameters",
				Fields: []FieldDescriptor{
					paramSlider("max_force", "Max force", 0, 300, func(p *steering.Params) *float64 { return &p.MaxForce }),
					paramSlider("max_speed", "Max speed", 0, 200, func(p *steering.Params) *float64 { return &p.MaxSpeed }),
					paramSlider("max_accel", "Max accel", 0, 200, func(p *steering.Params) *float64 { return &p.MaxAcceleration }),
					paramSlider("flocking_radius", "Flock radius", 0, 200, func(p *steering.Params) *float64 { return &p.FlockingRadius }),
					paramSlider("evade_distance", "Evade dist", 0, 400, func(p *steering.Params) *float64 { return &p.EvadeDistance }),
					paramSlider("avoid_radius", "Avoid radius", 0, 300, func(p *steering.Params) *float64 { return &p.ObstacleAvoidanceRadius }),
					paramSlider("wander_jitter", "Wander jitter", 0, 200, func(p *steering.Params) *float64 { return &p.WanderJitter }),
					paramSlider("wander_radius", "Wander radius", 0, 60, func(p *steering.Params) *float64 { return &p.WanderRadius }),
					paramSlider("wander_distance", "Wander dist", 0, 100, func(p *steering.Params) *float64 { return &p.WanderDistance }),
					{Widget: WidgetSpacer},
					paramSlider("w_avoid", "W avoid", 0, 10, func(p *steering.Params) *float64 { return &p.Weights.ObstacleAvoidance }),
					paramSlider("w_separation", "W separation", 0, 200, func(p *steering.Params) *float64 { return &p.Weights.Separation }),
					paramSlider("w_cohesion", "W cohesion", 0, 100, func(p *steering.Params) *float64 { return &p.Weights.Cohesion }),
					paramSlider("w_alignment", "W alignment", 0, 100, func(p *steering.Params) *float64 { return &p.Weights.Alignment }),
					paramSlider("w_wander", "W wander", 0, 10, func(p *steering.Params) *float64 { return &p.Weights.Wander }),
				},
			},
		},
	}
}
