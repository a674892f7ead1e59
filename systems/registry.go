package systems

import "github.com/pthm-cable/shoal/telemetry"

// SystemInfo describes one tick phase for UI display.
type SystemInfo struct {
	ID          string // Phase name used by the perf collector
	Name        string // Display name
	Description string // What this phase does
	Category    string // Grouping (e.g., "core", "steering")
}

// SystemRegistry holds metadata about the tick phases.
// This centralizes naming so the UI and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with every tick phase, in tick order.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: telemetry.PhaseSnapshot, Name: "Snapshot", Description: "Copies bodies into the tick snapshot", Category: "core"})
	r.Register(SystemInfo{ID: telemetry.PhaseSpatialIndex, Name: "Spatial Index", Description: "Rebuilds the broad phase and ray caster", Category: "core"})
	r.Register(SystemInfo{ID: telemetry.PhaseSteering, Name: "Steering", Description: "Retargets and runs every accumulator", Category: "steering"})
	r.Register(SystemInfo{ID: telemetry.PhaseIntegrate, Name: "Integrate", Description: "Applies forces and resolves obstacle overlap", Category: "physics"})
	r.Register(SystemInfo{ID: telemetry.PhaseLifecycle, Name: "Lifecycle", Description: "Captures and respawns", Category: "core"})
	r.Register(SystemInfo{ID: telemetry.PhaseTelemetry, Name: "Telemetry", Description: "Stats windows, trace rows, viz frames", Category: "internal"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
