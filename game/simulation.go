package game

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/steering"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// simulationStep runs a single tick of the simulation.
func (g *Game) simulationStep() {
	g.perfCollector.StartTick()

	// 1. Copy agent and obstacle state into the tick snapshot
	g.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	g.takeSnapshot()

	// 2. Rebuild the spatial index over the snapshot
	g.perfCollector.StartPhase(telemetry.PhaseSpatialIndex)
	g.index.Rebuild(g.bodies)

	// 3. Pick relation targets and run every accumulator
	g.perfCollector.StartPhase(telemetry.PhaseSteering)
	g.retarget()
	g.updateSteering()

	// 4. Apply forces, integrate, push agents out of obstacles
	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	g.applyIntents()

	// 5. Captures and respawns
	g.perfCollector.StartPhase(telemetry.PhaseLifecycle)
	g.detectCaptures()
	g.resolveCaptures()

	// 6. Stats windows, trace rows and viz frames
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	g.publishFrame()

	g.tick++
	g.perfCollector.EndTick()
}

// takeSnapshot fills g.bodies with obstacles followed by agents and records
// one agentSnapshot per agent.
func (g *Game) takeSnapshot() {
	g.bodies = append(g.bodies[:0], g.obstacles...)
	g.parallel.snapshots = g.parallel.snapshots[:0]

	query := g.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, rot, body, _, agent, st := query.Get()

		g.parallel.snapshots = append(g.parallel.snapshots, agentSnapshot{
			Entity:    entity,
			Archetype: agent.Archetype,
			Body:      len(g.bodies),
			State:     st,
		})
		g.bodies = append(g.bodies, steering.Body{
			ID:       body.ID,
			Position: pos.Vec(),
			Velocity: vel.Vec(),
			Forward:  geom.FromAngle(rot.Heading),
			Radius:   body.Radius,
			Tag:      body.Tag,
		})
	}
}

// retarget points relation-driven agents at a body of their Other archetype.
// Evaders always track the nearest threat. Pursuers and escorts keep their
// reference until the accumulator clears it.
func (g *Game) retarget() {
	snaps := g.parallel.snapshots
	for i := range snaps {
		snap := &snaps[i]
		arch := &g.cfg.Derived.Archetypes[snap.Archetype]
		switch arch.Relation {
		case components.RelationNone:
			continue
		case components.RelationPursue, components.RelationEscort:
			if snap.State.Agent != steering.NoID {
				continue
			}
		}
		self := &g.bodies[snap.Body]
		if id, ok := g.nearestOfArchetype(self, arch.Other); ok {
			snap.State.Agent = id
		}
	}
}

// nearestOfArchetype scans the snapshot for the closest other agent of an archetype.
func (g *Game) nearestOfArchetype(self *steering.Body, archetype uint8) (steering.ID, bool) {
	best := steering.NoID
	bestDist := math.Inf(1)
	for i := range g.parallel.snapshots {
		snap := &g.parallel.snapshots[i]
		if snap.Archetype != archetype {
			continue
		}
		b := &g.bodies[snap.Body]
		if b.ID == self.ID {
			continue
		}
		if d := r2.Norm2(r2.Sub(b.Position, self.Position)); d < bestDist {
			bestDist = d
			best = b.ID
		}
	}
	return best, best != steering.NoID
}

// applyIntents writes computed forces back to ECS components and integrates.
func (g *Game) applyIntents() {
	dt := g.cfg.Physics.DT
	tracing := g.outputManager.Tracing()
	var trace []telemetry.TraceRow
	var scratch []*steering.Body

	for i, snap := range g.parallel.snapshots {
		out := &g.parallel.intents[i]

		// Get live component pointers
		pos := g.posMap.Get(snap.Entity)
		vel := g.velMap.Get(snap.Entity)
		rot := g.rotMap.Get(snap.Entity)
		body := g.bodyMap.Get(snap.Entity)
		caps := g.capsMap.Get(snap.Entity)
		if pos == nil || vel == nil || rot == nil || body == nil || caps == nil {
			continue
		}

		// Inspector edits to MaxSpeed take effect on the next step
		caps.MaxSpeed = snap.State.Params.MaxSpeed
		g.integrator.Step(pos, vel, rot, body, caps, out.Force, dt)

		// Obstacles are static, so the snapshot index still holds them.
		scratch = g.index.InRadius(scratch[:0], pos.Vec(), body.Radius)
		for _, ob := range scratch {
			if ob.Tag&g.obstacleTags == 0 || ob.ID == body.ID {
				continue
			}
			if systems.Resolve(pos, vel, body.Radius, ob.Position, ob.Radius) {
				g.collector.RecordOverlap()
			}
		}

		if f := g.forceMap.Get(snap.Entity); f != nil {
			f.X, f.Y = out.Force.X, out.Force.Y
		}
		g.collector.RecordSteering(out.Report)

		if tracing {
			trace = append(trace, traceRow(g.tick, body.ID, g.cfg.Archetypes[snap.Archetype].Name, pos, out))
		}
	}

	if tracing {
		if err := g.outputManager.WriteTrace(trace); err != nil {
			slog.Error("failed to write trace", "error", err)
		}
	}
}

func traceRow(tick int32, id steering.ID, archetype string, pos *components.Position, out *intent) telemetry.TraceRow {
	return telemetry.TraceRow{
		Tick:      tick,
		ID:        uint32(id),
		Archetype: archetype,
		X:         pos.X,
		Y:         pos.Y,
		RawX:      out.Report.Raw.X,
		RawY:      out.Report.Raw.Y,
		ForceX:    out.Force.X,
		ForceY:    out.Force.Y,
		Evaluated: out.Report.Evaluated.String(),
		Truncated: out.Report.Truncated.String(),
		Starved:   out.Report.Starved.String(),
		Neighbors: out.Report.Neighbors,
	}
}
