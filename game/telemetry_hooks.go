package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/viz"
)

// flushTelemetry closes the stats window when it is due.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation())
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		if !g.headless {
			g.logPerfStats(perfStats)
			g.logWorldState()
		}
	}

	// Output manager is nil-safe
	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// samplePopulation collects speeds of every agent and headings of flocking agents.
func (g *Game) samplePopulation() telemetry.Population {
	pop := telemetry.Population{Obstacles: g.numObstacles}

	query := g.agentFilter.Query()
	for query.Next() {
		_, vel, _, _, _, _, st := query.Get()
		v := vel.Vec()
		pop.Agents++
		pop.Speeds = append(pop.Speeds, r2.Norm(v))
		if st.Flags&(steering.Separation|steering.Cohesion|steering.Alignment) != 0 {
			pop.Headings = append(pop.Headings, v)
		}
	}
	return pop
}

// publishFrame sends the world to viz watchers every Viz.Every ticks.
func (g *Game) publishFrame() {
	if g.viz == nil || g.viz.Watchers() == 0 {
		return
	}
	every := int32(max(1, g.cfg.Viz.Every))
	if g.tick%every != 0 {
		return
	}

	frame := &viz.Frame{
		Tick:      g.tick,
		Width:     g.cfg.Derived.WorldW,
		Height:    g.cfg.Derived.WorldH,
		Agents:    make([]viz.AgentFrame, 0, len(g.parallel.snapshots)),
		Obstacles: make([]viz.ObstacleFrame, 0, len(g.obstacles)),
	}
	for i := range g.obstacles {
		ob := &g.obstacles[i]
		frame.Obstacles = append(frame.Obstacles, viz.ObstacleFrame{
			ID: uint32(ob.ID), X: ob.Position.X, Y: ob.Position.Y, Radius: ob.Radius,
		})
	}

	query := g.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, rot, body, _, agent, _ := query.Get()
		var fx, fy float64
		if f := g.forceMap.Get(entity); f != nil {
			fx, fy = f.X, f.Y
		}
		frame.Agents = append(frame.Agents, viz.AgentFrame{
			ID:        uint32(body.ID),
			Archetype: g.cfg.Archetypes[agent.Archetype].Name,
			X:         pos.X,
			Y:         pos.Y,
			Heading:   rot.Heading,
			Radius:    body.Radius,
			FX:        fx,
			FY:        fy,
		})
	}
	g.viz.Publish(frame)
}
