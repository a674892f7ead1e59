package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/steering"
)

// capture is a pursuer reaching the agent it was chasing.
type capture struct {
	pursuer ecs.Entity
	prey    steering.ID
}

// detectCaptures queues pursuers touching their target.
// Removal waits for resolveCaptures since the query locks the world.
func (g *Game) detectCaptures() {
	g.pending = g.pending[:0]
	if !g.cfg.Capture.Enabled {
		return
	}
	margin := g.cfg.Capture.Margin

	query := g.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, body, _, agent, st := query.Get()

		if agent.Relation != components.RelationPursue || st.Agent == steering.NoID {
			continue
		}
		preyEntity, ok := g.entities[st.Agent]
		if !ok {
			continue
		}
		preyPos := g.posMap.Get(preyEntity)
		preyBody := g.bodyMap.Get(preyEntity)
		if preyPos == nil || preyBody == nil {
			continue
		}
		if geom.Distance(pos.Vec(), preyPos.Vec()) <= body.Radius+preyBody.Radius+margin {
			g.pending = append(g.pending, capture{pursuer: entity, prey: st.Agent})
		}
	}
}

// resolveCaptures removes caught agents and respawns replacements.
// Other agents still holding the old ID find it gone on their next calculation.
func (g *Game) resolveCaptures() {
	for _, c := range g.pending {
		preyEntity, ok := g.entities[c.prey]
		if !ok || !g.world.Alive(preyEntity) {
			continue // two pursuers caught the same prey
		}
		preyAgent := g.agentMap.Get(preyEntity)
		if preyAgent == nil {
			continue
		}
		archetype := preyAgent.Archetype

		if g.hasSelection && g.selectedEntity == preyEntity {
			g.hasSelection = false
		}
		g.world.RemoveEntity(preyEntity)
		delete(g.entities, c.prey)
		g.population[archetype]--

		if pursuer := g.agentMap.Get(c.pursuer); pursuer != nil {
			pursuer.Captures++
		}
		g.captures++
		g.collector.RecordCapture()
		slog.Debug("capture", "tick", g.tick, "prey", c.prey, "archetype", g.cfg.Archetypes[archetype].Name)

		if g.cfg.Capture.Respawn {
			arch := &g.cfg.Archetypes[archetype]
			g.spawnAgent(archetype, g.freePosition(arch.Radius))
		}
	}
	g.pending = g.pending[:0]
}
