package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/steering"
)

// placementAttempts bounds the search for a spawn point clear of obstacles.
const placementAttempts = 64

// spawnClearance is the gap kept between a new body and any obstacle.
const spawnClearance = 4.0

// spawnInitialPopulation creates obstacles first so agents can be placed clear of them.
func (g *Game) spawnInitialPopulation() {
	for i := range g.cfg.Archetypes {
		arch := &g.cfg.Archetypes[i]
		if !arch.IsObstacle() {
			continue
		}
		for n := 0; n < arch.Count; n++ {
			g.spawnObstacle(uint8(i))
		}
	}
	for i := range g.cfg.Archetypes {
		arch := &g.cfg.Archetypes[i]
		if arch.IsObstacle() {
			continue
		}
		for n := 0; n < arch.Count; n++ {
			g.spawnAgent(uint8(i), g.freePosition(arch.Radius))
		}
	}
}

func (g *Game) newID() steering.ID {
	id := g.nextID
	g.nextID++
	return id
}

// spawnObstacle creates a static circle with a radius drawn from the archetype range.
func (g *Game) spawnObstacle(archetype uint8) ecs.Entity {
	arch := &g.cfg.Archetypes[archetype]
	derived := &g.cfg.Derived.Archetypes[archetype]

	radius := arch.Radius + g.rng.Float64()*(arch.MaxRadius-arch.Radius)
	p := g.freePosition(radius)

	pos := components.Position{X: p.X, Y: p.Y}
	body := components.Body{ID: g.newID(), Radius: radius, Tag: derived.Tag}
	ob := components.Obstacle{Archetype: archetype}
	entity := g.obstacleMapper.NewEntity(&pos, &body, &ob)

	g.obstacles = append(g.obstacles, steering.Body{
		ID:       body.ID,
		Position: p,
		Forward:  r2.Vec{Y: 1},
		Radius:   radius,
		Tag:      body.Tag,
	})
	g.entities[body.ID] = entity
	g.numObstacles++
	return entity
}

// spawnAgent creates a steered agent of an archetype at p with a random heading.
func (g *Game) spawnAgent(archetype uint8, p r2.Vec) ecs.Entity {
	arch := &g.cfg.Archetypes[archetype]
	derived := &g.cfg.Derived.Archetypes[archetype]

	heading := g.rng.Float64() * 2 * math.Pi
	v := r2.Scale(derived.Params.MaxSpeed*0.5, geom.FromAngle(heading))

	st := steering.NewState(derived.Params, g.rng.Int63())
	st.Flags = derived.Behaviors
	st.Target = r2.Vec{X: arch.Target[0], Y: arch.Target[1]}
	if st.Target == (r2.Vec{}) {
		st.Target = r2.Vec{X: g.cfg.Derived.WorldW / 2, Y: g.cfg.Derived.WorldH / 2}
	}
	if derived.Relation == components.RelationEscort {
		st.Offset = r2.Vec{X: arch.Offset[0], Y: arch.Offset[1]}
	}

	pos := components.Position{X: p.X, Y: p.Y}
	vel := components.Velocity{X: v.X, Y: v.Y}
	rot := components.Rotation{Heading: heading}
	body := components.Body{ID: g.newID(), Radius: arch.Radius, Tag: derived.Tag}
	caps := components.Capabilities{MaxSpeed: derived.Params.MaxSpeed, Mass: arch.Mass}
	agent := components.Agent{
		Archetype: archetype,
		Relation:  derived.Relation,
		Other:     derived.Other,
	}

	entity := g.agentMapper.NewEntity(&pos, &vel, &rot, &body, &caps, &agent, &st)
	g.forceMap.Add(entity, &components.Force{})

	g.entities[body.ID] = entity
	g.population[archetype]++
	return entity
}

// freePosition picks a random point inside the walls that does not overlap an obstacle.
// After placementAttempts misses it returns the last candidate.
func (g *Game) freePosition(radius float64) r2.Vec {
	w, h := g.cfg.Derived.WorldW, g.cfg.Derived.WorldH
	var p r2.Vec
	for attempt := 0; attempt < placementAttempts; attempt++ {
		p = r2.Vec{
			X: radius + g.rng.Float64()*math.Max(0, w-2*radius),
			Y: radius + g.rng.Float64()*math.Max(0, h-2*radius),
		}
		if !g.overlapsObstacle(p, radius+spawnClearance) {
			return p
		}
	}
	return p
}

func (g *Game) overlapsObstacle(p r2.Vec, radius float64) bool {
	for i := range g.obstacles {
		ob := &g.obstacles[i]
		if geom.Distance(p, ob.Position) < radius+ob.Radius {
			return true
		}
	}
	return false
}
