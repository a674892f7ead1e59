package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
	"github.com/pthm-cable/shoal/ui"
)

var (
	backgroundColor = rl.Color{R: 12, G: 16, B: 24, A: 255}
	boundsColor     = rl.Color{R: 70, G: 80, B: 95, A: 255}
	gridColor       = rl.Color{R: 40, G: 48, B: 60, A: 120}
	obstacleColor   = rl.Color{R: 90, G: 96, B: 110, A: 255}
	forceColor      = rl.Color{R: 255, G: 120, B: 60, A: 200}
	targetColor     = rl.Color{R: 80, G: 220, B: 120, A: 200}
	neighborColor   = rl.Color{R: 120, G: 170, B: 255, A: 160}
	detectionColor  = rl.Color{R: 255, G: 210, B: 80, A: 180}
	wanderColor     = rl.Color{R: 200, G: 120, B: 255, A: 180}
)

// forceDrawScale converts a steering force into a drawn line length in world units.
const forceDrawScale = 0.25

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	g.dropStaleSelection()

	if g.overlays.IsEnabled(ui.OverlayGrid) {
		g.drawGrid()
	}
	g.drawBounds()
	g.drawObstacles()
	g.drawAgents()

	if g.hasSelection {
		g.drawSelectionOverlays()
	}

	g.drawUI()

	rl.EndDrawing()
}

// screen converts a world point to a raylib vector.
func (g *Game) screen(p r2.Vec) rl.Vector2 {
	x, y := g.camera.WorldToScreen(p)
	return rl.Vector2{X: x, Y: y}
}

func (g *Game) line(a, b r2.Vec, color rl.Color) {
	rl.DrawLineV(g.screen(a), g.screen(b), color)
}

func (g *Game) circleLines(center r2.Vec, radius float64, color rl.Color) {
	s := g.screen(center)
	rl.DrawCircleLines(int32(s.X), int32(s.Y), g.camera.ScreenLength(radius), color)
}

func (g *Game) dropStaleSelection() {
	if g.hasSelection && !g.world.Alive(g.selectedEntity) {
		g.hasSelection = false
	}
}

func (g *Game) archetypeColor(i uint8) rl.Color {
	if int(i) >= len(g.cfg.Archetypes) {
		return rl.White
	}
	c := g.cfg.Archetypes[i].Color
	return rl.Color{R: c[0], G: c[1], B: c[2], A: 255}
}

func (g *Game) drawBounds() {
	g.line(r2.Vec{}, r2.Vec{X: g.cfg.Derived.WorldW}, boundsColor)
	g.line(r2.Vec{X: g.cfg.Derived.WorldW}, r2.Vec{X: g.cfg.Derived.WorldW, Y: g.cfg.Derived.WorldH}, boundsColor)
	g.line(r2.Vec{X: g.cfg.Derived.WorldW, Y: g.cfg.Derived.WorldH}, r2.Vec{Y: g.cfg.Derived.WorldH}, boundsColor)
	g.line(r2.Vec{Y: g.cfg.Derived.WorldH}, r2.Vec{}, boundsColor)
}

// drawGrid draws the broad-phase cell lines that fall inside the view.
func (g *Game) drawGrid() {
	cell := g.cfg.Physics.GridCellSize
	if cell <= 0 {
		return
	}
	minX, minY, maxX, maxY := g.camera.VisibleWorldBounds()
	minX, minY = math.Max(minX, 0), math.Max(minY, 0)
	maxX, maxY = math.Min(maxX, g.cfg.Derived.WorldW), math.Min(maxY, g.cfg.Derived.WorldH)

	for x := math.Ceil(minX/cell) * cell; x <= maxX; x += cell {
		g.line(r2.Vec{X: x, Y: minY}, r2.Vec{X: x, Y: maxY}, gridColor)
	}
	for y := math.Ceil(minY/cell) * cell; y <= maxY; y += cell {
		g.line(r2.Vec{X: minX, Y: y}, r2.Vec{X: maxX, Y: y}, gridColor)
	}
}

func (g *Game) drawObstacles() {
	query := g.obstacleFilter.Query()
	for query.Next() {
		pos, body, _ := query.Get()
		p := pos.Vec()
		if !g.camera.IsVisible(p, body.Radius) {
			continue
		}
		s := g.screen(p)
		rl.DrawCircleV(s, g.camera.ScreenLength(body.Radius), obstacleColor)
	}
}

// drawAgents draws each agent as a triangle pointing along its heading.
func (g *Game) drawAgents() {
	showForces := g.overlays.IsEnabled(ui.OverlayForces)
	showTargets := g.overlays.IsEnabled(ui.OverlayTargets)

	query := g.agentFilter.Query()
	for query.Next() {
		pos, _, rot, body, _, agent, st := query.Get()
		p := pos.Vec()
		if !g.camera.IsVisible(p, body.Radius*2) {
			continue
		}
		g.drawTriangle(p, rot.Heading, body.Radius, g.archetypeColor(agent.Archetype))

		if showForces {
			if f := g.forceMap.Get(query.Entity()); f != nil {
				g.line(p, r2.Add(p, r2.Scale(forceDrawScale, f.Vec())), forceColor)
			}
		}
		if showTargets {
			g.drawTargets(p, st)
		}
	}
}

func (g *Game) drawTriangle(p r2.Vec, heading, radius float64, color rl.Color) {
	c := g.screen(p)
	r := g.camera.ScreenLength(radius)
	if r < 2 {
		r = 2
	}
	fx, fy := float32(math.Cos(heading)), float32(math.Sin(heading))
	// Left of the heading as seen on screen, y pointing down.
	lx, ly := fy, -fx

	tip := rl.Vector2{X: c.X + fx*r*1.5, Y: c.Y + fy*r*1.5}
	left := rl.Vector2{X: c.X - fx*r + lx*r, Y: c.Y - fy*r + ly*r}
	right := rl.Vector2{X: c.X - fx*r - lx*r, Y: c.Y - fy*r - ly*r}
	rl.DrawTriangle(tip, left, right, color)
}

// drawTargets draws the seek point and the tracked agent, if any.
func (g *Game) drawTargets(p r2.Vec, st *steering.State) {
	if st.Flags&(steering.Seek|steering.Arrive) != 0 {
		g.line(p, st.Target, targetColor)
		g.circleLines(st.Target, 3/g.camera.Zoom, targetColor)
	}
	if st.Agent == steering.NoID {
		return
	}
	if other, ok := g.index.Lookup(st.Agent); ok {
		g.line(p, other.Position, targetColor)
	}
}

// drawSelectionOverlays draws the selection ring plus the per-agent debug views.
func (g *Game) drawSelectionOverlays() {
	body := g.bodyMap.Get(g.selectedEntity)
	st := g.stateMap.Get(g.selectedEntity)
	if body == nil || st == nil {
		return
	}
	snap, ok := g.index.Lookup(body.ID)
	if !ok {
		return
	}

	pulse := float32(math.Sin(float64(g.tick)*0.1))*0.3 + 0.7
	g.circleLines(snap.Position, snap.Radius+3/g.camera.Zoom, rl.Color{R: 255, G: 255, B: 255, A: uint8(255 * pulse)})

	if g.overlays.IsEnabled(ui.OverlayNeighbors) {
		g.drawNeighbors(snap, st)
	}
	if g.overlays.IsEnabled(ui.OverlayDetection) {
		g.drawDetection(snap, &st.Params)
	}
	if g.overlays.IsEnabled(ui.OverlayWander) && st.IsOn(steering.Wander) {
		g.drawWander(snap, st)
	}
}

func (g *Game) drawNeighbors(self *steering.Body, st *steering.State) {
	g.circleLines(self.Position, st.Params.FlockingRadius, neighborColor)
	for _, n := range st.Neighbors() {
		if n.ID == self.ID {
			continue
		}
		g.line(self.Position, n.Position, neighborColor)
	}
}

// drawDetection draws the avoidance probe for the agent's avoidance mode.
func (g *Game) drawDetection(self *steering.Body, p *steering.Params) {
	if p.Avoidance == steering.AvoidFeelers {
		for _, f := range steering.Feelers(self, p) {
			g.line(self.Position, r2.Add(self.Position, r2.Scale(f.Length, f.Dir)), detectionColor)
		}
		return
	}

	length := steering.DetectionBoxLength(self, p)
	corners := [4]r2.Vec{
		self.ToWorld(r2.Vec{X: -self.Radius}),
		self.ToWorld(r2.Vec{X: self.Radius}),
		self.ToWorld(r2.Vec{X: self.Radius, Y: length}),
		self.ToWorld(r2.Vec{X: -self.Radius, Y: length}),
	}
	for i := range corners {
		g.line(corners[i], corners[(i+1)%len(corners)], detectionColor)
	}
}

func (g *Game) drawWander(self *steering.Body, st *steering.State) {
	center := self.ToWorld(r2.Vec{Y: st.Params.WanderDistance})
	g.circleLines(center, st.Params.WanderRadius, wanderColor)
	anchor := self.ToWorld(r2.Add(st.WanderTarget(), r2.Vec{Y: st.Params.WanderDistance}))
	g.line(self.Position, anchor, wanderColor)
	g.circleLines(anchor, 2/g.camera.Zoom, wanderColor)
}

// drawUI draws the HUD, the perf panel and the inspector.
func (g *Game) drawUI() {
	counts := make([]ui.ArchetypeCount, 0, len(g.cfg.Archetypes))
	for i := range g.cfg.Archetypes {
		if g.cfg.Archetypes[i].IsObstacle() {
			continue
		}
		counts = append(counts, ui.ArchetypeCount{
			Name:  g.cfg.Archetypes[i].Name,
			Count: g.population[i],
			Color: g.archetypeColor(uint8(i)),
		})
	}

	g.hud.Draw(ui.HUDData{
		Title:      "Shoal",
		Archetypes: counts,
		Obstacles:  g.numObstacles,
		Captures:   g.captures,
		Tick:       g.tick,
		Speed:      g.stepsPerUpdate,
		FPS:        rl.GetFPS(),
		Paused:     g.paused,
		Watchers:   g.viz.Watchers(),
	})

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		stats := g.perfCollector.Stats()
		g.perfPanel.Draw(ui.PerfPanelData{
			PhaseTimes: stats.PhaseAvg,
			Total:      stats.AvgTickDuration,
			Registry:   g.registry,
		}, g.registry.IDs())
	}

	if data := g.inspectorData(); data != nil {
		g.inspector.Draw(data)
	}

	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight),
		"SPACE: Pause | < >: Speed | L-Click: Select | R-Click: Target | C: Follow | F T N B W G P: Overlays")
}

// inspectorData collects the selected agent's components, or nil without a selection.
func (g *Game) inspectorData() *ui.InspectorData {
	if !g.hasSelection || !g.world.Alive(g.selectedEntity) {
		return nil
	}
	body := g.bodyMap.Get(g.selectedEntity)
	agent := g.agentMap.Get(g.selectedEntity)
	st := g.stateMap.Get(g.selectedEntity)
	if body == nil || agent == nil || st == nil {
		return nil
	}

	data := &ui.InspectorData{
		ID:       uint32(body.ID),
		Position: g.posMap.Get(g.selectedEntity).Vec(),
		Velocity: g.velMap.Get(g.selectedEntity).Vec(),
		State:    st,
	}
	if int(agent.Archetype) < len(g.cfg.Archetypes) {
		data.Archetype = g.cfg.Archetypes[agent.Archetype].Name
	}
	if f := g.forceMap.Get(g.selectedEntity); f != nil {
		data.Force = f.Vec()
	}
	return data
}
