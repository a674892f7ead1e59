package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/steering"
)

// selectPickRadius is the extra screen distance around an agent that still selects it.
const selectPickRadius = 8.0

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Overlay toggles
	if key := rl.GetKeyPressed(); key != 0 {
		g.overlays.HandleKeyPress(key)
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		g.hasSelection = false
	}

	g.handleCameraInput()
	g.handleMouse()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(float64(w), float64(h))
	g.inspector.SetPosition(int32(w)-310, 10)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := 8.0

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		g.camera.ZoomAt(mouse.X, mouse.Y, 1+float64(wheel)*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}

	// Keep the selection in view while following
	if g.hasSelection && rl.IsKeyDown(rl.KeyC) {
		if pos := g.posMap.Get(g.selectedEntity); pos != nil {
			g.camera.Follow(pos.Vec())
		}
	}
}

// handleMouse selects agents with the left button and moves targets with the right.
func (g *Game) handleMouse() {
	mouse := rl.GetMousePosition()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		// Clicks on the inspector belong to raygui
		if g.hasSelection && g.inspector.Contains(mouse.X, mouse.Y, g.inspectorData()) {
			return
		}
		g.selectedEntity, g.hasSelection = g.findAgentAt(g.camera.ScreenToWorld(mouse.X, mouse.Y))
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		target := g.camera.ScreenToWorld(mouse.X, mouse.Y)
		archetype := g.targetArchetype()
		g.SetTarget(archetype, components.Position{X: target.X, Y: target.Y})
	}
}

// targetArchetype is the selected agent's archetype, or the first archetype that seeks or arrives.
func (g *Game) targetArchetype() uint8 {
	if g.hasSelection {
		if agent := g.agentMap.Get(g.selectedEntity); agent != nil {
			return agent.Archetype
		}
	}
	for i, d := range g.cfg.Derived.Archetypes {
		if d.Behaviors&(steering.Seek|steering.Arrive) != 0 {
			return uint8(i)
		}
	}
	return 0
}

// findAgentAt returns the agent closest to p within its radius plus a pick margin.
func (g *Game) findAgentAt(p r2.Vec) (ecs.Entity, bool) {
	var closest ecs.Entity
	closestDist := math.Inf(1)
	found := false
	pick := selectPickRadius / g.camera.Zoom

	query := g.agentFilter.Query()
	for query.Next() {
		pos, _, _, body, _, _, _ := query.Get()
		d := geom.Distance(p, pos.Vec())
		if d <= body.Radius+pick && d < closestDist {
			closestDist = d
			closest = query.Entity()
			found = true
		}
	}
	return closest, found
}
