package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/steering"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/ui"
	"github.com/pthm-cable/shoal/viz"
)

// Options configures game initialization.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	OutputDir      string
	Trace          bool // write per-agent rows to trace.csv
	Headless       bool
	StepsPerUpdate int
	Workers        int // 0 uses the config value, then GOMAXPROCS
	Viz            *viz.Server
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	agentMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Capabilities,
		components.Agent,
		steering.State,
	]
	agentFilter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Capabilities,
		components.Agent,
		steering.State,
	]
	obstacleMapper *ecs.Map3[components.Position, components.Body, components.Obstacle]
	obstacleFilter *ecs.Filter3[components.Position, components.Body, components.Obstacle]

	// Individual component mappers for lookups
	posMap   *ecs.Map1[components.Position]
	velMap   *ecs.Map1[components.Velocity]
	rotMap   *ecs.Map1[components.Rotation]
	bodyMap  *ecs.Map1[components.Body]
	capsMap  *ecs.Map1[components.Capabilities]
	agentMap *ecs.Map1[components.Agent]
	stateMap *ecs.Map1[steering.State]
	forceMap *ecs.Map1[components.Force]

	entities map[steering.ID]ecs.Entity

	// Spatial snapshot
	index        *systems.Index
	bodies       []steering.Body
	obstacles    []steering.Body // static, kept for spawn placement
	obstacleTags steering.Tag

	integrator systems.Integrator
	parallel   *parallelState
	pending    []capture

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	viz           *viz.Server
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	nextID         steering.ID
	rngSeed        int64
	headless       bool
	population     []int // per archetype
	numObstacles   int
	captures       int

	// Viewer
	camera         *camera.Camera
	overlays       *ui.OverlayRegistry
	hud            *ui.HUD
	perfPanel      *ui.PerfPanel
	registry       *systems.SystemRegistry
	inspector      *ui.Inspector
	selectedEntity ecs.Entity
	hasSelection   bool
	screenWidth    float32
	screenHeight   float32
}

// NewGameWithOptions creates a new game instance.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	world := ecs.NewWorld()

	stepsPerUpdate := opts.StepsPerUpdate
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	g := &Game{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		agentMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Capabilities,
			components.Agent,
			steering.State,
		](world),
		agentFilter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Capabilities,
			components.Agent,
			steering.State,
		](world),
		obstacleMapper: ecs.NewMap3[components.Position, components.Body, components.Obstacle](world),
		obstacleFilter: ecs.NewFilter3[components.Position, components.Body, components.Obstacle](world),
		posMap:         ecs.NewMap1[components.Position](world),
		velMap:         ecs.NewMap1[components.Velocity](world),
		rotMap:         ecs.NewMap1[components.Rotation](world),
		bodyMap:        ecs.NewMap1[components.Body](world),
		capsMap:        ecs.NewMap1[components.Capabilities](world),
		agentMap:       ecs.NewMap1[components.Agent](world),
		stateMap:       ecs.NewMap1[steering.State](world),
		forceMap:       ecs.NewMap1[components.Force](world),
		entities:       make(map[steering.ID]ecs.Entity),
		nextID:         1,
		rngSeed:        opts.Seed,
		headless:       opts.Headless,
		stepsPerUpdate: stepsPerUpdate,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		viz:            opts.Viz,
		population:     make([]int, len(cfg.Archetypes)),
	}

	g.integrator = systems.Integrator{
		Bounds:      systems.Bounds{Width: cfg.Derived.WorldW, Height: cfg.Derived.WorldH},
		Restitution: cfg.Physics.Restitution,
		Drag:        cfg.Physics.Drag,
	}
	g.index = newIndex(cfg)

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Physics.Workers
	}
	g.parallel = newParallelState(workers)

	// Telemetry
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir, opts.Trace)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
	}
	g.outputManager = om
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	for i := range cfg.Archetypes {
		if cfg.Archetypes[i].IsObstacle() {
			g.obstacleTags |= cfg.Derived.Archetypes[i].Tag
		}
	}

	if !opts.Headless {
		g.initViewer()
	}

	g.spawnInitialPopulation()
	return g
}

// newIndex builds the spatial index chosen by the physics config.
func newIndex(cfg *config.Config) *systems.Index {
	var broad systems.Broadphase
	switch cfg.Physics.Index {
	case "rtree":
		broad = systems.NewRTree()
	default:
		broad = systems.NewSpatialGrid(cfg.Derived.WorldW, cfg.Derived.WorldH, cfg.Physics.GridCellSize)
	}
	var caster systems.RayCaster
	if cfg.Physics.RayCaster == "box2d" {
		caster = systems.NewBox2DCaster()
	}
	return systems.NewIndex(broad, caster)
}

func (g *Game) initViewer() {
	g.screenWidth = g.cfg.Derived.ScreenW32
	g.screenHeight = g.cfg.Derived.ScreenH32
	g.camera = camera.New(float64(g.screenWidth), float64(g.screenHeight), g.cfg.Derived.WorldW, g.cfg.Derived.WorldH)
	g.overlays = ui.NewOverlayRegistry()
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(10, 120)
	g.registry = systems.NewSystemRegistry()
	g.inspector = ui.NewInspector(int32(g.screenWidth)-310, 10, 300)
}

// Update handles input then runs stepsPerUpdate simulation ticks.
func (g *Game) Update() {
	g.handleInput()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
	g.perfCollector.RecordFrame()
}

// UpdateHeadless runs simulation ticks without touching raylib.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Population returns the live agent count per archetype, indexed like the config.
func (g *Game) Population() []int {
	return g.population
}

// Captures returns the number of captures so far.
func (g *Game) Captures() int {
	return g.captures
}

// OutputDir returns the output directory, or "" when output is disabled.
func (g *Game) OutputDir() string {
	return g.outputManager.Dir()
}

// Unload releases all resources.
func (g *Game) Unload() {
	g.stopParallelWorkers()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// SetTarget moves the seek and arrive target of every agent of an archetype.
func (g *Game) SetTarget(archetype uint8, target components.Position) {
	query := g.agentFilter.Query()
	for query.Next() {
		_, _, _, _, _, agent, st := query.Get()
		if agent.Archetype == archetype {
			st.Target = target.Vec()
		}
	}
}

