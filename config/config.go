// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/steering"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig      `yaml:"screen"`
	World      WorldConfig       `yaml:"world"`
	Physics    PhysicsConfig     `yaml:"physics"`
	Steering   steering.Params   `yaml:"steering"` // defaults every archetype starts from
	Tags       []string          `yaml:"tags"`     // tag names, one bit each in order
	Archetypes []ArchetypeConfig `yaml:"archetypes"`
	Capture    CaptureConfig     `yaml:"capture"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Viz        VizConfig         `yaml:"viz"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions.
// World can be larger than the screen; camera handles the viewport.
type WorldConfig struct {
	Width  int `yaml:"width"`  // World width in world units (0 = use screen width)
	Height int `yaml:"height"` // World height in world units (0 = use screen height)
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"`
	Index        string  `yaml:"index"`      // grid | rtree
	RayCaster    string  `yaml:"ray_caster"` // analytic | box2d
	Workers      int     `yaml:"workers"`    // 0 = GOMAXPROCS
	Restitution  float64 `yaml:"restitution"`
	Drag         float64 `yaml:"drag"`
}

// ArchetypeConfig is a spawn template.
type ArchetypeConfig struct {
	Name      string     `yaml:"name"`
	Kind      string     `yaml:"kind"` // agent | obstacle
	Count     int        `yaml:"count"`
	Radius    float64    `yaml:"radius"`
	MaxRadius float64    `yaml:"max_radius"` // obstacles pick a radius in [radius, max_radius]
	Mass      float64    `yaml:"mass"`
	Tag       string     `yaml:"tag"`
	Color     [3]uint8   `yaml:"color"`
	Behaviors []string   `yaml:"behaviors"`
	Relation  string     `yaml:"relation"` // pursue | evade | escort
	Other     string     `yaml:"other"`    // archetype name the relation targets
	Offset    [2]float64 `yaml:"offset"`   // escort offset, local (right, forward)
	Target    [2]float64 `yaml:"target"`   // seek/arrive point

	FlockingTags []string `yaml:"flocking_tags"`
	ObstacleTags []string `yaml:"obstacle_tags"`

	// Steering overrides fields of the global steering defaults.
	Steering yaml.Node `yaml:"steering,omitempty"`
}

// IsObstacle reports whether the archetype spawns static obstacles.
func (a *ArchetypeConfig) IsObstacle() bool { return a.Kind == "obstacle" }

// CaptureConfig controls what happens when a pursuer reaches its prey.
type CaptureConfig struct {
	Enabled bool    `yaml:"enabled"`
	Margin  float64 `yaml:"margin"` // extra distance beyond touching that counts as caught
	Respawn bool    `yaml:"respawn"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// VizConfig holds the frame stream settings.
type VizConfig struct {
	Addr  string `yaml:"addr"`
	Every int    `yaml:"every"` // publish a frame every N ticks
}

// ArchetypeDerived holds an archetype's resolved steering setup.
type ArchetypeDerived struct {
	Params    steering.Params
	Behaviors steering.Behavior
	Tag       steering.Tag
	Relation  components.RelationKind
	Other     uint8
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32      float32          // Screen.Width as float32
	ScreenH32      float32          // Screen.Height as float32
	WorldW         float64          // Effective world width
	WorldH         float64          // Effective world height
	TagBits        map[string]steering.Tag
	ArchetypeIndex map[string]uint8 // name -> index for archetype lookup
	Archetypes     []ArchetypeDerived
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Set replaces the global configuration.
func Set(cfg *Config) {
	global = cfg
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// World dimensions default to screen size if not specified
	worldW := c.World.Width
	if worldW == 0 {
		worldW = c.Screen.Width
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	c.Derived.WorldW = float64(worldW)
	c.Derived.WorldH = float64(worldH)

	if len(c.Tags) > 32 {
		return fmt.Errorf("at most 32 tags supported, got %d", len(c.Tags))
	}
	c.Derived.TagBits = make(map[string]steering.Tag, len(c.Tags))
	for i, name := range c.Tags {
		c.Derived.TagBits[name] = steering.Tag(1) << i
	}

	if len(c.Archetypes) > 255 {
		return fmt.Errorf("at most 255 archetypes supported, got %d", len(c.Archetypes))
	}
	// Build archetype index for fast lookup
	c.Derived.ArchetypeIndex = make(map[string]uint8, len(c.Archetypes))
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[arch.Name] = uint8(i)
	}

	c.Derived.Archetypes = make([]ArchetypeDerived, len(c.Archetypes))
	for i := range c.Archetypes {
		d, err := c.resolveArchetype(&c.Archetypes[i])
		if err != nil {
			return fmt.Errorf("archetype %q: %w", c.Archetypes[i].Name, err)
		}
		c.Derived.Archetypes[i] = d
	}
	return nil
}

func (c *Config) resolveArchetype(arch *ArchetypeConfig) (ArchetypeDerived, error) {
	var d ArchetypeDerived

	// Apply defaults to archetypes that don't specify all fields
	if arch.Mass == 0 {
		arch.Mass = 1
	}
	if arch.Radius == 0 {
		arch.Radius = 4
	}
	if arch.MaxRadius < arch.Radius {
		arch.MaxRadius = arch.Radius
	}

	d.Params = c.Steering
	if !arch.Steering.IsZero() {
		if err := arch.Steering.Decode(&d.Params); err != nil {
			return d, fmt.Errorf("decoding steering overrides: %w", err)
		}
	}

	var err error
	if d.Tag, err = c.TagMask([]string{arch.Tag}); err != nil {
		return d, err
	}
	if d.Params.FlockingTag, err = c.TagMask(arch.FlockingTags); err != nil {
		return d, err
	}
	if d.Params.ObstacleTag, err = c.TagMask(arch.ObstacleTags); err != nil {
		return d, err
	}
	if d.Behaviors, err = steering.ParseBehaviors(arch.Behaviors); err != nil {
		return d, err
	}

	switch arch.Relation {
	case "":
		d.Relation = components.RelationNone
	case "pursue":
		d.Relation = components.RelationPursue
	case "evade":
		d.Relation = components.RelationEvade
	case "escort":
		d.Relation = components.RelationEscort
	default:
		return d, fmt.Errorf("unknown relation %q", arch.Relation)
	}
	if d.Relation != components.RelationNone {
		other, ok := c.Derived.ArchetypeIndex[arch.Other]
		if !ok {
			return d, fmt.Errorf("relation target %q is not an archetype", arch.Other)
		}
		d.Other = other
	}
	return d, nil
}

// TagMask ORs the bits of the named tags. Empty names are skipped.
func (c *Config) TagMask(names []string) (steering.Tag, error) {
	var mask steering.Tag
	for _, n := range names {
		if n == "" {
			continue
		}
		bit, ok := c.Derived.TagBits[n]
		if !ok {
			return 0, fmt.Errorf("unknown tag %q", n)
		}
		mask |= bit
	}
	return mask, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
