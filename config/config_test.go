package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/steering"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.WorldW != 1600 || cfg.Derived.WorldH != 1000 {
		t.Errorf("world: got %fx%f, want 1600x1000", cfg.Derived.WorldW, cfg.Derived.WorldH)
	}
	if len(cfg.Derived.Archetypes) != len(cfg.Archetypes) {
		t.Fatalf("derived archetypes: got %d, want %d", len(cfg.Derived.Archetypes), len(cfg.Archetypes))
	}
}

func TestArchetypeSteeringOverlay(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	hunter := cfg.Derived.Archetypes[cfg.Derived.ArchetypeIndex["hunter"]]

	if hunter.Params.MaxSpeed != 66 {
		t.Errorf("max_speed: got %f, want 66", hunter.Params.MaxSpeed)
	}
	if hunter.Params.Avoidance != steering.AvoidFeelers {
		t.Errorf("avoidance: got %v, want feelers", hunter.Params.Avoidance)
	}
	if hunter.Params.Weights.Separation != 400 {
		t.Errorf("separation weight: got %f, want 400", hunter.Params.Weights.Separation)
	}
	// untouched fields keep the global defaults
	if hunter.Params.Weights.Cohesion != cfg.Steering.Weights.Cohesion {
		t.Errorf("cohesion weight: got %f, want %f", hunter.Params.Weights.Cohesion, cfg.Steering.Weights.Cohesion)
	}
	if hunter.Params.WanderRadius != cfg.Steering.WanderRadius {
		t.Errorf("wander radius: got %f, want %f", hunter.Params.WanderRadius, cfg.Steering.WanderRadius)
	}
	if hunter.Relation != components.RelationPursue || hunter.Other != cfg.Derived.ArchetypeIndex["boid"] {
		t.Errorf("relation: got %v -> %d", hunter.Relation, hunter.Other)
	}
	if !hunter.Behaviors.Has(steering.OffsetPursuit | steering.ObstacleAvoidance) {
		t.Errorf("behaviors: got %v", hunter.Behaviors)
	}
}

func TestTagBits(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mask, err := cfg.TagMask([]string{"boid", "obstacle"})
	if err != nil {
		t.Fatalf("TagMask: %v", err)
	}
	if want := cfg.Derived.TagBits["boid"] | cfg.Derived.TagBits["obstacle"]; mask != want {
		t.Errorf("got %b, want %b", mask, want)
	}
	if _, err := cfg.TagMask([]string{"nope"}); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestLoadUserFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	data := []byte("physics:\n  index: rtree\nsteering:\n  max_force: 5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.Index != "rtree" {
		t.Errorf("index: got %q, want rtree", cfg.Physics.Index)
	}
	if cfg.Steering.MaxForce != 5 {
		t.Errorf("max_force: got %f, want 5", cfg.Steering.MaxForce)
	}
	// fields absent from the user file keep their defaults
	if cfg.Physics.GridCellSize != 64 {
		t.Errorf("grid_cell_size: got %f, want 64", cfg.Physics.GridCellSize)
	}
	boid := cfg.Derived.Archetypes[cfg.Derived.ArchetypeIndex["boid"]]
	if boid.Params.MaxForce != 5 {
		t.Errorf("boid max_force: got %f, want 5", boid.Params.MaxForce)
	}
}

func TestLoadRejectsBadArchetype(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	data := []byte("archetypes:\n  - name: x\n    kind: agent\n    behaviors: [teleport]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown behavior")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	hunter := again.Derived.Archetypes[again.Derived.ArchetypeIndex["hunter"]]
	if hunter.Params.Avoidance != steering.AvoidFeelers {
		t.Errorf("avoidance after reload: got %v", hunter.Params.Avoidance)
	}
}
