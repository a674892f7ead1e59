package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	configPath  string
	statsWindow float64

	mu          sync.Mutex
	bestFitness float64
	lastQuality float64 // quality from most recent Evaluate call
	lastOverlap float64 // overlap rate from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every run loads a fresh config from configPath.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, configPath string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		configPath:  configPath,
		statsWindow: 5.0,
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality and overlap rate from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() (quality, overlap float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality, fe.lastOverlap
}

// Quality component weights.
const (
	qualityWeightPolarization = 0.45
	qualityWeightCohesion     = 0.35
	qualityWeightBudget       = 0.20

	targetNeighbors = 6.0  // neighbors per flocking agent that scores best
	overlapPenalty  = 20.0 // fitness cost per obstacle overlap per agent tick

	qualityWarmupWindows = 1 // skip first N windows while the flock forms
)

type seedResult struct {
	fitness float64
	quality float64
	overlap float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(x, s)
			if err != nil {
				results[idx] = seedResult{fitness: math.Inf(1)}
				return
			}
			quality, overlap := fe.computeQuality(windows)
			results[idx] = seedResult{
				fitness: -quality + overlapPenalty*overlap,
				quality: quality,
				overlap: overlap,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality, totalOverlap float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		totalOverlap += r.overlap
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastQuality = totalQuality / n
	fe.lastOverlap = totalOverlap / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run and returns its stats windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) ([]telemetry.WindowStats, error) {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return nil, err
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, fmt.Errorf("applying parameters: %w", err)
	}

	var windows []telemetry.WindowStats
	g := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Workers:        1, // seeds already run in parallel
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return windows, nil
}

// computeQuality scores flock shape in [0, 1] and returns the obstacle overlap rate
// per agent tick over the windows after warmup.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) (quality, overlap float64) {
	if len(windows) <= qualityWarmupWindows {
		return 0, 0
	}
	valid := windows[qualityWarmupWindows:]

	polarization := make([]float64, 0, len(valid))
	cohesion := make([]float64, 0, len(valid))
	budget := make([]float64, 0, len(valid))
	var overlaps, agentTicks float64

	for _, w := range valid {
		if w.Agents == 0 {
			continue
		}
		polarization = append(polarization, w.Polarization)

		e := (w.NeighborsMean - targetNeighbors) / targetNeighbors
		cohesion = append(cohesion, math.Exp(-e*e))

		budget = append(budget, 1-w.Saturation)

		overlaps += float64(w.Overlaps)
		agentTicks += float64(w.Agents) * float64(w.WindowEndTick-w.WindowStartTick)
	}
	if len(polarization) == 0 {
		return 0, 0
	}

	quality = qualityWeightPolarization*stat.Mean(polarization, nil) +
		qualityWeightCohesion*stat.Mean(cohesion, nil) +
		qualityWeightBudget*stat.Mean(budget, nil)
	if agentTicks > 0 {
		overlap = overlaps / agentTicks
	}
	return clamp01(quality), overlap
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
