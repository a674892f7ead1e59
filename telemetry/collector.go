package telemetry

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/steering"
)

// Collector accumulates steering reports within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	agentTicks  int
	saturated   int
	truncations int
	starved     map[steering.Behavior]int
	neighbors   int
	captures    int
	staleClears int
	overlaps    int
	forces      []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		starved:             make(map[steering.Behavior]int, len(steering.Priority)),
	}
}

// RecordSteering folds one agent's tick report into the window.
func (c *Collector) RecordSteering(r steering.Report) {
	c.agentTicks++
	c.neighbors += r.Neighbors
	c.forces = append(c.forces, r2.Norm(r.Raw))
	if r.Truncated != steering.NoBehavior {
		c.truncations++
	}
	if r.Exhausted() {
		c.saturated++
		for _, b := range steering.Priority {
			if r.Starved&b != 0 {
				c.starved[b]++
			}
		}
	}
	if r.StaleAgent {
		c.staleClears++
	}
}

// RecordCapture records a pursuer catching its target.
func (c *Collector) RecordCapture() {
	c.captures++
}

// RecordOverlap records an agent tick spent inside an obstacle.
func (c *Collector) RecordOverlap() {
	c.overlaps++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population is sampled by the caller at flush time.
type Population struct {
	Agents    int
	Obstacles int
	Speeds    []float64
	Headings  []r2.Vec // flocking agents only
}

// Polarization returns the length of the mean unit heading.
func Polarization(headings []r2.Vec) float64 {
	if len(headings) == 0 {
		return 0
	}
	var sum r2.Vec
	for _, h := range headings {
		sum = r2.Add(sum, geom.SafeUnit(h))
	}
	return r2.Norm(sum) / float64(len(headings))
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	forceMean, _, forceP50, forceP90 := Summary(c.forces)

	var speedMean, speedStd float64
	if len(pop.Speeds) > 0 {
		speedMean, speedStd = stat.PopMeanStdDev(pop.Speeds, nil)
	}

	var saturation, neighborsMean float64
	if c.agentTicks > 0 {
		saturation = float64(c.saturated) / float64(c.agentTicks)
		neighborsMean = float64(c.neighbors) / float64(c.agentTicks)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents:    pop.Agents,
		Obstacles: pop.Obstacles,

		ForceMean: forceMean,
		ForceP50:  forceP50,
		ForceP90:  forceP90,

		Saturation:  saturation,
		Truncations: c.truncations,

		StarvedAvoidance:     c.starved[steering.ObstacleAvoidance],
		StarvedSeek:          c.starved[steering.Seek],
		StarvedArrive:        c.starved[steering.Arrive],
		StarvedEvade:         c.starved[steering.Evade],
		StarvedOffsetPursuit: c.starved[steering.OffsetPursuit],
		StarvedSeparation:    c.starved[steering.Separation],
		StarvedCohesion:      c.starved[steering.Cohesion],
		StarvedAlignment:     c.starved[steering.Alignment],
		StarvedWander:        c.starved[steering.Wander],

		NeighborsMean: neighborsMean,

		SpeedMean:    speedMean,
		SpeedStd:     speedStd,
		Polarization: Polarization(pop.Headings),

		Captures:    c.captures,
		StaleClears: c.staleClears,
		Overlaps:    c.overlaps,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.agentTicks = 0
	c.saturated = 0
	c.truncations = 0
	clear(c.starved)
	c.neighbors = 0
	c.captures = 0
	c.staleClears = 0
	c.overlaps = 0
	c.forces = c.forces[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
