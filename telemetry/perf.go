package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for the simulation step.
const (
	PhaseSnapshot     = "snapshot"
	PhaseSpatialIndex = "spatial_index"
	PhaseSteering     = "steering"
	PhaseIntegrate    = "integrate"
	PhaseLifecycle    = "lifecycle"
	PhaseTelemetry    = "telemetry"
)

const numPhases = 6

// Phases lists the phases in tick order.
var Phases = []string{
	PhaseSnapshot, PhaseSpatialIndex, PhaseSteering,
	PhaseIntegrate, PhaseLifecycle, PhaseTelemetry,
}

// phaseSlot maps a phase name to its position in Phases, or -1.
func phaseSlot(name string) int {
	for i, p := range Phases {
		if p == name {
			return i
		}
	}
	return -1
}

// tickSample is one tick's timings plus the steering workload it carried.
type tickSample struct {
	total   time.Duration
	phases  [numPhases]time.Duration
	agents  int
	workers int
}

// PerfCollector keeps a ring of recent tick samples. Phase timing is split at
// StartPhase boundaries; SetWorkload attaches the steering agent and worker counts.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int
	inPhase    bool

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks (60 if < 1).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]tickSample, windowSize)}
}

// StartTick begins a new sample.
func (p *PerfCollector) StartTick() {
	p.cur = tickSample{}
	p.tickStart = time.Now()
	p.inPhase = false
}

// StartPhase closes the running phase and opens the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phaseSlot(name)
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if !p.inPhase {
		return
	}
	// unknown phase names still count toward the tick total
	if p.phase >= 0 {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// SetWorkload records how many agents were steered this tick and on how many workers.
func (p *PerfCollector) SetWorkload(agents, workers int) {
	p.cur.agents = agents
	p.cur.workers = workers
}

// EndTick closes the last phase and stores the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame records the time since the previous rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	P90TickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average tick

	// Steering cost per agent, and the p90 of the steering phase alone.
	SteeringPerAgent time.Duration
	SteeringP90      time.Duration
	AvgAgents        float64
	AvgWorkers       float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, len(Phases)),
		PhasePct:      make(map[string]float64, len(Phases)),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return s
	}

	ticks := make([]float64, p.count)
	steer := make([]float64, p.count)
	agents := make([]float64, p.count)
	workers := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	for i := 0; i < p.count; i++ {
		smp := &p.ring[i]
		ticks[i] = float64(smp.total)
		steer[i] = float64(smp.phases[phaseSlot(PhaseSteering)])
		agents[i] = float64(smp.agents)
		workers[i] = float64(smp.workers)
		for j, d := range smp.phases {
			phaseSum[j] += d
		}
	}

	s.AvgTickDuration = time.Duration(stat.Mean(ticks, nil))
	s.AvgAgents = stat.Mean(agents, nil)
	s.AvgWorkers = stat.Mean(workers, nil)

	sort.Float64s(ticks)
	s.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	s.P90TickDuration = time.Duration(stat.Quantile(0.9, stat.Empirical, ticks, nil))
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}

	for j, name := range Phases {
		avg := phaseSum[j] / time.Duration(p.count)
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}

	steerMean := stat.Mean(steer, nil)
	if s.AvgAgents > 0 {
		s.SteeringPerAgent = time.Duration(steerMean / s.AvgAgents)
	}
	sort.Float64s(steer)
	s.SteeringP90 = time.Duration(stat.Quantile(0.9, stat.Empirical, steer, nil))
	return s
}

// LogStats logs the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p90_tick_us", s.P90TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Int64("steer_ns_per_agent", s.SteeringPerAgent.Nanoseconds()),
		slog.Float64("workers", s.AvgWorkers),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	P90TickUS       int64   `csv:"p90_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	Agents          float64 `csv:"agents"`
	Workers         float64 `csv:"workers"`
	SteerNSPerAgent int64   `csv:"steer_ns_per_agent"`
	SteerP90US      int64   `csv:"steer_p90_us"`
	SnapshotPct     float64 `csv:"snapshot_pct"`
	SpatialIndexPct float64 `csv:"spatial_index_pct"`
	SteeringPct     float64 `csv:"steering_pct"`
	IntegratePct    float64 `csv:"integrate_pct"`
	LifecyclePct    float64 `csv:"lifecycle_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for perf.csv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		P90TickUS:       s.P90TickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		FPS:             s.FPS,
		Agents:          s.AvgAgents,
		Workers:         s.AvgWorkers,
		SteerNSPerAgent: s.SteeringPerAgent.Nanoseconds(),
		SteerP90US:      s.SteeringP90.Microseconds(),
		SnapshotPct:     s.PhasePct[PhaseSnapshot],
		SpatialIndexPct: s.PhasePct[PhaseSpatialIndex],
		SteeringPct:     s.PhasePct[PhaseSteering],
		IntegratePct:    s.PhasePct[PhaseIntegrate],
		LifecyclePct:    s.PhasePct[PhaseLifecycle],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
