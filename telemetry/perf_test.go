package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialIndex)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseSteering)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseSpatialIndex] <= 0 {
		t.Error("expected spatial_index phase to be tracked")
	}
	if stats.PhaseAvg[PhaseSteering] <= stats.PhaseAvg[PhaseSpatialIndex] {
		t.Errorf("steering %v should exceed spatial_index %v",
			stats.PhaseAvg[PhaseSteering], stats.PhaseAvg[PhaseSpatialIndex])
	}
	if stats.PhasePct[PhaseSteering] <= stats.PhasePct[PhaseSpatialIndex] {
		t.Errorf("steering_pct %v should exceed spatial_index_pct %v",
			stats.PhasePct[PhaseSteering], stats.PhasePct[PhaseSpatialIndex])
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSteering)
		pc.SetWorkload(100+i, 1)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
	// only ticks 5..9 remain: agents 105..109
	if stats.AvgAgents != 107 {
		t.Errorf("avg agents: got %v, want 107", stats.AvgAgents)
	}
}

func TestPerfCollector_SteeringWorkload(t *testing.T) {
	pc := NewPerfCollector(10)

	workers := []int{1, 4}
	for _, w := range workers {
		pc.StartTick()
		pc.StartPhase(PhaseSteering)
		time.Sleep(time.Millisecond)
		pc.SetWorkload(200, w)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgAgents != 200 {
		t.Errorf("avg agents: got %v, want 200", stats.AvgAgents)
	}
	if stats.AvgWorkers != 2.5 {
		t.Errorf("avg workers: got %v, want 2.5", stats.AvgWorkers)
	}
	// at least 1ms of steering spread over 200 agents
	if stats.SteeringPerAgent < 5*time.Microsecond {
		t.Errorf("steering per agent: got %v, want >= 5µs", stats.SteeringPerAgent)
	}
	if stats.SteeringP90 < time.Millisecond {
		t.Errorf("steering p90: got %v, want >= 1ms", stats.SteeringP90)
	}
}

func TestPerfCollector_UnknownPhaseIgnored(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.StartTick()
	pc.StartPhase("render")
	time.Sleep(100 * time.Microsecond)
	pc.EndTick()

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("tick total should include unknown phases")
	}
	for _, phase := range Phases {
		if stats.PhaseAvg[phase] != 0 {
			t.Errorf("%s: got %v, want 0", phase, stats.PhaseAvg[phase])
		}
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 || stats.SteeringPerAgent != 0 {
		t.Error("expected zero durations for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}

func TestPerfCollector_TickQuantiles(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 10; i++ {
		pc.StartTick()
		if i == 9 {
			time.Sleep(3 * time.Millisecond)
		}
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.MaxTickDuration < 3*time.Millisecond {
		t.Errorf("max: got %v, want >= 3ms", stats.MaxTickDuration)
	}
	if stats.P90TickDuration > stats.MaxTickDuration {
		t.Errorf("p90 %v exceeds max %v", stats.P90TickDuration, stats.MaxTickDuration)
	}
	if stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("avg %v exceeds max %v", stats.AvgTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration:  1500 * time.Microsecond,
		PhasePct:         map[string]float64{PhaseSteering: 62.5, PhaseSpatialIndex: 12},
		SteeringPerAgent: 750 * time.Nanosecond,
		AvgWorkers:       4,
	}
	row := s.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 1500 {
		t.Errorf("got window_end=%d avg_tick_us=%d, want 600 and 1500", row.WindowEnd, row.AvgTickUS)
	}
	if row.SteeringPct != 62.5 || row.SpatialIndexPct != 12 {
		t.Errorf("got steering_pct=%f spatial_index_pct=%f", row.SteeringPct, row.SpatialIndexPct)
	}
	if row.SteerNSPerAgent != 750 || row.Workers != 4 {
		t.Errorf("got steer_ns_per_agent=%d workers=%v, want 750 and 4", row.SteerNSPerAgent, row.Workers)
	}
}
