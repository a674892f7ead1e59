package telemetry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	values := []float64{4, 2, 8, 6}
	mean, std, p50, p90 := Summary(values)
	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(std-math.Sqrt(5)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(5))
	}
	if math.Abs(p50-5) > 1e-9 {
		t.Errorf("p50 = %v, want 5", p50)
	}
	if math.Abs(p90-7.4) > 1e-9 {
		t.Errorf("p90 = %v, want 7.4", p90)
	}

	if m, s, a, b := Summary(nil); m != 0 || s != 0 || a != 0 || b != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestPolarization(t *testing.T) {
	tests := []struct {
		name     string
		headings []r2.Vec
		want     float64
	}{
		{"none", nil, 0},
		{"aligned", []r2.Vec{{X: 1}, {X: 3}, {X: 0.5}}, 1},
		{"opposed", []r2.Vec{{X: 1}, {X: -1}}, 0},
		{"right angle", []r2.Vec{{X: 1}, {Y: 1}}, math.Sqrt2 / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Polarization(tt.headings); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("window ticks = %d, want 10", c.WindowDurationTicks())
	}

	c.RecordSteering(steering.Report{Neighbors: 4, Raw: r2.Vec{X: 3, Y: 4}})
	c.RecordSteering(steering.Report{
		Neighbors:  2,
		Raw:        r2.Vec{X: 10},
		Truncated:  steering.Separation,
		Starved:    steering.Alignment | steering.Wander,
		StaleAgent: true,
	})
	c.RecordCapture()
	c.RecordOverlap()

	if c.ShouldFlush(5) {
		t.Error("ShouldFlush(5) = true before window end")
	}
	if !c.ShouldFlush(10) {
		t.Error("ShouldFlush(10) = false at window end")
	}

	s := c.Flush(10, Population{Agents: 2, Speeds: []float64{1, 3}, Headings: []r2.Vec{{X: 1}, {X: 2}}})
	if s.SimTimeSec != 1.0 {
		t.Errorf("sim_time = %f, want 1", s.SimTimeSec)
	}
	if s.ForceMean != 7.5 {
		t.Errorf("force_mean = %f, want 7.5", s.ForceMean)
	}
	if s.Saturation != 0.5 {
		t.Errorf("saturation = %f, want 0.5", s.Saturation)
	}
	if s.Truncations != 1 || s.StarvedWander != 1 || s.StarvedAlignment != 1 || s.StarvedSeek != 0 {
		t.Errorf("budget counters: %+v", s)
	}
	if s.NeighborsMean != 3 {
		t.Errorf("neighbors_mean = %f, want 3", s.NeighborsMean)
	}
	if s.SpeedMean != 2 || s.SpeedStd != 1 {
		t.Errorf("speed = %f±%f, want 2±1", s.SpeedMean, s.SpeedStd)
	}
	if s.Polarization != 1 {
		t.Errorf("polarization = %f, want 1", s.Polarization)
	}
	if s.Captures != 1 || s.StaleClears != 1 || s.Overlaps != 1 {
		t.Errorf("events: captures=%d stale=%d overlaps=%d", s.Captures, s.StaleClears, s.Overlaps)
	}

	// counters reset for the next window
	next := c.Flush(20, Population{})
	if next.WindowStartTick != 10 || next.Captures != 0 || next.ForceMean != 0 || next.StarvedWander != 0 {
		t.Errorf("window not reset: %+v", next)
	}
}
