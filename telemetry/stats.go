package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated steering statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents    int `csv:"agents"`
	Obstacles int `csv:"obstacles"`

	// Raw steering force magnitude over every agent tick in the window
	ForceMean float64 `csv:"force_mean"`
	ForceP50  float64 `csv:"force_p50"`
	ForceP90  float64 `csv:"force_p90"`

	// Budget usage
	Saturation  float64 `csv:"saturation"`  // fraction of agent ticks that starved a behavior
	Truncations int     `csv:"truncations"` // adds scaled down to fit the budget

	// Starvation by behavior
	StarvedAvoidance     int `csv:"starved_obstacle_avoidance"`
	StarvedSeek          int `csv:"starved_seek"`
	StarvedArrive        int `csv:"starved_arrive"`
	StarvedEvade         int `csv:"starved_evade"`
	StarvedOffsetPursuit int `csv:"starved_offset_pursuit"`
	StarvedSeparation    int `csv:"starved_separation"`
	StarvedCohesion      int `csv:"starved_cohesion"`
	StarvedAlignment     int `csv:"starved_alignment"`
	StarvedWander        int `csv:"starved_wander"`

	NeighborsMean float64 `csv:"neighbors_mean"`

	// Motion sampled at window end
	SpeedMean    float64 `csv:"speed_mean"`
	SpeedStd     float64 `csv:"speed_std"`
	Polarization float64 `csv:"polarization"` // |mean unit heading| of flocking agents, 1 = aligned

	// Events during window
	Captures    int `csv:"captures"`
	StaleClears int `csv:"stale_clears"`
	Overlaps    int `csv:"overlaps"` // agent ticks spent intersecting an obstacle
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summary calculates mean, population std, p50 and p90. values is sorted in place.
func Summary(values []float64) (mean, std, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)
	sort.Float64s(values)
	return mean, std, Percentile(values, 0.5), Percentile(values, 0.9)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("obstacles", s.Obstacles),
		slog.Float64("force_mean", s.ForceMean),
		slog.Float64("force_p50", s.ForceP50),
		slog.Float64("force_p90", s.ForceP90),
		slog.Float64("saturation", s.Saturation),
		slog.Int("truncations", s.Truncations),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("polarization", s.Polarization),
		slog.Int("captures", s.Captures),
		slog.Int("stale_clears", s.StaleClears),
		slog.Int("overlaps", s.Overlaps),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"force_mean", s.ForceMean,
		"force_p90", s.ForceP90,
		"saturation", s.Saturation,
		"truncations", s.Truncations,
		"starved_wander", s.StarvedWander,
		"starved_alignment", s.StarvedAlignment,
		"neighbors_mean", s.NeighborsMean,
		"speed_mean", s.SpeedMean,
		"polarization", s.Polarization,
		"captures", s.Captures,
		"stale_clears", s.StaleClears,
		"overlaps", s.Overlaps,
	)
}
