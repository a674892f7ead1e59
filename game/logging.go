package game

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logPerfStats logs the phase breakdown as a table.
func (g *Game) logPerfStats(stats telemetry.PerfStats) {
	Logf("=== Perf @ Tick %d (speed %dx) | %.0f ticks/s ===", g.tick, g.stepsPerUpdate, stats.TicksPerSecond)
	Logf("Avg tick: %s (p90 %s, max %s)",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.P90TickDuration.Round(time.Microsecond),
		stats.MaxTickDuration.Round(time.Microsecond))
	Logf("Steering: %s/agent over %.0f agents on %.1f workers (p90 %s)",
		stats.SteeringPerAgent, stats.AvgAgents, stats.AvgWorkers,
		stats.SteeringP90.Round(time.Microsecond))

	for _, name := range telemetry.Phases {
		Logf("  %-14s %10s  %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), stats.PhasePct[name])
	}
	Logf("")
}

// archetypeSummary accumulates one archetype's line in logWorldState.
type archetypeSummary struct {
	count     int
	speed     float64
	neighbors int
	starved   int
	truncated int
	stale     int
	captures  int
}

// logWorldState logs per-archetype counts and how the agents spent their budgets.
func (g *Game) logWorldState() {
	summaries := make([]archetypeSummary, len(g.cfg.Archetypes))

	query := g.agentFilter.Query()
	for query.Next() {
		_, vel, _, _, _, agent, st := query.Get()
		s := &summaries[agent.Archetype]
		rep := st.Report()
		s.count++
		s.speed += r2.Norm(vel.Vec())
		s.neighbors += rep.Neighbors
		s.captures += agent.Captures
		if rep.Exhausted() {
			s.starved++
		}
		if rep.Truncated != 0 {
			s.truncated++
		}
		if rep.StaleAgent {
			s.stale++
		}
	}

	Logf("=== Tick %d === obstacles: %d | captures: %d", g.tick, g.numObstacles, g.captures)
	for i, s := range summaries {
		if g.cfg.Archetypes[i].IsObstacle() {
			continue
		}
		if s.count == 0 {
			Logf("  %-10s none", g.cfg.Archetypes[i].Name)
			continue
		}
		n := float64(s.count)
		Logf("  %-10s n=%d speed=%.1f neighbors=%.1f starved=%d truncated=%d stale=%d captures=%d",
			g.cfg.Archetypes[i].Name, s.count, s.speed/n, float64(s.neighbors)/n,
			s.starved, s.truncated, s.stale, s.captures)
	}
	Logf("")
}
