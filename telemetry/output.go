package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/shoal/config"
)

// csvStream is an append-only CSV file whose header is written with the first row.
type csvStream struct {
	name          string
	file          *os.File
	headerWritten bool
}

func openStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{name: name, file: f}, nil
}

func appendRows[T any](s *csvStream, records []T) error {
	if s == nil || len(records) == 0 {
		return nil
	}
	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
		s.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

func (s *csvStream) close() error {
	if s == nil {
		return nil
	}
	return s.file.Close()
}

// TraceRow is one agent's steering outcome on one tick.
type TraceRow struct {
	Tick      int32   `csv:"tick"`
	ID        uint32  `csv:"id"`
	Archetype string  `csv:"archetype"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	RawX      float64 `csv:"raw_x"`
	RawY      float64 `csv:"raw_y"`
	ForceX    float64 `csv:"force_x"`
	ForceY    float64 `csv:"force_y"`
	Evaluated string  `csv:"evaluated"`
	Truncated string  `csv:"truncated"`
	Starved   string  `csv:"starved"`
	Neighbors int     `csv:"neighbors"`
}

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir       string
	telemetry *csvStream
	perf      *csvStream
	trace     *csvStream // nil unless tracing was requested
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string, trace bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.telemetry, err = openStream(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = openStream(dir, "perf.csv"); err != nil {
		om.telemetry.close()
		return nil, err
	}
	if trace {
		if om.trace, err = openStream(dir, "trace.csv"); err != nil {
			om.telemetry.close()
			om.perf.close()
			return nil, err
		}
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return appendRows(om.telemetry, []WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return appendRows(om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// Tracing reports whether per-tick trace rows are wanted.
func (om *OutputManager) Tracing() bool {
	return om != nil && om.trace != nil
}

// WriteTrace appends per-agent rows to trace.csv.
func (om *OutputManager) WriteTrace(rows []TraceRow) error {
	if !om.Tracing() {
		return nil
	}
	return appendRows(om.trace, rows)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, s := range []*csvStream{om.telemetry, om.perf, om.trace} {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
