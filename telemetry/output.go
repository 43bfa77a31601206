package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/critters/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir            string
	telemetryFile  *os.File
	populationFile *os.File
	perfFile       *os.File
	lifetimeFile   *os.File

	// Track if headers have been written
	telemetryHeaderWritten  bool
	populationHeaderWritten bool
	perfHeaderWritten       bool
	lifetimeHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  **os.File
	}{
		{"telemetry.csv", &om.telemetryFile},
		{"population.csv", &om.populationFile},
		{"perf.csv", &om.perfFile},
		{"lifetimes.csv", &om.lifetimeFile},
	}
	for _, out := range files {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		*out.dst = f
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.telemetryFile, []WindowStats{stats}, &om.telemetryHeaderWritten); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePopulation appends per-type rows to population.csv.
func (om *OutputManager) WritePopulation(pops []PopulationStats) error {
	if om == nil || len(pops) == 0 {
		return nil
	}
	if err := writeRecords(om.populationFile, pops, &om.populationHeaderWritten); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}
	return nil
}

// WritePerf appends a perf window record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStatsCSV) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.perfFile, []PerfStatsCSV{stats}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteLifetimes appends one row per finished creature to lifetimes.csv.
func (om *OutputManager) WriteLifetimes(records []LifetimeRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := writeRecords(om.lifetimeFile, records, &om.lifetimeHeaderWritten); err != nil {
		return fmt.Errorf("writing lifetimes: %w", err)
	}
	return nil
}

// writeRecords writes the CSV header only on the first call per file.
func writeRecords[T any](f *os.File, records []T, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
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
	for _, f := range []*os.File{om.telemetryFile, om.populationFile, om.perfFile, om.lifetimeFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
