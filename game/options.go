package game

// Options configures a Game beyond the simulation config.
type Options struct {
	Seed           int64  // RNG seed; identical seeds give identical runs
	RunID          string // attached to logs and telemetry (empty = generate)
	LogStats       bool   // log each stats window via slog
	OutputDir      string // CSV output directory (empty = disabled)
	StatsWindowSec float64
	StepsPerUpdate int  // ticks per Update call
	Headless       bool // no raylib; the clock starts unpaused
}
