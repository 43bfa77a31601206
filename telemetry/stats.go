package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Creatures int `csv:"creatures"`

	// Events during window
	Collisions   int     `csv:"collisions"`
	Attacks      int     `csv:"attacks"`
	Hits         int     `csv:"hits"`
	Kills        int     `csv:"kills"`
	Starvations  int     `csv:"starvations"`
	HealthDeaths int     `csv:"health_deaths"`
	Spawns       int     `csv:"spawns"`
	Respawns     int     `csv:"respawns"`
	HitRate      float64 `csv:"hit_rate"`

	// World state hash at window end, for determinism checks
	Digest uint64 `csv:"digest"`
}

// PopulationStats summarizes one creature type at window end.
type PopulationStats struct {
	WindowEndTick int64   `csv:"window_end"`
	CreatureType  string  `csv:"creature"`
	Count         int     `csv:"count"`
	HealthMean    float64 `csv:"health_mean"`
	HealthStd     float64 `csv:"health_std"`
	HealthP10     float64 `csv:"health_p10"`
	HealthP50     float64 `csv:"health_p50"`
	HealthP90     float64 `csv:"health_p90"`
	FullnessMean  float64 `csv:"fullness_mean"`
}

// Summarize returns mean, population standard deviation and the 10th, 50th
// and 90th percentiles. Returns zeros for an empty slice.
func Summarize(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("creatures", s.Creatures),
		slog.Int("collisions", s.Collisions),
		slog.Int("attacks", s.Attacks),
		slog.Int("hits", s.Hits),
		slog.Int("kills", s.Kills),
		slog.Int("starvations", s.Starvations),
		slog.Int("health_deaths", s.HealthDeaths),
		slog.Int("spawns", s.Spawns),
		slog.Int("respawns", s.Respawns),
		slog.Float64("hit_rate", s.HitRate),
		slog.Uint64("digest", s.Digest),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (p PopulationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("creature", p.CreatureType),
		slog.Int("count", p.Count),
		slog.Float64("health_mean", p.HealthMean),
		slog.Float64("health_p50", p.HealthP50),
		slog.Float64("fullness_mean", p.FullnessMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats(pops []PopulationStats) {
	args := []any{"window", s}
	for _, p := range pops {
		args = append(args, p.CreatureType, p)
	}
	slog.Info("stats", args...)
}
