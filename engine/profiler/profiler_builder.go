package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often Tick logs a summary.
//
// Parameters:
//   - interval: the summary period, must be positive
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogger sets the logger summaries are written to.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option to a profiler
func WithLogger(logger *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}
