package playback

import (
	"log/slog"
	"time"
)

// PlayerBuilderOption is a functional option for configuring a Player via NewPlayer.
type PlayerBuilderOption func(*player)

// WithStep sets the clip time each tick advances.
//
// Parameters:
//   - step: seconds of clip time per tick, must be positive
//
// Returns:
//   - PlayerBuilderOption: a function that applies the step option to a player
func WithStep(step float32) PlayerBuilderOption {
	return func(p *player) {
		if step > 0 {
			p.step = step
		}
	}
}

// WithInterval sets the wall-clock period of the playback timer.
//
// Parameters:
//   - interval: the timer period, must be positive
//
// Returns:
//   - PlayerBuilderOption: a function that applies the interval option to a player
func WithInterval(interval time.Duration) PlayerBuilderOption {
	return func(p *player) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithDispatcher routes timer ticks through dispatch instead of calling Tick on the timer goroutine.
// The engine uses it to run ticks on its event loop. dispatch must not block indefinitely, since Stop
// waits for the timer goroutine.
//
// Parameters:
//   - dispatch: a function that runs or schedules the tick
//
// Returns:
//   - PlayerBuilderOption: a function that applies the dispatcher option to a player
func WithDispatcher(dispatch func(func())) PlayerBuilderOption {
	return func(p *player) {
		if dispatch != nil {
			p.dispatch = dispatch
		}
	}
}

// WithLogger sets the logger used for playback traces.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - PlayerBuilderOption: a function that applies the logger option to a player
func WithLogger(logger *slog.Logger) PlayerBuilderOption {
	return func(p *player) {
		if logger != nil {
			p.logger = logger
		}
	}
}
