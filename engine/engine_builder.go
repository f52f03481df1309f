package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/config"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/gizmo"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/loader"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/playback"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/renderer"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/session"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the periodic profiler summary. Counters are kept either way.
//
// Parameters:
//   - enabled: if true, the render loop ticks the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the engine's profiler.
//
// Parameters:
//   - p: the profiler to count events with
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the window the engine takes keyboard input from and renders into.
// Without one the engine runs headless and input arrives through KeyDown/KeyUp.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer drawn each window iteration.
//
// Parameters:
//   - r: a renderer bound to the engine's window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithLoader sets the loader Open and Watch read assets with.
//
// Parameters:
//   - l: the asset loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithStore sets the snapshot store accepted edits are saved to. The engine does not close it.
//
// Parameters:
//   - s: the clip store
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStore(s store.Store) EngineBuilderOption {
	return func(e *engine) {
		e.store = s
	}
}

// WithLogger sets the logger shared by the engine and the components it builds.
//
// Parameters:
//   - logger: the structured logger; nil keeps slog.Default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithQueueSize sets the event loop queue capacity.
//
// Parameters:
//   - size: pending handler capacity, must be positive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithQueueSize(size int) EngineBuilderOption {
	return func(e *engine) {
		if size > 0 {
			e.events = make(chan func(), size)
		}
	}
}

// WithNudge sets the increments the arrow and page keys move an attached bone by.
//
// Parameters:
//   - translate: distance per press in translate mode
//   - rotateDegrees: angle per press in rotate mode
//   - scale: factor offset per press in scale mode
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithNudge(translate, rotateDegrees, scale float32) EngineBuilderOption {
	return func(e *engine) {
		if translate > 0 {
			e.translateStep = translate
		}
		if rotateDegrees > 0 {
			e.rotateStep = rotateDegrees
		}
		if scale > 0 {
			e.scaleStep = scale
		}
	}
}

// WithAutoplay starts playback each time an asset is installed.
//
// Parameters:
//   - enabled: true to play on load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAutoplay(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.autoplay = enabled
	}
}

// WithSessionOptions passes options to the engine's edit session.
func WithSessionOptions(options ...session.SessionBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.sessionOptions = append(e.sessionOptions, options...)
	}
}

// WithGizmoOptions passes options to the engine's gizmo.
func WithGizmoOptions(options ...gizmo.GizmoBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.gizmoOptions = append(e.gizmoOptions, options...)
	}
}

// WithPlayerOptions passes options to the engine's playback player.
func WithPlayerOptions(options ...playback.PlayerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.playerOptions = append(e.playerOptions, options...)
	}
}

// WithConfig applies the session, playback, gizmo and window title settings of a loaded configuration.
//
// Parameters:
//   - cfg: a validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.titlePrefix = common.Coalesce(cfg.Window.Title, e.titlePrefix)
		e.autoplay = cfg.Playback.Autoplay
		e.sessionOptions = append(e.sessionOptions,
			session.WithFrameIndex(cfg.Session.FrameIndex),
			session.WithClipIndex(cfg.Session.ClipIndex),
		)
		e.playerOptions = append(e.playerOptions,
			playback.WithStep(cfg.Playback.Step),
			playback.WithInterval(cfg.Playback.Interval()),
		)
		e.gizmoOptions = append(e.gizmoOptions,
			gizmo.WithSize(cfg.Gizmo.Size),
			gizmo.WithTranslationSnap(cfg.Gizmo.TranslationSnap),
			gizmo.WithRotationSnap(cfg.Gizmo.RotationSnap),
		)
	}
}
