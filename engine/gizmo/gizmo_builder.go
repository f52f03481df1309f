package gizmo

import "log/slog"

// GizmoBuilderOption is a functional option for configuring a Gizmo via NewGizmo.
type GizmoBuilderOption func(*gizmo)

// WithMode sets the initial mode. Invalid modes are ignored.
//
// Parameters:
//   - mode: ModeTranslate, ModeRotate or ModeScale
//
// Returns:
//   - GizmoBuilderOption: a function that applies the mode option to a gizmo
func WithMode(mode Mode) GizmoBuilderOption {
	return func(g *gizmo) {
		if mode.Valid() {
			g.mode = mode
		}
	}
}

// WithSpace sets the initial transform space.
//
// Parameters:
//   - space: SpaceLocal or SpaceWorld
//
// Returns:
//   - GizmoBuilderOption: a function that applies the space option to a gizmo
func WithSpace(space Space) GizmoBuilderOption {
	return func(g *gizmo) {
		g.space = space
	}
}

// WithSize sets the initial handle size, clamped to [MinSize, MaxSize].
//
// Parameters:
//   - size: the handle size
//
// Returns:
//   - GizmoBuilderOption: a function that applies the size option to a gizmo
func WithSize(size float32) GizmoBuilderOption {
	return func(g *gizmo) {
		g.SetSize(size)
	}
}

// WithTranslationSnap sets the translation snapping increment in scene units.
//
// Parameters:
//   - step: the increment, must be positive
//
// Returns:
//   - GizmoBuilderOption: a function that applies the snap option to a gizmo
func WithTranslationSnap(step float32) GizmoBuilderOption {
	return func(g *gizmo) {
		if step > 0 {
			g.translationSnap = step
		}
	}
}

// WithRotationSnap sets the rotation snapping increment in degrees.
//
// Parameters:
//   - degrees: the increment, must be positive
//
// Returns:
//   - GizmoBuilderOption: a function that applies the snap option to a gizmo
func WithRotationSnap(degrees float32) GizmoBuilderOption {
	return func(g *gizmo) {
		if degrees > 0 {
			g.rotationSnap = degrees
		}
	}
}

// WithLogger sets the logger used for drag traces.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - GizmoBuilderOption: a function that applies the logger option to a gizmo
func WithLogger(logger *slog.Logger) GizmoBuilderOption {
	return func(g *gizmo) {
		if logger != nil {
			g.logger = logger
		}
	}
}
