package keyframe

import "log/slog"

// PatcherBuilderOption is a functional option for configuring a Patcher via NewPatcher.
type PatcherBuilderOption func(*patcher)

// WithLogger is an option builder that sets the logger used for duplicate-track warnings and patch traces.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - PatcherBuilderOption: a function that applies the logger option to a patcher
func WithLogger(logger *slog.Logger) PatcherBuilderOption {
	return func(p *patcher) {
		if logger != nil {
			p.logger = logger
		}
	}
}
