package store

import "log/slog"

// StoreBuilderOption is a functional option for configuring a Store via Open.
type StoreBuilderOption func(*store)

// WithLogger is an option builder that sets the logger for save traces.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - StoreBuilderOption: a function that applies the logger option to a store
func WithLogger(logger *slog.Logger) StoreBuilderOption {
	return func(s *store) {
		if logger != nil {
			s.logger = logger
		}
	}
}
