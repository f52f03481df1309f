package loader

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithAsset is an option builder that pre-populates the asset cache.
//
// Parameters:
//   - key: the cache key for the asset
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, asset model.Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = asset
	}
}

// WithWorkers is an option builder that bounds the worker pool used by LoadAll.
//
// Parameters:
//   - n: the maximum number of concurrent imports, must be positive
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithDebounce is an option builder that sets how long Watch waits for file events to settle
// before reloading.
//
// Parameters:
//   - d: the quiet period, must be positive
//
// Returns:
//   - LoaderBuilderOption: a function that applies the debounce option to a loader
func WithDebounce(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// WithLogger is an option builder that sets the logger for load and watch traces.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
