package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/fsnotify/fsnotify"
)

var (
	// ErrUnsupportedFormat means the file extension has no backend.
	ErrUnsupportedFormat = errors.New("loader: unsupported model format")

	// ErrMalformedAsset means the file could be read but not decoded into a skeleton and clips.
	ErrMalformedAsset = errors.New("loader: malformed asset")
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]model.Asset

	backend loaderBackend

	// workers bounds the pool used by LoadAll.
	workers int

	// debounce coalesces bursts of file events in Watch.
	debounce time.Duration

	logger *slog.Logger
}

// Loader loads skinned assets and caches them by path (or by name for streams).
// It is safe for concurrent use.
type Loader interface {
	// Load imports an asset file and caches the result. A cached asset is returned as-is.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Asset: the loaded asset
	//   - error: wraps ErrUnsupportedFormat or ErrMalformedAsset
	Load(path string) (model.Asset, error)

	// Reload imports an asset file again, replacing any cached copy.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Asset: the freshly loaded asset
	//   - error: wraps ErrUnsupportedFormat or ErrMalformedAsset; the cache is untouched on error
	Reload(path string) (model.Asset, error)

	// LoadReader imports an asset from a stream and caches it under name.
	//
	// Parameters:
	//   - name: the cache key and asset name
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - model.Asset: the loaded asset
	//   - error: wraps ErrMalformedAsset
	LoadReader(name string, r io.Reader, isGLB bool) (model.Asset, error)

	// LoadAll imports several files in parallel on a worker pool.
	//
	// Parameters:
	//   - paths: the files to load
	//
	// Returns:
	//   - []model.Asset: the assets in the order of paths, nil where loading failed
	//   - error: every failure joined with errors.Join, nil if all succeeded
	LoadAll(paths []string) ([]model.Asset, error)

	// Watch reloads path whenever it is written or re-created and reports each result to onChange.
	// It blocks until ctx is cancelled.
	//
	// Parameters:
	//   - ctx: cancels the watch
	//   - path: the file to watch
	//   - onChange: receives the reloaded asset, or the reload error
	//
	// Returns:
	//   - error: error if the watcher cannot be set up; nil after ctx is cancelled
	Watch(ctx context.Context, path string, onChange func(model.Asset, error)) error

	// Get retrieves a cached asset by key. Returns nil if not found.
	Get(name string) model.Asset

	// Evict drops a cached asset.
	Evict(name string)

	// Assets returns a copy of the cache keyed by path or name.
	Assets() map[string]model.Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the new loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		assetCache: make(map[string]model.Asset),
		workers:    runtime.NumCPU(),
		debounce:   100 * time.Millisecond,
		logger:     slog.Default(),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Asset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}
	return l.Reload(path)
}

func (l *loader) Reload(path string) (model.Asset, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	a, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedAsset, path, err)
	}

	l.mu.Lock()
	l.assetCache[path] = a
	l.mu.Unlock()

	l.logger.Info("asset loaded", "path", path, "clips", a.AnimationCount(), "elapsed", time.Since(start))
	return a, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (model.Asset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	a, err := l.backend.LoadReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformedAsset, name, err)
	}

	l.mu.Lock()
	l.assetCache[name] = a
	l.mu.Unlock()
	return a, nil
}

func (l *loader) LoadAll(paths []string) ([]model.Asset, error) {
	assets := make([]model.Asset, len(paths))
	errs := make([]error, len(paths))
	if len(paths) == 0 {
		return assets, nil
	}

	pool := worker.NewDynamicWorkerPool(min(l.workers, len(paths)), len(paths), 1*time.Second)
	defer pool.Stop()

	// The pool's own Wait blocks until workers idle out, so a WaitGroup is the barrier.
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: p,
			Do: func() (any, error) {
				defer wg.Done()
				assets[idx], errs[idx] = l.Load(p)
				return assets[idx], errs[idx]
			},
		})
	}
	wg.Wait()

	return assets, errors.Join(errs...)
}

func (l *loader) Watch(ctx context.Context, path string, onChange func(model.Asset, error)) error {
	if _, err := l.resolveBackend(path); err != nil {
		return err
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file rather than write it in place.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(l.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(l.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watch error", "path", path, "error", err)
		case <-timer.C:
			a, err := l.Reload(path)
			if err != nil {
				l.logger.Warn("reload failed", "path", path, "error", err)
			}
			onChange(a, err)
		}
	}
}

func (l *loader) Get(name string) model.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.assetCache, name)
}

func (l *loader) Assets() map[string]model.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

// resolveBackend checks that the file extension is one the backend reads.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	if l.backend == nil {
		return nil, fmt.Errorf("%w: no backend configured", ErrUnsupportedFormat)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(l.backend.Extensions(), ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return l.backend, nil
}
