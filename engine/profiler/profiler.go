package profiler

import (
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"
)

// Profiler tracks the viewer's frame rate, memory statistics and named event counters
// (edits applied, edits dropped, playback ticks). It logs a summary at a fixed interval.
// Tick and Count may be called from different goroutines.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	// counters accumulate until the next summary; totals never reset.
	counters map[string]int
	totals   map[string]int

	logger *slog.Logger
	now    func() time.Time
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		counters:       make(map[string]int),
		totals:         make(map[string]int),
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Count records one occurrence of a named event.
//
// Parameters:
//   - name: the event name, e.g. "edit.applied"
func (p *Profiler) Count(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters[name]++
	p.totals[name]++
}

// Totals returns a copy of every counter's value since the profiler was created.
//
// Returns:
//   - map[string]int: event name to count
func (p *Profiler) Totals() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.totals)
}

// Tick should be called once per rendered frame.
// When the update interval has elapsed it logs FPS, heap usage, allocation rate, GC pauses and the
// event counters seen since the previous summary.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		"fps", fps,
		"heap_mb", float64(p.memStats.Alloc) / 1024 / 1024,
		"alloc_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
	}
	for _, name := range slices.Sorted(maps.Keys(p.counters)) {
		attrs = append(attrs, name, p.counters[name])
	}
	p.logger.Info("profile", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.counters)
	return true
}
