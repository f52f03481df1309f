package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/gizmo"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/loader"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/playback"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/renderer"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/session"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrStopped is returned when posting to an engine that has quit.
	ErrStopped = errors.New("engine: stopped")

	// ErrNoLoader is returned by Open and Watch when the engine has no loader.
	ErrNoLoader = errors.New("engine: no loader configured")

	errHandlerPanicked = errors.New("engine: handler panicked")
)

// Profiler counter names.
const (
	counterEditApplied  = "edit.applied"
	counterEditDropped  = "edit.dropped"
	counterTick         = "playback.tick"
	counterTickDropped  = "playback.tick_dropped"
	counterSnapshotSave = "store.saved"
)

// engine implements the Engine interface.
type engine struct {
	// events is the single event loop queue. Every handler that touches the session, gizmo, player or
	// skeleton runs from it, one at a time.
	events chan func()
	wg     sync.WaitGroup

	ctx      context.Context
	cancel   context.CancelFunc
	quitOnce sync.Once
	started  atomic.Bool

	window   window.Window
	renderer renderer.Renderer
	loader   loader.Loader
	store    store.Store
	logger   *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	session session.Session
	gizmo   gizmo.Gizmo
	player  playback.Player

	sessionOptions []session.SessionBuilderOption
	gizmoOptions   []gizmo.GizmoBuilderOption
	playerOptions  []playback.PlayerBuilderOption

	// Nudge increments for the arrow and page keys.
	translateStep float32
	rotateStep    float32 // degrees
	scaleStep     float32

	// boneIndex is the skeleton index Tab last attached, -1 before the first Tab.
	boneIndex int

	// loading suppresses snapshot saves while Load seeds the session.
	loading bool

	// autoplay starts playback whenever an asset is installed.
	autoplay bool

	title       atomic.Value // string
	titlePrefix string
	shownTitle  string // main thread only
}

// Engine is the viewer's composition root. It owns an edit session, a gizmo reporting to it and a
// playback player guarded by it, and runs every handler on one event loop goroutine: keyboard input,
// playback ticks and asset reloads never interleave.
type Engine interface {
	// Start launches the event loop. Calling Start again is a no-op.
	Start()

	// Run starts the event loop and drives the window's message loop on the calling goroutine,
	// rendering a frame per iteration. It blocks until the window closes, then quits.
	//
	// Returns:
	//   - error: error if the engine has no window
	Run() error

	// Quit stops playback, the event loop and every watcher, then waits for them. Safe to call multiple
	// times, but not from the event loop.
	Quit()

	// Post queues fn on the event loop, blocking while the queue is full.
	//
	// Parameters:
	//   - fn: the handler to run
	//
	// Returns:
	//   - error: ErrStopped if the engine has quit
	Post(fn func()) error

	// TryPost queues fn on the event loop without blocking.
	//
	// Parameters:
	//   - fn: the handler to run
	//
	// Returns:
	//   - bool: false if the queue is full or the engine has quit
	TryPost(fn func()) bool

	// Do runs fn on the event loop and waits for its result. It must not be called from the loop itself.
	//
	// Parameters:
	//   - fn: the handler to run
	//
	// Returns:
	//   - error: fn's error, or ErrStopped
	Do(fn func() error) error

	// Open loads an asset file with the loader and installs it.
	//
	// Parameters:
	//   - path: the glTF/GLB file
	//
	// Returns:
	//   - error: the load or install error
	Open(path string) error

	// Load installs an already loaded asset: the gizmo detaches, the session resets onto the asset's
	// configured clip, and playback retargets its skeleton.
	//
	// Parameters:
	//   - asset: the asset to edit
	//
	// Returns:
	//   - error: the session's Load error
	Load(asset model.Asset) error

	// Watch reloads path whenever it changes on disk and installs the result. It returns immediately;
	// the watch stops when ctx is cancelled or the engine quits.
	//
	// Parameters:
	//   - ctx: cancels the watch
	//   - path: the file to watch
	//
	// Returns:
	//   - error: ErrNoLoader
	Watch(ctx context.Context, path string) error

	// KeyDown queues a key press.
	KeyDown(keyCode uint32)

	// KeyUp queues a key release.
	KeyUp(keyCode uint32)

	// Session returns the edit session. Use it only from the event loop (see Do).
	Session() session.Session

	// Gizmo returns the gizmo. Use it only from the event loop.
	Gizmo() gizmo.Gizmo

	// Player returns the playback player.
	Player() playback.Player

	// Title returns the status line last computed by the event loop.
	Title() string

	// Profiler returns the profiler, which counts edits and ticks even while its output is disabled.
	Profiler() *profiler.Profiler
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options applied.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created, not yet started engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		events:        make(chan func(), 64),
		logger:        slog.Default(),
		translateStep: 1,
		rotateStep:    5,
		scaleStep:     0.1,
		boneIndex:     -1,
		titlePrefix:   "oxykey",
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	e.player = playback.NewPlayer(playback.NewStepMixer(nil),
		append([]playback.PlayerBuilderOption{
			playback.WithLogger(e.logger),
			playback.WithDispatcher(e.dispatchTick),
		}, e.playerOptions...)...,
	)
	e.session = session.NewSession(nil,
		append([]session.SessionBuilderOption{
			session.WithLogger(e.logger),
			session.WithPlaybackGuard(e.player),
			session.WithClipListener(e.onClip),
		}, e.sessionOptions...)...,
	)
	e.gizmo = gizmo.NewGizmo(e.session,
		append([]gizmo.GizmoBuilderOption{gizmo.WithLogger(e.logger)}, e.gizmoOptions...)...,
	)
	e.refreshTitle()

	if e.window != nil {
		e.window.SetKeyDownCallback(e.KeyDown)
		e.window.SetKeyUpCallback(e.KeyUp)
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Resize(width, height)
			}
		})
	}

	return e
}

func (e *engine) Start() {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	e.wg.Add(1)
	go e.loop()
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("engine: no window")
	}
	e.Start()
	defer e.shutdownWindow()

	e.window.SetUpdateCallback(e.renderFrame)
	e.window.ProcessMessages()
	e.Quit()
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.cancel()
		e.player.Stop()
	})
	e.wg.Wait()
}

// dispatchTick routes playback timer ticks onto the loop. A full queue drops the tick: the timer
// goroutine must never block, or Stop could wait on it forever.
func (e *engine) dispatchTick(tick func()) {
	ok := e.TryPost(func() {
		tick()
		e.profiler.Count(counterTick)
	})
	if !ok {
		e.profiler.Count(counterTickDropped)
	}
}

func (e *engine) Post(fn func()) error {
	if e.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case e.events <- fn:
		return nil
	case <-e.ctx.Done():
		return ErrStopped
	}
}

func (e *engine) TryPost(fn func()) bool {
	if e.ctx.Err() != nil {
		return false
	}
	select {
	case e.events <- fn:
		return true
	default:
		return false
	}
}

func (e *engine) Do(fn func() error) error {
	done := make(chan error, 1)
	err := e.Post(func() {
		err := errHandlerPanicked
		defer func() {
			e.refreshTitle()
			done <- err
		}()
		err = fn()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-e.ctx.Done():
		return ErrStopped
	}
}

// loop runs queued handlers until the engine quits.
func (e *engine) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case fn := <-e.events:
			e.handle(fn)
		}
	}
}

// handle runs one handler, keeping the loop alive if it panics.
func (e *engine) handle(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked", "panic", r)
		}
		e.refreshTitle()
	}()
	fn()
}

func (e *engine) Open(path string) error {
	if e.loader == nil {
		return ErrNoLoader
	}
	asset, err := e.loader.Load(path)
	if err != nil {
		return err
	}
	return e.Load(asset)
}

func (e *engine) Load(asset model.Asset) error {
	return e.Do(func() error { return e.install(asset) })
}

// install replaces the asset being edited. Runs on the loop.
func (e *engine) install(asset model.Asset) error {
	e.gizmo.Detach()
	e.boneIndex = -1

	e.loading = true
	err := e.session.Load(e.restoreClips(asset))
	e.loading = false
	if err != nil {
		e.player.SetSkeleton(nil)
		e.player.SetClip(nil)
		return fmt.Errorf("install asset: %w", err)
	}

	e.player.SetSkeleton(e.session.Skeleton())
	e.player.SetClip(e.session.Clip())
	if e.autoplay && !e.player.IsPlaying() {
		if err := e.player.Play(); err != nil {
			e.logger.Warn("autoplay failed", "error", err)
		}
	}
	e.logger.Info("editing", "asset", asset.Name(), "clip", e.session.Clip().Name(), "bones", e.session.Skeleton().Len())
	return nil
}

// restoreClips swaps each of asset's clips for its stored snapshot, so edits continue from the last
// saved revision instead of overwriting it with the file's clip.
func (e *engine) restoreClips(asset model.Asset) model.Asset {
	if e.store == nil || asset == nil || asset.Skeleton() == nil {
		return asset
	}
	ctx, cancel := context.WithTimeout(e.ctx, 2*time.Second)
	defer cancel()

	clips := asset.Animations()
	restored := 0
	for i, clip := range clips {
		stored, rev, err := e.store.LoadClip(ctx, asset.Name(), clip.Name())
		switch {
		case err == nil:
			clips[i] = stored
			restored++
			e.logger.Debug("snapshot restored", "asset", asset.Name(), "clip", clip.Name(), "revision", rev)
		case !errors.Is(err, store.ErrNotFound):
			e.logger.Warn("snapshot unreadable, using the model's clip", "asset", asset.Name(), "clip", clip.Name(), "error", err)
		}
	}
	if restored == 0 {
		return asset
	}
	return model.NewAsset(
		model.WithName(asset.Name()),
		model.WithSkeleton(asset.Skeleton()),
		model.WithAnimations(clips),
	)
}

func (e *engine) Watch(ctx context.Context, path string) error {
	if e.loader == nil {
		return ErrNoLoader
	}
	ctx, stop := context.WithCancel(ctx)
	context.AfterFunc(e.ctx, stop)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer stop()
		err := e.loader.Watch(ctx, path, func(asset model.Asset, err error) {
			if err != nil {
				return
			}
			_ = e.Post(func() {
				if err := e.install(asset); err != nil {
					e.logger.Warn("reload rejected", "path", path, "error", err)
				}
			})
		})
		if err != nil {
			e.logger.Error("watch failed", "path", path, "error", err)
		}
	}()
	return nil
}

// onClip is the session's clip listener: playback follows the editing clip and accepted edits are
// snapshot to the store.
func (e *engine) onClip(clip *model.AnimationClip) {
	e.player.SetClip(clip)
	if !e.loading {
		e.saveClip(clip)
	}
}

func (e *engine) saveClip(clip *model.AnimationClip) {
	asset := e.session.Asset()
	if e.store == nil || asset == nil || clip == nil {
		return
	}
	ctx, cancel := context.WithTimeout(e.ctx, 2*time.Second)
	defer cancel()
	rev, err := e.store.SaveClip(ctx, asset.Name(), clip)
	if err != nil {
		e.logger.Warn("snapshot failed", "asset", asset.Name(), "clip", clip.Name(), "error", err)
		return
	}
	e.profiler.Count(counterSnapshotSave)
	e.logger.Debug("snapshot saved", "asset", asset.Name(), "clip", clip.Name(), "revision", rev)
}

func (e *engine) KeyDown(keyCode uint32) {
	e.TryPost(func() { e.handleKeyDown(keyCode) })
}

func (e *engine) KeyUp(keyCode uint32) {
	e.TryPost(func() { e.gizmo.HandleKeyUp(keyCode) })
}

// handleKeyDown applies the viewer bindings. Gizmo bindings take precedence.
func (e *engine) handleKeyDown(keyCode uint32) {
	if e.gizmo.HandleKeyDown(keyCode) {
		return
	}

	if i := common.DigitIndex(keyCode); i >= 0 {
		if err := e.session.SelectClip(i); err != nil {
			e.logger.Info("clip not selected", "index", i, "error", err)
		}
		return
	}

	switch keyCode {
	case common.KeyTab:
		e.attachNextBone()
	case common.KeyEnter:
		e.commit()
	case common.KeySpace:
		playing := e.player.Toggle()
		e.logger.Debug("playback toggled", "playing", playing)
	case common.KeyS:
		e.saveClip(e.session.Clip())
	case common.KeyRight:
		e.nudge(mgl32.Vec3{1, 0, 0}, 1)
	case common.KeyLeft:
		e.nudge(mgl32.Vec3{1, 0, 0}, -1)
	case common.KeyUp:
		e.nudge(mgl32.Vec3{0, 1, 0}, 1)
	case common.KeyDown:
		e.nudge(mgl32.Vec3{0, 1, 0}, -1)
	case common.KeyPageUp:
		e.nudge(mgl32.Vec3{0, 0, 1}, 1)
	case common.KeyPageDown:
		e.nudge(mgl32.Vec3{0, 0, 1}, -1)
	}
}

// attachNextBone cycles the gizmo through the skeleton in order.
func (e *engine) attachNextBone() {
	skeleton := e.session.Skeleton()
	if skeleton == nil || skeleton.Len() == 0 {
		return
	}
	e.boneIndex = (e.boneIndex + 1) % skeleton.Len()
	if err := e.gizmo.Attach(skeleton.At(e.boneIndex)); err != nil {
		e.logger.Info("attach failed", "bone", skeleton.At(e.boneIndex).Name, "error", err)
	}
}

// commit ends the drag so the session patches the clip.
func (e *engine) commit() {
	if !e.gizmo.Dragging() {
		return
	}
	if err := e.gizmo.Release(); err != nil {
		e.profiler.Count(counterEditDropped)
		return
	}
	e.profiler.Count(counterEditApplied)
}

// nudge moves the attached bone one increment along axis in the active mode.
func (e *engine) nudge(axis mgl32.Vec3, sign float32) {
	if !e.gizmo.Dragging() {
		return
	}
	var err error
	switch e.gizmo.Mode() {
	case gizmo.ModeTranslate:
		err = e.gizmo.Translate(axis.Mul(sign * e.translateStep))
	case gizmo.ModeRotate:
		err = e.gizmo.Rotate(axis, sign*mgl32.DegToRad(e.rotateStep))
	case gizmo.ModeScale:
		factors := mgl32.Vec3{1, 1, 1}.Add(axis.Mul(sign * e.scaleStep))
		err = e.gizmo.ScaleBy(factors)
	}
	if err != nil {
		e.logger.Debug("nudge ignored", "error", err)
	}
}

// renderFrame is the window's per-iteration callback, on the main thread.
func (e *engine) renderFrame() {
	if title := e.Title(); title != e.shownTitle {
		e.window.SetTitle(title)
		e.shownTitle = title
	}
	if e.renderer != nil {
		if err := e.renderer.RenderFrame(); err != nil && !errors.Is(err, renderer.ErrSurfaceUnconfigured) {
			e.logger.Debug("frame skipped", "error", err)
		}
	}
	if e.profilingEnabled {
		e.profiler.Tick()
	}
}

func (e *engine) shutdownWindow() {
	if e.renderer != nil {
		e.renderer.Release()
	}
	if err := e.window.Close(); err != nil {
		e.logger.Debug("window close", "error", err)
	}
}

// refreshTitle recomputes the status line. Runs on the loop.
func (e *engine) refreshTitle() {
	e.title.Store(e.describe())
}

func (e *engine) describe() string {
	var b strings.Builder
	b.WriteString(e.titlePrefix)

	asset := e.session.Asset()
	if asset == nil {
		b.WriteString(" - no asset")
		return b.String()
	}
	fmt.Fprintf(&b, " - %s [%s] frame %d", asset.Name(), e.session.Clip().Name(), e.session.FrameIndex())

	if e.session.State() == session.Attached {
		fmt.Fprintf(&b, " | %s %s (%s, %s)", e.session.State(), e.session.Bone().Name, e.session.Mode(), e.gizmo.Space())
	} else {
		fmt.Fprintf(&b, " | %s", e.session.State())
	}
	if e.gizmo.Snapping() {
		b.WriteString(" snap")
	}
	if e.player.IsPlaying() {
		b.WriteString(" | playing")
	}
	return b.String()
}

func (e *engine) Session() session.Session {
	return e.session
}

func (e *engine) Gizmo() gizmo.Gizmo {
	return e.gizmo
}

func (e *engine) Player() playback.Player {
	return e.player
}

func (e *engine) Title() string {
	s, _ := e.title.Load().(string)
	return s
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}
