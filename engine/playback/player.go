package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// Default playback tick: advance 0.1 s of clip time every 100 ms of wall time.
const (
	DefaultStep     float32 = 0.1
	DefaultInterval         = 100 * time.Millisecond
)

// ErrAlreadyPlaying means Play was called while a playback timer is already armed.
var ErrAlreadyPlaying = errors.New("playback: already playing")

// player is the implementation of the Player interface.
type player struct {
	mixer    Mixer
	step     float32
	interval time.Duration
	dispatch func(func())
	logger   *slog.Logger

	mu        sync.Mutex
	suspended bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Player drives a Mixer from a single cancellable timer. At most one timer is armed at a time, so
// repeated Play requests never compound the time step.
//
// Player implements the edit session's Guard: while suspended, ticks leave the skeleton alone so the
// gizmo is the only writer of bone transforms.
type Player interface {
	// SetClip hands the current editing clip to the mixer. The clip is only read.
	//
	// Parameters:
	//   - clip: the clip to play
	SetClip(clip *model.AnimationClip)

	// SetSkeleton points the mixer at a newly loaded skeleton.
	//
	// Parameters:
	//   - skeleton: the bones to animate
	SetSkeleton(skeleton *model.Skeleton)

	// Play arms the playback timer.
	//
	// Returns:
	//   - error: ErrAlreadyPlaying if the timer is already armed
	Play() error

	// Stop disarms the timer and waits for its goroutine to exit. Stopping a stopped player is a no-op.
	Stop()

	// Toggle stops a playing player and starts a stopped one.
	//
	// Returns:
	//   - bool: true if the player is now playing
	Toggle() bool

	// Tick advances the mixer by one step, unless suspended or no clip is set.
	// The timer calls Tick through the dispatcher; it may also be called directly.
	Tick()

	// IsPlaying reports whether the timer is armed.
	IsPlaying() bool

	// Suspend stops ticks from writing to the skeleton. The timer keeps running.
	Suspend()

	// Resume lets ticks write to the skeleton again.
	Resume()

	// Suspended reports whether ticks are suspended.
	Suspended() bool

	// Time returns the mixer's local clip time.
	Time() float32
}

var _ Player = &player{}

// NewPlayer creates a stopped Player driving mixer, with the provided options applied.
//
// Parameters:
//   - mixer: the mixer to advance
//   - options: a variadic list of PlayerBuilderOption functions
//
// Returns:
//   - Player: the new player
func NewPlayer(mixer Mixer, options ...PlayerBuilderOption) Player {
	p := &player{
		mixer:    mixer,
		step:     DefaultStep,
		interval: DefaultInterval,
		dispatch: func(fn func()) { fn() },
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *player) SetClip(clip *model.AnimationClip) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mixer.SetClip(clip)
}

func (p *player) SetSkeleton(skeleton *model.Skeleton) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mixer.SetSkeleton(skeleton)
}

func (p *player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrAlreadyPlaying
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	p.logger.Debug("playback started", "step", p.step, "interval", p.interval)
	return nil
}

func (p *player) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.dispatch(p.Tick)
		}
	}
}

func (p *player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Debug("playback stopped", "time", p.Time())
}

func (p *player) Toggle() bool {
	if p.IsPlaying() {
		p.Stop()
		return false
	}
	return p.Play() == nil
}

func (p *player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.suspended || p.mixer.Clip() == nil {
		return
	}
	p.mixer.Update(p.step)
}

func (p *player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *player) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = true
}

func (p *player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = false
}

func (p *player) Suspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suspended
}

func (p *player) Time() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.Time()
}
