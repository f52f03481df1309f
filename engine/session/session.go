package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/gizmo"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/keyframe"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// DefaultFrameIndex is the keyframe an edit overwrites when no timeline position has been chosen.
const DefaultFrameIndex = 3

var (
	// ErrNotLoaded means no asset is loaded, so there is no clip to edit.
	ErrNotLoaded = errors.New("session: no asset loaded")

	// ErrNotAttached means a drag ended while no bone was attached.
	ErrNotAttached = errors.New("session: no bone attached")

	// ErrNoClips means the loaded asset carries no animation clips.
	ErrNoClips = errors.New("session: asset has no animation clips")

	// ErrNoSkeleton means the loaded asset carries no skeleton.
	ErrNoSkeleton = errors.New("session: asset has no skeleton")

	// ErrClipIndexOutOfRange means the requested clip index does not exist.
	ErrClipIndexOutOfRange = errors.New("session: clip index out of range")

	// ErrBusy means the operation is only allowed while no bone is attached.
	ErrBusy = errors.New("session: bone attached")
)

// State is the edit session's state machine position.
type State int

const (
	// Idle means no bone is attached to the gizmo.
	Idle State = iota

	// Attached means a bone is attached and the next drag end will be written into the clip.
	Attached
)

func (s State) String() string {
	if s == Attached {
		return "attached"
	}
	return "idle"
}

// Guard is notified when the session takes or gives back ownership of bone transforms.
// While suspended, playback must not write to the skeleton.
type Guard interface {
	Suspend()
	Resume()
}

// ClipListener is called with the new editing clip every time it is replaced.
type ClipListener func(clip *model.AnimationClip)

// session is the implementation of the Session interface.
type session struct {
	patcher   keyframe.Patcher
	logger    *slog.Logger
	guard     Guard
	listeners []ClipListener

	// frameIndex is the keyframe overwritten by DragEnd.
	frameIndex int

	// initialClip is the clip index Load seeds the session with.
	initialClip int

	// clipIndex is the index of the editing clip within clips.
	clipIndex int

	asset    model.Asset
	skeleton *model.Skeleton
	clips    []*model.AnimationClip

	// clip is the current editing clip; every accepted edit replaces it.
	clip *model.AnimationClip

	state State
	bone  *model.Bone
	mode  gizmo.Mode
}

// Session is the edit-session controller. It tracks which bone is attached to the gizmo and which
// channel is being edited, turns drag-end events into keyframe patches, and holds the current
// editing clip that playback reads.
//
// A Session is not safe for concurrent use; every call must come from the single event loop.
// It implements gizmo.Handler.
type Session interface {
	gizmo.Handler

	// Load installs a freshly loaded asset and enters Idle with the configured clip as the editing clip.
	// Loading again discards the previous asset and any unsaved attachment.
	//
	// Parameters:
	//   - asset: the loaded asset, must carry a skeleton and at least one clip
	//
	// Returns:
	//   - error: ErrNoSkeleton, ErrNoClips or ErrClipIndexOutOfRange; the session is left unloaded on error
	Load(asset model.Asset) error

	// Unload drops the asset and returns to Idle with no clip held.
	Unload()

	// SetFrameIndex sets the keyframe index subsequent edits overwrite.
	// The index is checked against the target track only when a patch runs.
	SetFrameIndex(i int)

	// FrameIndex returns the keyframe index edits overwrite.
	FrameIndex() int

	// SelectClip makes another loaded clip the editing clip. Listeners are notified.
	//
	// Parameters:
	//   - i: the clip index among Clips()
	//
	// Returns:
	//   - error: ErrNotLoaded, ErrBusy while a bone is attached, or ErrClipIndexOutOfRange
	SelectClip(i int) error

	// State returns Idle or Attached.
	State() State

	// Bone returns the attached bone, nil when Idle.
	Bone() *model.Bone

	// Mode returns the active mode, ModeNone when Idle.
	Mode() gizmo.Mode

	// Clip returns the current editing clip, nil when unloaded.
	Clip() *model.AnimationClip

	// ClipIndex returns the index of the editing clip among Clips().
	ClipIndex() int

	// Clips returns the loaded clips, with the editing clip's slot reflecting every accepted edit.
	Clips() []*model.AnimationClip

	// Skeleton returns the loaded skeleton, nil when unloaded.
	Skeleton() *model.Skeleton

	// Asset returns the loaded asset, nil when unloaded.
	Asset() model.Asset
}

var _ Session = &session{}

// NewSession creates a new, unloaded Session that patches clips with patcher.
//
// Parameters:
//   - patcher: the keyframe patcher, nil selects keyframe.NewPatcher()
//   - options: a variadic list of SessionBuilderOption functions
//
// Returns:
//   - Session: the new session
func NewSession(patcher keyframe.Patcher, options ...SessionBuilderOption) Session {
	s := &session{
		patcher:    patcher,
		logger:     slog.Default(),
		frameIndex: DefaultFrameIndex,
	}
	for _, option := range options {
		option(s)
	}
	if s.patcher == nil {
		s.patcher = keyframe.NewPatcher(keyframe.WithLogger(s.logger))
	}
	return s
}

func (s *session) Load(asset model.Asset) error {
	s.Unload()
	if asset == nil || asset.Skeleton() == nil {
		return ErrNoSkeleton
	}
	clips := asset.Animations()
	if len(clips) == 0 {
		return fmt.Errorf("%w: %q", ErrNoClips, asset.Name())
	}
	if s.initialClip < 0 || s.initialClip >= len(clips) {
		return fmt.Errorf("%w: %d of %d in %q", ErrClipIndexOutOfRange, s.initialClip, len(clips), asset.Name())
	}

	s.asset = asset
	s.clipIndex = s.initialClip
	s.skeleton = asset.Skeleton()
	s.clips = clips
	s.clip = clips[s.clipIndex]
	s.logger.Info("asset loaded", "asset", asset.Name(), "bones", s.skeleton.Len(), "clips", len(clips), "clip", s.clip.Name())
	s.notify()
	return nil
}

func (s *session) Unload() {
	s.release()
	s.asset = nil
	s.skeleton = nil
	s.clips = nil
	s.clip = nil
}

func (s *session) DragStart(bone *model.Bone, mode gizmo.Mode) error {
	if s.clip == nil {
		return ErrNotLoaded
	}
	if bone == nil {
		return fmt.Errorf("%w: nil bone", ErrNotAttached)
	}
	if s.state == Attached && s.bone == bone {
		return nil
	}
	if s.state == Idle && s.guard != nil {
		s.guard.Suspend()
	}
	s.state = Attached
	s.bone = bone
	s.mode = mode
	s.logger.Debug("bone attached", "bone", bone.Name, "mode", mode)
	return nil
}

func (s *session) SetMode(mode gizmo.Mode) {
	if s.state != Attached || !mode.Valid() {
		return
	}
	s.mode = mode
}

// DragEnd commits the attached bone's transform. The session's own record of bone and mode is
// authoritative over the event's arguments.
func (s *session) DragEnd(_ *model.Bone, _ gizmo.Mode) error {
	if s.state != Attached {
		return ErrNotAttached
	}
	bone, mode := s.bone, s.mode
	defer s.release()

	kind := mode.Channel()
	next, err := s.patcher.Patch(s.clip, bone.Name, kind, s.frameIndex, bone.Component(kind))
	if err != nil {
		s.logger.Warn("edit dropped", "clip", s.clip.Name(), "bone", bone.Name, "channel", kind, "frame", s.frameIndex, "error", err)
		return fmt.Errorf("edit %s of %q: %w", kind, bone.Name, err)
	}

	s.clip = next
	s.clips = append([]*model.AnimationClip(nil), s.clips...)
	s.clips[s.clipIndex] = next
	s.logger.Info("edit applied", "clip", next.Name(), "bone", bone.Name, "channel", kind, "frame", s.frameIndex)
	s.notify()
	return nil
}

func (s *session) Detach() {
	s.release()
}

func (s *session) SetFrameIndex(i int) {
	s.frameIndex = i
}

func (s *session) FrameIndex() int {
	return s.frameIndex
}

func (s *session) SelectClip(i int) error {
	if s.clip == nil {
		return ErrNotLoaded
	}
	if s.state == Attached {
		return ErrBusy
	}
	if i < 0 || i >= len(s.clips) {
		return fmt.Errorf("%w: %d of %d", ErrClipIndexOutOfRange, i, len(s.clips))
	}
	s.clipIndex = i
	s.clip = s.clips[i]
	s.notify()
	return nil
}

func (s *session) State() State {
	return s.state
}

func (s *session) Bone() *model.Bone {
	return s.bone
}

func (s *session) Mode() gizmo.Mode {
	return s.mode
}

func (s *session) Clip() *model.AnimationClip {
	return s.clip
}

func (s *session) ClipIndex() int {
	return s.clipIndex
}

func (s *session) Clips() []*model.AnimationClip {
	return append([]*model.AnimationClip(nil), s.clips...)
}

func (s *session) Skeleton() *model.Skeleton {
	return s.skeleton
}

func (s *session) Asset() model.Asset {
	return s.asset
}

// release returns to Idle, handing bone ownership back to playback if it was taken.
func (s *session) release() {
	wasAttached := s.state == Attached
	s.state = Idle
	s.bone = nil
	s.mode = gizmo.ModeNone
	if wasAttached && s.guard != nil {
		s.guard.Resume()
	}
}

func (s *session) notify() {
	for _, l := range s.listeners {
		l(s.clip)
	}
}
