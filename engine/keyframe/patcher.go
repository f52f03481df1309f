package keyframe

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// patcher is the implementation of the Patcher interface.
type patcher struct {
	logger *slog.Logger
}

// Patcher rewrites a single keyframe sample of a clip.
//
// Patching is a pure function of its inputs: the input clip, its tracks, and their buffers are never
// mutated, so anything still holding the old clip (a running mixer, a store snapshot) keeps seeing the
// pre-edit data. The caller decides whether to install the returned clip.
type Patcher interface {
	// Patch returns a new clip in which the sample at frameIndex of the track for (boneName, kind) is
	// replaced by value. The result shares its name, duration, every other track, and the patched track's
	// times with clip; only the patched track gets a new values buffer.
	//
	// Parameters:
	//   - clip: the clip being edited
	//   - boneName: the edited bone's name
	//   - kind: the edited channel
	//   - frameIndex: the keyframe to overwrite, 0 <= frameIndex < track length
	//   - value: the new sample in the channel's component order (w, x, y, z for rotations), stored verbatim
	//
	// Returns:
	//   - *model.AnimationClip: the patched clip, nil on error
	//   - error: wraps ErrTrackNotFound, ErrFrameIndexOutOfRange, ErrValueStride or ErrNonFiniteValue
	Patch(clip *model.AnimationClip, boneName string, kind model.ChannelKind, frameIndex int, value []float32) (*model.AnimationClip, error)
}

var _ Patcher = &patcher{}

// NewPatcher creates a new Patcher with the provided options applied.
//
// Parameters:
//   - options: a variadic list of PatcherBuilderOption functions
//
// Returns:
//   - Patcher: the new patcher
func NewPatcher(options ...PatcherBuilderOption) Patcher {
	p := &patcher{
		logger: slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Patch is a convenience wrapper around a default Patcher.
func Patch(clip *model.AnimationClip, boneName string, kind model.ChannelKind, frameIndex int, value []float32) (*model.AnimationClip, error) {
	return NewPatcher().Patch(clip, boneName, kind, frameIndex, value)
}

func (p *patcher) Patch(clip *model.AnimationClip, boneName string, kind model.ChannelKind, frameIndex int, value []float32) (*model.AnimationClip, error) {
	track, index, err := findTrack(p.logger, clip, boneName, kind)
	if err != nil {
		return nil, err
	}

	if frameIndex < 0 || frameIndex >= track.Len() {
		return nil, fmt.Errorf("%w: frame %d of %q (%d keyframes)", ErrFrameIndexOutOfRange, frameIndex, track.Name(), track.Len())
	}
	if len(value) != kind.Stride() {
		return nil, fmt.Errorf("%w: %d for %q (want %d)", ErrValueStride, len(value), track.Name(), kind.Stride())
	}
	for _, v := range value {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: %v for %q", ErrNonFiniteValue, value, track.Name())
		}
	}

	patched, err := track.PatchSample(frameIndex, value)
	if err != nil {
		return nil, err
	}

	next, err := clip.WithTrack(index, patched)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("patched keyframe", "clip", clip.Name(), "target", track.Name(), "frame", frameIndex, "value", value)
	return next, nil
}
