package model

import (
	"fmt"
)

// --- Track & Clip Types ---

// Track holds the time-sampled keyframe data for one channel of one bone.
//
// A Track is an immutable value: the times and values slices returned by its accessors are shared
// with every copy of the Track (and with every clip that contains it) and must never be written to.
// Edits produce a new Track with a new values buffer.
type Track struct {
	// name is the target identifier, always TrackTarget(bone, kind).
	name string

	// bone is the animated bone's name.
	bone string

	// kind is the animated channel.
	kind ChannelKind

	// times are the keyframe timestamps in seconds, non-decreasing.
	times []float32

	// values is the flat sample buffer, len(times) * kind.Stride() long.
	values []float32
}

// NewTrack validates and builds a Track. The times and values slices are adopted, not copied.
//
// Parameters:
//   - boneName: the animated bone's name
//   - kind: the animated channel
//   - times: keyframe timestamps in seconds, must be non-decreasing
//   - values: flat sample buffer, must hold exactly len(times) * kind.Stride() numbers
//
// Returns:
//   - Track: the new track
//   - error: wraps ErrInvalidChannel or ErrInvalidTrack when validation fails
func NewTrack(boneName string, kind ChannelKind, times, values []float32) (Track, error) {
	if !kind.Valid() {
		return Track{}, fmt.Errorf("track %q: %w: %d", boneName, ErrInvalidChannel, int(kind))
	}
	target := TrackTarget(boneName, kind)
	if boneName == "" {
		return Track{}, fmt.Errorf("%w: empty bone name", ErrInvalidTrack)
	}
	if want := len(times) * kind.Stride(); len(values) != want {
		return Track{}, fmt.Errorf("track %q: %w: %d values for %d keyframes (want %d)", target, ErrInvalidTrack, len(values), len(times), want)
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return Track{}, fmt.Errorf("track %q: %w: time %d (%g) precedes time %d (%g)", target, ErrInvalidTrack, i, times[i], i-1, times[i-1])
		}
	}
	return Track{
		name:   target,
		bone:   boneName,
		kind:   kind,
		times:  times,
		values: values,
	}, nil
}

// withValues returns a copy of t that shares its times and identity but uses a new values buffer.
// The caller guarantees len(values) == len(t.values).
func (t Track) withValues(values []float32) Track {
	t.values = values
	return t
}

// Name returns the track's target identifier (boneName + "." + suffix).
func (t Track) Name() string {
	return t.name
}

// Bone returns the animated bone's name.
func (t Track) Bone() string {
	return t.bone
}

// Kind returns the animated channel.
func (t Track) Kind() ChannelKind {
	return t.kind
}

// Times returns the shared keyframe timestamps. Callers must not modify the returned slice.
func (t Track) Times() []float32 {
	return t.times
}

// Values returns the shared flat sample buffer. Callers must not modify the returned slice.
func (t Track) Values() []float32 {
	return t.values
}

// Len returns the number of keyframes in the track.
func (t Track) Len() int {
	return len(t.times)
}

// Sample returns a copy of the keyframe sample at index i, in the channel's component order.
//
// Parameters:
//   - i: the keyframe index
//
// Returns:
//   - []float32: a stride-sized copy of the sample
//   - error: error if i is out of range
func (t Track) Sample(i int) ([]float32, error) {
	if i < 0 || i >= len(t.times) {
		return nil, fmt.Errorf("track %q: keyframe %d out of range [0, %d)", t.name, i, len(t.times))
	}
	stride := t.kind.Stride()
	out := make([]float32, stride)
	copy(out, t.values[i*stride:(i+1)*stride])
	return out, nil
}

// PatchSample returns a new Track whose values buffer is a copy of t's with the sample at index i
// replaced by value. The receiver is left untouched and the times slice is shared.
// No normalization or clamping is applied to value.
//
// Parameters:
//   - i: the keyframe index, must satisfy 0 <= i < t.Len()
//   - value: the replacement sample, must hold exactly t.Kind().Stride() numbers
//
// Returns:
//   - Track: the patched track
//   - error: error if i or len(value) is invalid
func (t Track) PatchSample(i int, value []float32) (Track, error) {
	stride := t.kind.Stride()
	if i < 0 || i >= len(t.times) {
		return Track{}, fmt.Errorf("track %q: keyframe %d out of range [0, %d)", t.name, i, len(t.times))
	}
	if len(value) != stride {
		return Track{}, fmt.Errorf("track %q: sample has %d components, want %d", t.name, len(value), stride)
	}
	values := make([]float32, len(t.values))
	copy(values, t.values)
	copy(values[i*stride:(i+1)*stride], value)
	return t.withValues(values), nil
}

// MaxTime returns the last keyframe time, or 0 for an empty track.
func (t Track) MaxTime() float32 {
	if len(t.times) == 0 {
		return 0
	}
	return t.times[len(t.times)-1]
}

// AnimationClip is a named, fixed-duration collection of tracks (walk, run, attack, etc.).
//
// A clip is immutable once built: edits go through WithTrack, which returns a new clip that shares every
// untouched Track with the original. Track order is preserved across edits for stable indexing.
type AnimationClip struct {
	name     string
	duration float32
	tracks   []Track
}

// NewAnimationClip validates and builds an AnimationClip. The tracks slice is copied.
// A negative duration is replaced by the maximum track time.
//
// Parameters:
//   - name: the clip identifier
//   - duration: the clip length in seconds, must be >= every track's last keyframe time (or negative to derive it)
//   - tracks: the clip's tracks, in the order they should be indexed
//
// Returns:
//   - *AnimationClip: the new clip
//   - error: wraps ErrInvalidClip if the duration is shorter than a track
func NewAnimationClip(name string, duration float32, tracks []Track) (*AnimationClip, error) {
	var maxTime float32
	for _, t := range tracks {
		if mt := t.MaxTime(); mt > maxTime {
			maxTime = mt
		}
	}
	if duration < 0 {
		duration = maxTime
	}
	if duration < maxTime {
		return nil, fmt.Errorf("clip %q: %w: duration %g shorter than last keyframe %g", name, ErrInvalidClip, duration, maxTime)
	}
	return &AnimationClip{
		name:     name,
		duration: duration,
		tracks:   append([]Track(nil), tracks...),
	}, nil
}

// Name returns the clip identifier.
func (c *AnimationClip) Name() string {
	return c.name
}

// Duration returns the clip length in seconds.
func (c *AnimationClip) Duration() float32 {
	return c.duration
}

// Len returns the number of tracks in the clip.
func (c *AnimationClip) Len() int {
	return len(c.tracks)
}

// Track returns the track at index i. It panics if i is out of range, like a slice index.
func (c *AnimationClip) Track(i int) Track {
	return c.tracks[i]
}

// Tracks returns a copy of the clip's track list. The tracks themselves share their buffers with the clip.
func (c *AnimationClip) Tracks() []Track {
	return append([]Track(nil), c.tracks...)
}

// WithTrack returns a new clip with the same name and duration whose track list is a copy of c's with
// element i replaced by t. Every other Track is reused as-is.
//
// Parameters:
//   - i: the index of the track to replace
//   - t: the replacement track
//
// Returns:
//   - *AnimationClip: the new clip
//   - error: wraps ErrInvalidClip if i is out of range or t ends after the clip's duration
func (c *AnimationClip) WithTrack(i int, t Track) (*AnimationClip, error) {
	if i < 0 || i >= len(c.tracks) {
		return nil, fmt.Errorf("clip %q: %w: track index %d out of range [0, %d)", c.name, ErrInvalidClip, i, len(c.tracks))
	}
	if t.MaxTime() > c.duration {
		return nil, fmt.Errorf("clip %q: %w: track %q ends at %g after duration %g", c.name, ErrInvalidClip, t.Name(), t.MaxTime(), c.duration)
	}
	tracks := make([]Track, len(c.tracks))
	copy(tracks, c.tracks)
	tracks[i] = t
	return &AnimationClip{
		name:     c.name,
		duration: c.duration,
		tracks:   tracks,
	}, nil
}
