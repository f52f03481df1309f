package playback

import (
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// stepMixer is the implementation of the Mixer interface that holds each keyframe until the next one.
type stepMixer struct {
	skeleton *model.Skeleton
	clip     *model.AnimationClip
	time     float32
}

// Mixer advances a clip's local time and writes the resulting channel values onto a skeleton.
type Mixer interface {
	// SetClip swaps the clip being played. The local time is kept (wrapped into the new clip's
	// duration) so an edited clip continues from where the old one was.
	//
	// Parameters:
	//   - clip: the clip to play, nil to stop writing
	SetClip(clip *model.AnimationClip)

	// Clip returns the clip being played.
	Clip() *model.AnimationClip

	// SetSkeleton retargets the mixer at another asset's bones and rewinds to time zero.
	//
	// Parameters:
	//   - skeleton: the bones to animate, nil to stop writing
	SetSkeleton(skeleton *model.Skeleton)

	// Update advances local time by dt seconds, looping at the clip's duration, and applies the clip.
	//
	// Parameters:
	//   - dt: the time step in seconds
	Update(dt float32)

	// Time returns the local clip time in seconds.
	Time() float32
}

var _ Mixer = &stepMixer{}

// NewStepMixer creates a Mixer that writes, for every track whose bone exists in skeleton, the last
// keyframe at or before the current time. It does no interpolation.
//
// Parameters:
//   - skeleton: the bones to animate
//
// Returns:
//   - Mixer: the new mixer
func NewStepMixer(skeleton *model.Skeleton) Mixer {
	return &stepMixer{skeleton: skeleton}
}

func (m *stepMixer) SetClip(clip *model.AnimationClip) {
	m.clip = clip
	m.time = m.wrap(m.time)
}

func (m *stepMixer) Clip() *model.AnimationClip {
	return m.clip
}

func (m *stepMixer) SetSkeleton(skeleton *model.Skeleton) {
	m.skeleton = skeleton
	m.time = 0
}

func (m *stepMixer) Update(dt float32) {
	if m.clip == nil {
		return
	}
	m.time = m.wrap(m.time + dt)
	m.apply()
}

func (m *stepMixer) Time() float32 {
	return m.time
}

func (m *stepMixer) wrap(t float32) float32 {
	if m.clip == nil || m.clip.Duration() <= 0 {
		return 0
	}
	t = float32(math.Mod(float64(t), float64(m.clip.Duration())))
	if t < 0 {
		t += m.clip.Duration()
	}
	return t
}

func (m *stepMixer) apply() {
	if m.skeleton == nil {
		return
	}
	for _, track := range m.clip.Tracks() {
		bone := m.skeleton.Bone(track.Bone())
		if bone == nil || track.Len() == 0 {
			continue
		}
		times := track.Times()
		// First keyframe after t, minus one.
		i := sort.Search(len(times), func(i int) bool { return times[i] > m.time }) - 1
		if i < 0 {
			i = 0
		}
		sample, err := track.Sample(i)
		if err != nil {
			continue
		}
		_ = bone.SetComponent(track.Kind(), sample)
	}
}
