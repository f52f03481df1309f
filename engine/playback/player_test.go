package playback

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) (*model.Skeleton, *model.AnimationClip) {
	t.Helper()
	hip := model.NewBone("Hip")
	skeleton, err := model.NewSkeleton([]*model.Bone{hip}, []int{-1})
	require.NoError(t, err)

	pos, err := model.NewTrack("Hip", model.ChannelPosition, []float32{0, 0.5, 1}, []float32{0, 0, 0, 1, 0, 0, 2, 0, 0})
	require.NoError(t, err)
	// A track for a bone the skeleton does not have is skipped.
	ghost, err := model.NewTrack("Tail", model.ChannelScale, []float32{0}, []float32{3, 3, 3})
	require.NoError(t, err)
	clip, err := model.NewAnimationClip("Walk", 1, []model.Track{pos, ghost})
	require.NoError(t, err)
	return skeleton, clip
}

func TestStepMixerHoldsKeyframes(t *testing.T) {
	skeleton, clip := fixture(t)
	hip := skeleton.Bone("Hip")
	m := NewStepMixer(skeleton)

	m.Update(0.1)
	assert.Zero(t, m.Time())

	m.SetClip(clip)
	m.Update(0.2)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, hip.Position)

	m.Update(0.4)
	assert.InDelta(t, 0.6, m.Time(), 1e-5)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, hip.Position)

	// Loops at the clip duration.
	m.Update(0.6)
	assert.InDelta(t, 0.2, m.Time(), 1e-5)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, hip.Position)
}

func TestStepMixerKeepsTimeAcrossClipSwap(t *testing.T) {
	skeleton, clip := fixture(t)
	m := NewStepMixer(skeleton)
	m.SetClip(clip)
	m.Update(0.7)

	edited, err := clip.WithTrack(0, clip.Track(0))
	require.NoError(t, err)
	m.SetClip(edited)
	assert.InDelta(t, 0.7, m.Time(), 1e-5)
	assert.Same(t, edited, m.Clip())
}

func TestStepMixerRetargetsSkeleton(t *testing.T) {
	skeleton, clip := fixture(t)
	m := NewStepMixer(skeleton)
	m.SetClip(clip)
	m.Update(0.6)
	require.Equal(t, mgl32.Vec3{1, 0, 0}, skeleton.Bone("Hip").Position)

	other := model.NewBone("Hip")
	retarget, err := model.NewSkeleton([]*model.Bone{other}, []int{-1})
	require.NoError(t, err)
	m.SetSkeleton(retarget)
	assert.Zero(t, m.Time())

	m.Update(0.5)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, other.Position)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, skeleton.Bone("Hip").Position, "the old skeleton is left alone")
}

func TestPlayRejectsSecondTimer(t *testing.T) {
	skeleton, clip := fixture(t)
	p := NewPlayer(NewStepMixer(skeleton), WithInterval(time.Hour))
	p.SetClip(clip)

	require.NoError(t, p.Play())
	assert.True(t, p.IsPlaying())
	assert.ErrorIs(t, p.Play(), ErrAlreadyPlaying)

	p.Stop()
	assert.False(t, p.IsPlaying())
	p.Stop()

	require.NoError(t, p.Play())
	p.Stop()
}

func TestTimerTicksThroughDispatcher(t *testing.T) {
	skeleton, clip := fixture(t)
	var dispatched atomic.Int32
	p := NewPlayer(NewStepMixer(skeleton),
		WithInterval(time.Millisecond),
		WithStep(0.05),
		WithDispatcher(func(fn func()) {
			dispatched.Add(1)
			fn()
		}),
	)
	p.SetClip(clip)

	require.NoError(t, p.Play())
	require.Eventually(t, func() bool { return dispatched.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	after := dispatched.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, dispatched.Load(), "no ticks after Stop returns")
	assert.Greater(t, p.Time(), float32(0))
}

func TestTickSkippedWhileSuspended(t *testing.T) {
	skeleton, clip := fixture(t)
	p := NewPlayer(NewStepMixer(skeleton))

	p.Tick()
	assert.Zero(t, p.Time(), "no clip")

	p.SetClip(clip)
	p.Suspend()
	assert.True(t, p.Suspended())
	p.Tick()
	assert.Zero(t, p.Time())

	p.Resume()
	p.Tick()
	assert.InDelta(t, DefaultStep, p.Time(), 1e-6)
}

func TestToggle(t *testing.T) {
	skeleton, _ := fixture(t)
	p := NewPlayer(NewStepMixer(skeleton), WithInterval(time.Hour))
	assert.True(t, p.Toggle())
	assert.True(t, p.IsPlaying())
	assert.False(t, p.Toggle())
	assert.False(t, p.IsPlaying())
}
