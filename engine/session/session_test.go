package session

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/gizmo"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/keyframe"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGuard struct {
	suspended int
	resumed   int
}

func (g *countingGuard) Suspend() { g.suspended++ }
func (g *countingGuard) Resume()  { g.resumed++ }

func newAsset(t *testing.T) model.Asset {
	t.Helper()
	hip := model.NewBone("Hip")
	spine := model.NewBone("Spine")
	skeleton, err := model.NewSkeleton([]*model.Bone{hip, spine}, []int{-1, 0})
	require.NoError(t, err)

	times := []float32{0, 0.25, 0.5, 0.75, 1}
	pos, err := model.NewTrack("Hip", model.ChannelPosition, times, make([]float32, 15))
	require.NoError(t, err)
	rot, err := model.NewTrack("Spine", model.ChannelRotation, times, []float32{
		1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0,
	})
	require.NoError(t, err)
	walk, err := model.NewAnimationClip("Walk", 1, []model.Track{pos, rot})
	require.NoError(t, err)
	idle, err := model.NewAnimationClip("Idle", 1, []model.Track{pos})
	require.NoError(t, err)

	return model.NewAsset(
		model.WithName("fox"),
		model.WithSkeleton(skeleton),
		model.WithAnimations([]*model.AnimationClip{walk, idle}),
	)
}

func TestLoadSeedsFirstClip(t *testing.T) {
	var seen []*model.AnimationClip
	s := NewSession(nil, WithClipListener(func(c *model.AnimationClip) { seen = append(seen, c) }))
	assert.Nil(t, s.Clip())

	require.NoError(t, s.Load(newAsset(t)))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, "Walk", s.Clip().Name())
	assert.Equal(t, 0, s.ClipIndex())
	assert.Equal(t, DefaultFrameIndex, s.FrameIndex())
	assert.Equal(t, 2, s.Skeleton().Len())
	require.Len(t, seen, 1)
	assert.Same(t, s.Clip(), seen[0])
}

func TestLoadErrors(t *testing.T) {
	s := NewSession(nil)
	assert.ErrorIs(t, s.Load(nil), ErrNoSkeleton)
	assert.ErrorIs(t, s.Load(model.NewAsset(model.WithSkeleton(&model.Skeleton{}))), ErrNoClips)

	s = NewSession(nil, WithClipIndex(5))
	assert.ErrorIs(t, s.Load(newAsset(t)), ErrClipIndexOutOfRange)
	assert.Nil(t, s.Clip())
}

func TestDragStartRequiresClip(t *testing.T) {
	s := NewSession(nil)
	assert.ErrorIs(t, s.DragStart(model.NewBone("Hip"), gizmo.ModeTranslate), ErrNotLoaded)
	assert.Equal(t, Idle, s.State())
}

func TestDragEndPatchesFrame(t *testing.T) {
	guard := &countingGuard{}
	var seen []*model.AnimationClip
	s := NewSession(keyframe.NewPatcher(),
		WithPlaybackGuard(guard),
		WithClipListener(func(c *model.AnimationClip) { seen = append(seen, c) }),
	)
	require.NoError(t, s.Load(newAsset(t)))
	before := s.Clip()
	hip := s.Skeleton().Bone("Hip")

	require.NoError(t, s.DragStart(hip, gizmo.ModeTranslate))
	assert.Equal(t, Attached, s.State())
	assert.Same(t, hip, s.Bone())
	assert.Equal(t, 1, guard.suspended)

	hip.Position = mgl32.Vec3{1, 5, 0}
	require.NoError(t, s.DragEnd(hip, gizmo.ModeTranslate))

	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Bone())
	assert.Equal(t, gizmo.ModeNone, s.Mode())
	assert.Equal(t, 1, guard.resumed)

	after := s.Clip()
	require.NotSame(t, before, after)
	sample, err := after.Track(0).Sample(DefaultFrameIndex)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 5, 0}, sample)

	// The pre-edit clip is untouched.
	old, err := before.Track(0).Sample(DefaultFrameIndex)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, old)

	assert.Same(t, after, s.Clips()[0])
	require.Len(t, seen, 2)
	assert.Same(t, after, seen[1])
}

func TestModeSwitchChangesChannel(t *testing.T) {
	s := NewSession(nil, WithFrameIndex(1))
	require.NoError(t, s.Load(newAsset(t)))
	spine := s.Skeleton().Bone("Spine")

	require.NoError(t, s.DragStart(spine, gizmo.ModeTranslate))
	s.SetMode(gizmo.ModeRotate)
	assert.Same(t, spine, s.Bone())
	assert.Equal(t, gizmo.ModeRotate, s.Mode())

	spine.Rotation = mgl32.Quat{W: 0, V: mgl32.Vec3{0, 1, 0}}
	require.NoError(t, s.DragEnd(spine, gizmo.ModeRotate))

	sample, err := s.Clip().Track(1).Sample(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1, 0}, sample)
}

func TestSetModeIgnoredWhileIdle(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Load(newAsset(t)))
	s.SetMode(gizmo.ModeScale)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, gizmo.ModeNone, s.Mode())
}

func TestSameBoneDragStartIsNoop(t *testing.T) {
	guard := &countingGuard{}
	s := NewSession(nil, WithPlaybackGuard(guard))
	require.NoError(t, s.Load(newAsset(t)))
	hip := s.Skeleton().Bone("Hip")

	require.NoError(t, s.DragStart(hip, gizmo.ModeTranslate))
	s.SetMode(gizmo.ModeScale)
	require.NoError(t, s.DragStart(hip, gizmo.ModeTranslate))
	assert.Equal(t, gizmo.ModeScale, s.Mode())
	assert.Equal(t, 1, guard.suspended)

	// A different bone switches the attachment without a second suspend.
	spine := s.Skeleton().Bone("Spine")
	require.NoError(t, s.DragStart(spine, gizmo.ModeRotate))
	assert.Same(t, spine, s.Bone())
	assert.Equal(t, 1, guard.suspended)
}

func TestFailedPatchKeepsClip(t *testing.T) {
	var buf bytes.Buffer
	guard := &countingGuard{}
	calls := 0
	s := NewSession(nil,
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithPlaybackGuard(guard),
		WithClipListener(func(*model.AnimationClip) { calls++ }),
	)
	require.NoError(t, s.Load(newAsset(t)))
	before := s.Clip()
	hip := s.Skeleton().Bone("Hip")

	// Hip has no scale track.
	require.NoError(t, s.DragStart(hip, gizmo.ModeScale))
	hip.Scale = mgl32.Vec3{2, 2, 2}
	err := s.DragEnd(hip, gizmo.ModeScale)
	assert.ErrorIs(t, err, keyframe.ErrTrackNotFound)

	assert.Same(t, before, s.Clip())
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, guard.resumed)
	assert.Equal(t, 1, calls)
	assert.Contains(t, buf.String(), "edit dropped")
	// No rollback of the dragged transform.
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, hip.Scale)
}

func TestFrameIndexOutOfRangeDropsEdit(t *testing.T) {
	s := NewSession(nil, WithFrameIndex(9))
	require.NoError(t, s.Load(newAsset(t)))
	before := s.Clip()
	hip := s.Skeleton().Bone("Hip")

	require.NoError(t, s.DragStart(hip, gizmo.ModeTranslate))
	assert.ErrorIs(t, s.DragEnd(hip, gizmo.ModeTranslate), keyframe.ErrFrameIndexOutOfRange)
	assert.Same(t, before, s.Clip())

	s.SetFrameIndex(4)
	require.NoError(t, s.DragStart(hip, gizmo.ModeTranslate))
	require.NoError(t, s.DragEnd(hip, gizmo.ModeTranslate))
	assert.NotSame(t, before, s.Clip())
}

func TestDetachWinsAndResumes(t *testing.T) {
	guard := &countingGuard{}
	s := NewSession(nil, WithPlaybackGuard(guard))
	require.NoError(t, s.Load(newAsset(t)))
	before := s.Clip()
	hip := s.Skeleton().Bone("Hip")

	require.NoError(t, s.DragStart(hip, gizmo.ModeTranslate))
	s.Detach()
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, guard.resumed)
	assert.Same(t, before, s.Clip())

	assert.ErrorIs(t, s.DragEnd(hip, gizmo.ModeTranslate), ErrNotAttached)

	// Detaching while idle does not resume twice.
	s.Detach()
	assert.Equal(t, 1, guard.resumed)
}

func TestSelectClip(t *testing.T) {
	s := NewSession(nil)
	assert.ErrorIs(t, s.SelectClip(0), ErrNotLoaded)
	require.NoError(t, s.Load(newAsset(t)))

	require.NoError(t, s.SelectClip(1))
	assert.Equal(t, "Idle", s.Clip().Name())
	assert.ErrorIs(t, s.SelectClip(2), ErrClipIndexOutOfRange)

	require.NoError(t, s.DragStart(s.Skeleton().Bone("Hip"), gizmo.ModeTranslate))
	assert.ErrorIs(t, s.SelectClip(0), ErrBusy)
}

func TestUnloadResets(t *testing.T) {
	guard := &countingGuard{}
	s := NewSession(nil, WithPlaybackGuard(guard))
	require.NoError(t, s.Load(newAsset(t)))
	require.NoError(t, s.DragStart(s.Skeleton().Bone("Hip"), gizmo.ModeTranslate))

	s.Unload()
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Clip())
	assert.Nil(t, s.Skeleton())
	assert.Nil(t, s.Asset())
	assert.Equal(t, 1, guard.resumed)

	// Reloading starts from the configured clip again.
	require.NoError(t, s.Load(newAsset(t)))
	assert.Equal(t, 0, s.ClipIndex())
}

func TestSessionDrivenByGizmo(t *testing.T) {
	s := NewSession(nil, WithFrameIndex(2))
	require.NoError(t, s.Load(newAsset(t)))
	g := gizmo.NewGizmo(s)
	hip := s.Skeleton().Bone("Hip")

	require.NoError(t, g.Attach(hip))
	require.NoError(t, g.Translate(mgl32.Vec3{0, 3, 0}))
	require.NoError(t, g.Release())

	sample, err := s.Clip().Track(0).Sample(2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 0}, sample)
	assert.Equal(t, Idle, s.State())
}
