package gizmo

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	kind string
	bone string
	mode Mode
}

type recorder struct {
	events   []event
	startErr error
	endErr   error
}

func (r *recorder) DragStart(bone *model.Bone, mode Mode) error {
	r.events = append(r.events, event{"start", bone.Name, mode})
	return r.startErr
}

func (r *recorder) DragEnd(bone *model.Bone, mode Mode) error {
	r.events = append(r.events, event{"end", bone.Name, mode})
	return r.endErr
}

func (r *recorder) SetMode(mode Mode) {
	r.events = append(r.events, event{kind: "mode", mode: mode})
}

func (r *recorder) Detach() {
	r.events = append(r.events, event{kind: "detach"})
}

func TestModeChannel(t *testing.T) {
	assert.Equal(t, model.ChannelPosition, ModeTranslate.Channel())
	assert.Equal(t, model.ChannelRotation, ModeRotate.Channel())
	assert.Equal(t, model.ChannelScale, ModeScale.Channel())
	assert.False(t, ModeNone.Channel().Valid())

	for _, m := range []Mode{ModeTranslate, ModeRotate, ModeScale} {
		assert.Equal(t, m, ModeFor(m.Channel()))
	}
	assert.Equal(t, "rotate", ModeRotate.String())
	assert.Equal(t, "world", SpaceWorld.String())
}

func TestDragLifecycle(t *testing.T) {
	rec := &recorder{}
	g := NewGizmo(rec)
	bone := model.NewBone("Hip")

	require.NoError(t, g.Attach(bone))
	assert.True(t, g.Dragging())
	assert.Same(t, bone, g.Bone())

	require.NoError(t, g.Translate(mgl32.Vec3{1, 2, 3}))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, bone.Position)

	require.NoError(t, g.Release())
	assert.False(t, g.Dragging())
	assert.Nil(t, g.Bone())

	assert.Equal(t, []event{
		{"start", "Hip", ModeTranslate},
		{"end", "Hip", ModeTranslate},
	}, rec.events)

	assert.ErrorIs(t, g.Release(), ErrNotDragging)
	assert.ErrorIs(t, g.Translate(mgl32.Vec3{1, 0, 0}), ErrNotDragging)
}

func TestAttachRejected(t *testing.T) {
	rec := &recorder{startErr: errors.New("nothing loaded")}
	g := NewGizmo(rec)

	err := g.Attach(model.NewBone("Hip"))
	assert.ErrorIs(t, err, rec.startErr)
	assert.False(t, g.Dragging())
	assert.Nil(t, g.Bone())

	assert.ErrorIs(t, g.Attach(nil), ErrNoBone)
}

func TestReleaseDetachesEvenWhenHandlerFails(t *testing.T) {
	rec := &recorder{endErr: errors.New("track not found")}
	g := NewGizmo(rec)
	require.NoError(t, g.Attach(model.NewBone("Hip")))

	assert.ErrorIs(t, g.Release(), rec.endErr)
	assert.False(t, g.Dragging())
	assert.Nil(t, g.Bone())
}

func TestDetachWinsOverDrag(t *testing.T) {
	rec := &recorder{}
	g := NewGizmo(rec)
	bone := model.NewBone("Hip")
	require.NoError(t, g.Attach(bone))
	require.NoError(t, g.Translate(mgl32.Vec3{0, 1, 0}))

	assert.True(t, g.HandleKeyDown(common.KeyEsc))
	assert.False(t, g.Dragging())
	assert.Nil(t, g.Bone())
	assert.Equal(t, "detach", rec.events[len(rec.events)-1].kind)

	// The drag already moved the bone; detaching does not undo it.
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, bone.Position)
	assert.ErrorIs(t, g.Release(), ErrNotDragging)
}

func TestModeKeys(t *testing.T) {
	rec := &recorder{}
	g := NewGizmo(rec)

	assert.True(t, g.HandleKeyDown(common.KeyE))
	assert.Equal(t, ModeRotate, g.Mode())
	assert.True(t, g.HandleKeyDown(common.KeyR))
	assert.Equal(t, ModeScale, g.Mode())
	assert.True(t, g.HandleKeyDown(common.KeyW))
	assert.Equal(t, ModeTranslate, g.Mode())

	assert.Equal(t, []event{{kind: "mode", mode: ModeRotate}, {kind: "mode", mode: ModeScale}, {kind: "mode", mode: ModeTranslate}}, rec.events)

	assert.ErrorIs(t, g.SetMode(ModeNone), ErrInvalidMode)
	assert.False(t, g.HandleKeyDown(common.KeyTab))
}

func TestSpaceToggle(t *testing.T) {
	g := NewGizmo(&recorder{})
	assert.Equal(t, SpaceLocal, g.Space())
	g.HandleKeyDown(common.KeyQ)
	assert.Equal(t, SpaceWorld, g.Space())
	g.HandleKeyDown(common.KeyQ)
	assert.Equal(t, SpaceLocal, g.Space())
}

func TestSizeSteps(t *testing.T) {
	g := NewGizmo(&recorder{})
	assert.Equal(t, DefaultSize, g.Size())

	g.HandleKeyDown(common.KeyEqual)
	assert.InDelta(t, 1.1, g.Size(), 1e-6)

	for i := 0; i < 30; i++ {
		g.HandleKeyDown(common.KeyKPAdd)
	}
	assert.Equal(t, MaxSize, g.Size())

	for i := 0; i < 30; i++ {
		g.HandleKeyDown(common.KeyMinus)
	}
	assert.InDelta(t, MinSize, g.Size(), 1e-6)

	g = NewGizmo(&recorder{}, WithSize(5))
	assert.Equal(t, MaxSize, g.Size())
}

func TestSnapModifier(t *testing.T) {
	g := NewGizmo(&recorder{})
	bone := model.NewBone("Hip")

	assert.True(t, g.HandleKeyDown(common.KeyLeftSuper))
	assert.True(t, g.Snapping())

	require.NoError(t, g.Attach(bone))
	require.NoError(t, g.Translate(mgl32.Vec3{6, 14, -4}))
	assert.Equal(t, mgl32.Vec3{10, 10, 0}, bone.Position)

	require.NoError(t, g.SetMode(ModeRotate))
	require.NoError(t, g.Rotate(mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(20)))
	want := mgl32.QuatRotate(mgl32.DegToRad(15), mgl32.Vec3{0, 1, 0})
	assert.True(t, bone.Rotation.ApproxEqualThreshold(want, 1e-5), "got %v want %v", bone.Rotation, want)

	assert.True(t, g.HandleKeyUp(common.KeyLeftSuper))
	assert.False(t, g.Snapping())
	assert.False(t, g.HandleKeyUp(common.KeyW))
}

func TestSnapAppliesToDragTotal(t *testing.T) {
	g := NewGizmo(&recorder{})
	bone := model.NewBone("Hip")
	bone.Position = mgl32.Vec3{2, 0, 0}
	g.SetSnapping(true)
	require.NoError(t, g.Attach(bone))

	for i := 0; i < 4; i++ {
		require.NoError(t, g.Translate(mgl32.Vec3{1, 0, 0}))
	}
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, bone.Position, "4 units rounds to no offset")
	for i := 0; i < 16; i++ {
		require.NoError(t, g.Translate(mgl32.Vec3{1, 0, 0}))
	}
	assert.Equal(t, mgl32.Vec3{22, 0, 0}, bone.Position)

	g.SetSnapping(false)
	require.NoError(t, g.Translate(mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, mgl32.Vec3{23, 0, 0}, bone.Position)
	g.SetSnapping(true)

	up := mgl32.Vec3{0, 1, 0}
	for i := 0; i < 20; i++ {
		require.NoError(t, g.Rotate(up, mgl32.DegToRad(5)))
	}
	want := mgl32.QuatRotate(mgl32.DegToRad(105), up)
	assert.True(t, bone.Rotation.ApproxEqualThreshold(want, 1e-5), "got %v want %v", bone.Rotation, want)

	// A new axis continues from the snapped rotation.
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Rotate(mgl32.Vec3{1, 0, 0}, mgl32.DegToRad(5)))
	}
	want = want.Mul(mgl32.QuatRotate(mgl32.DegToRad(15), mgl32.Vec3{1, 0, 0}))
	assert.True(t, bone.Rotation.ApproxEqualThreshold(want, 1e-5), "got %v want %v", bone.Rotation, want)
}

func TestLocalTranslateFollowsBoneAxes(t *testing.T) {
	g := NewGizmo(&recorder{})
	bone := model.NewBone("Arm")
	bone.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})

	require.NoError(t, g.Attach(bone))
	require.NoError(t, g.Translate(mgl32.Vec3{1, 0, 0}))
	assert.True(t, bone.Position.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5), "got %v", bone.Position)
}

func TestWorldTranslateUndoesParentRotation(t *testing.T) {
	g := NewGizmo(&recorder{}, WithSpace(SpaceWorld))
	parent := model.NewBone("Spine")
	parent.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	child := model.NewBone("Arm")
	child.Parent = parent

	require.NoError(t, g.Attach(child))
	require.NoError(t, g.Translate(mgl32.Vec3{0, 1, 0}))
	assert.True(t, child.Position.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5), "got %v", child.Position)
}

func TestScaleBy(t *testing.T) {
	g := NewGizmo(&recorder{}, WithMode(ModeScale))
	bone := model.NewBone("Head")
	require.NoError(t, g.Attach(bone))
	require.NoError(t, g.ScaleBy(mgl32.Vec3{2, 1, 0.5}))
	assert.Equal(t, mgl32.Vec3{2, 1, 0.5}, bone.Scale)
}
