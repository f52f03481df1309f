package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/gizmo"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/keyframe"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/loader"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/playback"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/session"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

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

// startEngine builds a headless engine with the fox asset installed.
func startEngine(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	e := NewEngine(append([]EngineBuilderOption{WithLogger(quiet)}, options...)...)
	e.Start()
	t.Cleanup(e.Quit)
	require.NoError(t, e.Load(newAsset(t)))
	return e
}

// press queues key presses and waits until the loop has handled them.
func press(t *testing.T, e Engine, keys ...uint32) {
	t.Helper()
	for _, k := range keys {
		e.KeyDown(k)
	}
	require.NoError(t, e.Do(func() error { return nil }))
}

// sampleAt reads one keyframe of the session's current clip on the loop.
func sampleAt(t *testing.T, e Engine, track, frame int) []float32 {
	t.Helper()
	var sample []float32
	require.NoError(t, e.Do(func() error {
		var err error
		sample, err = e.Session().Clip().Track(track).Sample(frame)
		return err
	}))
	return sample
}

func TestKeyboardEditCommitsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "clips.db"), store.WithLogger(quiet))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	e := startEngine(t, WithStore(st))

	infos, err := st.ListClips(ctx, "fox")
	require.NoError(t, err)
	assert.Empty(t, infos, "loading an asset is not an edit")

	press(t, e, common.KeyTab, common.KeyRight, common.KeyRight, common.KeyUp, common.KeyEnter)

	assert.Equal(t, []float32{2, 1, 0}, sampleAt(t, e, 0, session.DefaultFrameIndex))
	assert.Equal(t, []float32{0, 0, 0}, sampleAt(t, e, 0, 2), "other keyframes untouched")

	require.NoError(t, e.Do(func() error {
		assert.Equal(t, session.Idle, e.Session().State())
		assert.False(t, e.Gizmo().Dragging())
		return nil
	}))

	infos, err = st.ListClips(ctx, "fox")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "Walk", infos[0].Clip)
	assert.Equal(t, int64(1), infos[0].Revision)

	saved, _, err := st.LoadClip(ctx, "fox", "Walk")
	require.NoError(t, err)
	sample, err := saved.Track(0).Sample(session.DefaultFrameIndex)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1, 0}, sample)

	totals := e.Profiler().Totals()
	assert.Equal(t, 1, totals[counterEditApplied])
	assert.Equal(t, 1, totals[counterSnapshotSave])
}

func TestLoadContinuesFromStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "clips.db"), store.WithLogger(quiet))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	walk := newAsset(t).Animations()[0]
	prior, err := keyframe.NewPatcher().Patch(walk, "Hip", model.ChannelPosition, 4, []float32{9, 9, 9})
	require.NoError(t, err)
	_, err = st.SaveClip(ctx, "fox", prior)
	require.NoError(t, err)

	e := startEngine(t, WithStore(st))
	assert.Equal(t, []float32{9, 9, 9}, sampleAt(t, e, 0, 4))

	infos, err := st.ListClips(ctx, "fox")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].Revision, "restoring is not an edit")

	press(t, e, common.KeyTab, common.KeyRight, common.KeyEnter)

	saved, rev, err := st.LoadClip(ctx, "fox", "Walk")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
	for frame, want := range map[int][]float32{session.DefaultFrameIndex: {1, 0, 0}, 4: {9, 9, 9}} {
		got, err := saved.Track(0).Sample(frame)
		require.NoError(t, err)
		assert.Equal(t, want, got, "frame %d", frame)
	}

	require.NoError(t, e.Do(func() error {
		idle := e.Session().Clips()[1]
		got, err := idle.Track(0).Sample(4)
		assert.Equal(t, []float32{0, 0, 0}, got, "clips without a snapshot come from the model")
		return err
	}))
}

func TestRotateNudge(t *testing.T) {
	e := startEngine(t, WithNudge(1, 10, 0.1))

	press(t, e, common.KeyE, common.KeyTab, common.KeyTab)
	require.NoError(t, e.Do(func() error {
		assert.Equal(t, "Spine", e.Gizmo().Bone().Name)
		assert.Equal(t, gizmo.ModeRotate, e.Session().Mode())
		return nil
	}))

	press(t, e, common.KeyRight, common.KeyEnter)

	want := mgl32.QuatRotate(mgl32.DegToRad(10), mgl32.Vec3{1, 0, 0})
	got := sampleAt(t, e, 1, session.DefaultFrameIndex)
	require.Len(t, got, 4)
	assert.InDelta(t, want.W, got[0], 1e-5)
	assert.InDelta(t, want.V[0], got[1], 1e-5)
	assert.InDelta(t, 0, got[2], 1e-5)
	assert.InDelta(t, 0, got[3], 1e-5)
}

func TestDroppedEditIsCounted(t *testing.T) {
	e := startEngine(t)

	// Hip has no scale track in Walk.
	press(t, e, common.KeyTab, common.KeyR, common.KeyUp, common.KeyEnter)

	assert.Equal(t, []float32{0, 0, 0}, sampleAt(t, e, 0, session.DefaultFrameIndex))
	assert.Equal(t, 1, e.Profiler().Totals()[counterEditDropped])
	assert.Zero(t, e.Profiler().Totals()[counterEditApplied])
}

func TestTabCyclesBones(t *testing.T) {
	e := startEngine(t)

	var names []string
	for range 3 {
		press(t, e, common.KeyTab)
		require.NoError(t, e.Do(func() error {
			names = append(names, e.Session().Bone().Name)
			return nil
		}))
	}
	assert.Equal(t, []string{"Hip", "Spine", "Hip"}, names)

	press(t, e, common.KeyEsc)
	require.NoError(t, e.Do(func() error {
		assert.Equal(t, session.Idle, e.Session().State())
		return nil
	}))
}

func TestDigitSelectsClip(t *testing.T) {
	e := startEngine(t)

	press(t, e, common.Key2)
	require.NoError(t, e.Do(func() error {
		assert.Equal(t, "Idle", e.Session().Clip().Name())
		return nil
	}))

	press(t, e, common.KeyTab, common.Key1, common.Key9)
	require.NoError(t, e.Do(func() error {
		assert.Equal(t, "Idle", e.Session().Clip().Name(), "clip switch refused while attached")
		return nil
	}))
}

func TestAttachSuspendsPlayback(t *testing.T) {
	e := startEngine(t)

	press(t, e, common.KeyTab)
	assert.True(t, e.Player().Suspended())

	press(t, e, common.KeyEsc)
	assert.False(t, e.Player().Suspended())
}

func TestSpaceTogglesPlaybackOnLoop(t *testing.T) {
	e := startEngine(t, WithPlayerOptions(playback.WithInterval(5*time.Millisecond)))

	press(t, e, common.KeySpace)
	assert.True(t, e.Player().IsPlaying())
	assert.Eventually(t, func() bool {
		return e.Profiler().Totals()[counterTick] > 2
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, e.Title(), "playing")

	press(t, e, common.KeySpace)
	assert.False(t, e.Player().IsPlaying())
}

func TestTitleDescribesSession(t *testing.T) {
	e := startEngine(t)
	assert.Equal(t, "oxykey - fox [Walk] frame 3 | idle", e.Title())

	press(t, e, common.KeyTab)
	assert.Equal(t, "oxykey - fox [Walk] frame 3 | attached Hip (translate, local)", e.Title())
}

func TestLoadFailureClearsSession(t *testing.T) {
	e := startEngine(t)

	empty := model.NewAsset(model.WithName("empty"), model.WithSkeleton(newAsset(t).Skeleton()))
	err := e.Load(empty)
	require.ErrorIs(t, err, session.ErrNoClips)
	assert.Equal(t, "oxykey - no asset", e.Title())
}

func TestOpenUsesLoader(t *testing.T) {
	e := NewEngine(WithLogger(quiet))
	e.Start()
	t.Cleanup(e.Quit)
	assert.ErrorIs(t, e.Open("fox.glb"), ErrNoLoader)

	l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithAsset("fox.glb", newAsset(t)), loader.WithLogger(quiet))
	e = NewEngine(WithLogger(quiet), WithLoader(l))
	e.Start()
	t.Cleanup(e.Quit)

	require.NoError(t, e.Open("fox.glb"))
	require.NoError(t, e.Do(func() error {
		assert.Equal(t, "fox", e.Session().Asset().Name())
		return nil
	}))
}

func TestQuitStopsPosting(t *testing.T) {
	e := NewEngine(WithLogger(quiet))
	e.Start()
	e.Quit()
	e.Quit()

	assert.ErrorIs(t, e.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, e.Do(func() error { return nil }), ErrStopped)
	assert.False(t, e.TryPost(func() {}))
}

func TestPanickingHandlerKeepsLoop(t *testing.T) {
	e := NewEngine(WithLogger(quiet))
	e.Start()
	t.Cleanup(e.Quit)

	require.NoError(t, e.Post(func() { panic("boom") }))
	assert.NoError(t, e.Do(func() error { return nil }))
}
