package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "clips.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func walkClip(t *testing.T, hipY float32) *model.AnimationClip {
	t.Helper()
	pos, err := model.NewTrack("Hip", model.ChannelPosition, []float32{0, 0.5, 1}, []float32{0, 0, 0, 0, hipY, 0, 0, 0, 0})
	require.NoError(t, err)
	rot, err := model.NewTrack("Spine", model.ChannelRotation, []float32{0, 1}, []float32{1, 0, 0, 0, 0, 0, 1, 0})
	require.NoError(t, err)
	clip, err := model.NewAnimationClip("Walk", 1.5, []model.Track{pos, rot})
	require.NoError(t, err)
	return clip
}

func TestSaveAndLoadClip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	rev, err := s.SaveClip(ctx, "fox", walkClip(t, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	clip, rev, err := s.LoadClip(ctx, "fox", "Walk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
	assert.Equal(t, "Walk", clip.Name())
	assert.InDelta(t, 1.5, clip.Duration(), 1e-6)
	require.Equal(t, 2, clip.Len())

	assert.Equal(t, "Hip.position", clip.Track(0).Name())
	sample, err := clip.Track(0).Sample(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 2, 0}, sample)

	assert.Equal(t, "Spine.quaternion", clip.Track(1).Name())
	assert.Equal(t, []float32{0, 1}, clip.Track(1).Times())
}

func TestSaveBumpsRevision(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.SaveClip(ctx, "fox", walkClip(t, 1))
	require.NoError(t, err)
	rev, err := s.SaveClip(ctx, "fox", walkClip(t, 7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	clip, rev, err := s.LoadClip(ctx, "fox", "Walk")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
	sample, err := clip.Track(0).Sample(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 7, 0}, sample, "the latest save replaces the row")

	infos, err := s.ListClips(ctx, "fox")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, int64(2), infos[0].Revision)
	assert.Equal(t, 2, infos[0].Tracks)
}

func TestLoadMissingClip(t *testing.T) {
	_, _, err := openTemp(t).LoadClip(context.Background(), "fox", "Run")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveNilClip(t *testing.T) {
	_, err := openTemp(t).SaveClip(context.Background(), "fox", nil)
	assert.Error(t, err)
}

func TestListClipsFiltersByAsset(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.SaveClip(ctx, "fox", walkClip(t, 1))
	require.NoError(t, err)
	_, err = s.SaveClip(ctx, "wolf", walkClip(t, 1))
	require.NoError(t, err)

	fox, err := s.ListClips(ctx, "fox")
	require.NoError(t, err)
	require.Len(t, fox, 1)
	assert.Equal(t, "fox", fox[0].Asset)
	assert.False(t, fox[0].UpdatedAt.IsZero())

	all, err := s.ListClips(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "wolf", all[1].Asset)
}

func TestDeleteClip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.SaveClip(ctx, "fox", walkClip(t, 1))
	require.NoError(t, err)
	require.NoError(t, s.DeleteClip(ctx, "fox", "Walk"))

	_, _, err = s.LoadClip(ctx, "fox", "Walk")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteClip(ctx, "fox", "Walk"), ErrNotFound)
}

func TestReopenKeepsClips(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clips.sqlite")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.SaveClip(ctx, "fox", walkClip(t, 3))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	_, rev, err := s.LoadClip(ctx, "fox", "Walk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
}
