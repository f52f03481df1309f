package keyframe

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
)

// FindTracks returns the positions of every track in clip that targets boneName's channel, in clip order.
// More than one result means the clip breaks the one-track-per-channel invariant.
//
// Parameters:
//   - clip: the clip to search (nil yields no matches)
//   - boneName: the bone's name
//   - kind: the channel kind
//
// Returns:
//   - []int: matching track indices, empty if none
func FindTracks(clip *model.AnimationClip, boneName string, kind model.ChannelKind) []int {
	if clip == nil || !kind.Valid() {
		return nil
	}
	target := model.TrackTarget(boneName, kind)
	var matches []int
	for i := 0; i < clip.Len(); i++ {
		if clip.Track(i).Name() == target {
			matches = append(matches, i)
		}
	}
	return matches
}

// Duplicates lists every bone channel of clip that more than one track targets, in order of first
// appearance. Lookups and patches on those channels use Indices[0].
//
// Parameters:
//   - clip: the clip to check (nil yields none)
//
// Returns:
//   - []DataIntegrityWarning: one warning per duplicated target, empty for a well-formed clip
func Duplicates(clip *model.AnimationClip) []DataIntegrityWarning {
	if clip == nil {
		return nil
	}
	byTarget := map[string]int{}
	var warnings []DataIntegrityWarning
	for i := 0; i < clip.Len(); i++ {
		target := clip.Track(i).Name()
		if w, ok := byTarget[target]; ok {
			warnings[w].Indices = append(warnings[w].Indices, i)
			continue
		}
		byTarget[target] = len(warnings)
		warnings = append(warnings, DataIntegrityWarning{Target: target, Indices: []int{i}})
	}
	out := warnings[:0]
	for _, w := range warnings {
		if len(w.Indices) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// FindTrack resolves the unique track responsible for a bone channel together with its index in the clip.
// Duplicates resolve to the first match and are reported as a DataIntegrityWarning on the default logger.
//
// Parameters:
//   - clip: the clip to search
//   - boneName: the bone's name
//   - kind: the channel kind
//
// Returns:
//   - model.Track: the matching track
//   - int: its zero-based position in the clip's track list
//   - error: wraps ErrTrackNotFound when no track matches
func FindTrack(clip *model.AnimationClip, boneName string, kind model.ChannelKind) (model.Track, int, error) {
	return findTrack(slog.Default(), clip, boneName, kind)
}

func findTrack(logger *slog.Logger, clip *model.AnimationClip, boneName string, kind model.ChannelKind) (model.Track, int, error) {
	if !kind.Valid() {
		return model.Track{}, -1, fmt.Errorf("%w: %w: %d", ErrTrackNotFound, model.ErrInvalidChannel, int(kind))
	}
	target := model.TrackTarget(boneName, kind)
	matches := FindTracks(clip, boneName, kind)
	if len(matches) == 0 {
		return model.Track{}, -1, fmt.Errorf("%w: %q", ErrTrackNotFound, target)
	}
	if len(matches) > 1 {
		w := DataIntegrityWarning{Target: target, Indices: matches}
		logger.Warn("duplicate track", "clip", clip.Name(), "target", w.Target, "indices", w.Indices, "using", matches[0], "error", w)
	}
	return clip.Track(matches[0]), matches[0], nil
}
