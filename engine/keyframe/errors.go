package keyframe

import "errors"

// Errors reported by track lookup and keyframe patching. All of them are local to a single edit attempt:
// the clip the caller already holds stays valid and unchanged.
var (
	// ErrTrackNotFound means the clip has no track for the requested bone and channel.
	ErrTrackNotFound = errors.New("track not found")

	// ErrFrameIndexOutOfRange means the frame index does not address a keyframe of the target track.
	ErrFrameIndexOutOfRange = errors.New("frame index out of range")

	// ErrValueStride means the replacement value does not have stride(channel) components.
	ErrValueStride = errors.New("value has wrong number of components")

	// ErrNonFiniteValue means the replacement value has a NaN or infinite component.
	ErrNonFiniteValue = errors.New("value is not finite")
)

// DataIntegrityWarning describes duplicate tracks found for one bone channel.
// Lookup still succeeds with the first match; the warning is logged and handed back for inspection.
type DataIntegrityWarning struct {
	// Target is the duplicated target identifier.
	Target string

	// Indices are the positions of every matching track, in clip order. Indices[0] is the one used.
	Indices []int
}

func (w DataIntegrityWarning) Error() string {
	return "duplicate tracks for " + w.Target
}
