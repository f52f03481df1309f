package session

import "log/slog"

// SessionBuilderOption is a functional option for configuring a Session via NewSession.
type SessionBuilderOption func(*session)

// WithFrameIndex sets the keyframe index edits overwrite.
//
// Parameters:
//   - i: the frame index, default DefaultFrameIndex
//
// Returns:
//   - SessionBuilderOption: a function that applies the frame index option to a session
func WithFrameIndex(i int) SessionBuilderOption {
	return func(s *session) {
		s.frameIndex = i
	}
}

// WithClipIndex sets which of a loaded asset's clips becomes the editing clip.
//
// Parameters:
//   - i: the clip index, default 0
//
// Returns:
//   - SessionBuilderOption: a function that applies the clip index option to a session
func WithClipIndex(i int) SessionBuilderOption {
	return func(s *session) {
		s.initialClip = i
	}
}

// WithLogger sets the logger used for dropped-edit warnings and state traces.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default
//
// Returns:
//   - SessionBuilderOption: a function that applies the logger option to a session
func WithLogger(logger *slog.Logger) SessionBuilderOption {
	return func(s *session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlaybackGuard sets the guard suspended while a bone is attached.
//
// Parameters:
//   - guard: usually the playback player
//
// Returns:
//   - SessionBuilderOption: a function that applies the guard option to a session
func WithPlaybackGuard(guard Guard) SessionBuilderOption {
	return func(s *session) {
		s.guard = guard
	}
}

// WithClipListener adds a listener called whenever the editing clip is replaced.
// Listeners run in registration order on the caller's goroutine.
//
// Parameters:
//   - listener: the callback
//
// Returns:
//   - SessionBuilderOption: a function that adds the listener to a session
func WithClipListener(listener ClipListener) SessionBuilderOption {
	return func(s *session) {
		if listener != nil {
			s.listeners = append(s.listeners, listener)
		}
	}
}
