package gizmo

import "github.com/Carmen-Shannon/oxy-keyframe/engine/model"

// Mode is the gizmo's active transform mode.
type Mode int

const (
	// ModeNone means no transform is active.
	ModeNone Mode = iota

	// ModeTranslate drags the bone's local position.
	ModeTranslate

	// ModeRotate drags the bone's local rotation.
	ModeRotate

	// ModeScale drags the bone's local scale.
	ModeScale
)

// Channel returns the animation channel a mode edits.
//
// Returns:
//   - model.ChannelKind: the edited channel, or an invalid kind for ModeNone
func (m Mode) Channel() model.ChannelKind {
	switch m {
	case ModeTranslate:
		return model.ChannelPosition
	case ModeRotate:
		return model.ChannelRotation
	case ModeScale:
		return model.ChannelScale
	}
	return model.ChannelKind(-1)
}

// Valid reports whether m is one of the three editing modes.
func (m Mode) Valid() bool {
	return m >= ModeTranslate && m <= ModeScale
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeTranslate:
		return "translate"
	case ModeRotate:
		return "rotate"
	case ModeScale:
		return "scale"
	}
	return "unknown"
}

// ModeFor returns the mode that edits the given channel.
func ModeFor(kind model.ChannelKind) Mode {
	switch kind {
	case model.ChannelPosition:
		return ModeTranslate
	case model.ChannelRotation:
		return ModeRotate
	case model.ChannelScale:
		return ModeScale
	}
	return ModeNone
}

// Space selects whether gizmo drags are expressed in the bone's local frame or in world axes.
type Space int

const (
	// SpaceLocal applies drags along the bone's own axes.
	SpaceLocal Space = iota

	// SpaceWorld applies drags along the world axes.
	SpaceWorld
)

func (s Space) String() string {
	if s == SpaceWorld {
		return "world"
	}
	return "local"
}
