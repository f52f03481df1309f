package model

import (
	"strings"
)

// ChannelKind identifies which transform component of a bone a Track animates.
type ChannelKind int

const (
	// ChannelPosition animates the bone's local translation (x, y, z).
	ChannelPosition ChannelKind = iota

	// ChannelRotation animates the bone's local rotation quaternion (w, x, y, z).
	ChannelRotation

	// ChannelScale animates the bone's local scale (x, y, z).
	ChannelScale
)

// channelInfo is the exhaustive per-kind table of target suffix, sample stride and component order.
type channelInfo struct {
	suffix     string
	stride     int
	components []string
}

var channelTable = map[ChannelKind]channelInfo{
	ChannelPosition: {suffix: "position", stride: 3, components: []string{"x", "y", "z"}},
	ChannelRotation: {suffix: "quaternion", stride: 4, components: []string{"w", "x", "y", "z"}},
	ChannelScale:    {suffix: "scale", stride: 3, components: []string{"x", "y", "z"}},
}

// AllChannels lists every ChannelKind in declaration order.
var AllChannels = []ChannelKind{ChannelPosition, ChannelRotation, ChannelScale}

// Valid reports whether k is one of the declared channel kinds.
//
// Returns:
//   - bool: true if k is ChannelPosition, ChannelRotation or ChannelScale
func (k ChannelKind) Valid() bool {
	_, ok := channelTable[k]
	return ok
}

// Suffix returns the track target suffix for this channel ("position", "quaternion" or "scale").
// Returns an empty string for an invalid kind.
//
// Returns:
//   - string: the target suffix
func (k ChannelKind) Suffix() string {
	return channelTable[k].suffix
}

// Stride returns the number of numeric components per keyframe sample for this channel.
// Returns 0 for an invalid kind.
//
// Returns:
//   - int: 4 for rotations, 3 for positions and scales
func (k ChannelKind) Stride() int {
	return channelTable[k].stride
}

// Components returns the fixed component order of a sample for this channel.
//
// Returns:
//   - []string: component names, e.g. ["w", "x", "y", "z"] for rotations
func (k ChannelKind) Components() []string {
	return append([]string(nil), channelTable[k].components...)
}

func (k ChannelKind) String() string {
	switch k {
	case ChannelPosition:
		return "position"
	case ChannelRotation:
		return "rotation"
	case ChannelScale:
		return "scale"
	default:
		return "unknown"
	}
}

// ParseChannelKind resolves a channel kind from either its short name ("position", "rotation", "scale")
// or its track suffix ("quaternion"). Matching is case-insensitive.
//
// Parameters:
//   - s: the name to parse
//
// Returns:
//   - ChannelKind: the parsed kind
//   - bool: false if s names no channel
func ParseChannelKind(s string) (ChannelKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "position", "translation":
		return ChannelPosition, true
	case "rotation", "quaternion":
		return ChannelRotation, true
	case "scale":
		return ChannelScale, true
	default:
		return 0, false
	}
}

// TrackTarget builds the deterministic target identifier for a bone channel: boneName + "." + suffix.
//
// Parameters:
//   - boneName: the bone's stable name
//   - kind: the animated channel
//
// Returns:
//   - string: the target identifier, e.g. "Hip.position"
func TrackTarget(boneName string, kind ChannelKind) string {
	return boneName + "." + kind.Suffix()
}

// SplitTrackTarget splits a target identifier back into bone name and channel kind.
// The split happens on the last dot so bone names containing dots survive.
//
// Parameters:
//   - target: a target identifier such as "mixamorig:Hips.quaternion"
//
// Returns:
//   - string: the bone name
//   - ChannelKind: the channel kind
//   - bool: false if the target has no known suffix
func SplitTrackTarget(target string) (string, ChannelKind, bool) {
	i := strings.LastIndex(target, ".")
	if i <= 0 || i == len(target)-1 {
		return "", 0, false
	}
	suffix := target[i+1:]
	for _, k := range AllChannels {
		if k.Suffix() == suffix {
			return target[:i], k, true
		}
	}
	return "", 0, false
}
