package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// --- Transform & Skeleton Types ---

// Bone represents a single joint in a skeleton hierarchy.
//
// The transform fields are mutated in place by whichever system currently owns the bone: the gizmo while
// the bone is attached for editing, the playback mixer otherwise.
type Bone struct {
	// Name is the bone's identifier, unique within its skeleton. Tracks target bones by this name.
	Name string

	// Position is the bone's local translation.
	Position mgl32.Vec3

	// Rotation is the bone's local rotation as a quaternion (W plus vector part x, y, z).
	Rotation mgl32.Quat

	// Scale is the bone's local scale along each axis.
	Scale mgl32.Vec3

	// Parent is a back-link to the parent bone (nil for roots). It never owns the parent.
	Parent *Bone
}

// NewBone creates a bone with an identity local transform.
//
// Parameters:
//   - name: the bone identifier
//
// Returns:
//   - *Bone: the new bone
func NewBone(name string) *Bone {
	return &Bone{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Component returns the bone's current value for a channel in that channel's fixed component order:
// x, y, z for position and scale; w, x, y, z for rotation.
//
// Parameters:
//   - kind: the channel to read
//
// Returns:
//   - []float32: a fresh stride-sized slice, or nil for an invalid kind
func (b *Bone) Component(kind ChannelKind) []float32 {
	switch kind {
	case ChannelPosition:
		return []float32{b.Position[0], b.Position[1], b.Position[2]}
	case ChannelRotation:
		return []float32{b.Rotation.W, b.Rotation.V[0], b.Rotation.V[1], b.Rotation.V[2]}
	case ChannelScale:
		return []float32{b.Scale[0], b.Scale[1], b.Scale[2]}
	default:
		return nil
	}
}

// SetComponent writes a channel value given in the channel's fixed component order.
//
// Parameters:
//   - kind: the channel to write
//   - v: the value, must hold exactly kind.Stride() numbers
//
// Returns:
//   - error: error if kind is invalid or v has the wrong length
func (b *Bone) SetComponent(kind ChannelKind, v []float32) error {
	if !kind.Valid() {
		return fmt.Errorf("bone %q: %w: %d", b.Name, ErrInvalidChannel, int(kind))
	}
	if len(v) != kind.Stride() {
		return fmt.Errorf("bone %q: %s value has %d components, want %d", b.Name, kind, len(v), kind.Stride())
	}
	switch kind {
	case ChannelPosition:
		b.Position = mgl32.Vec3{v[0], v[1], v[2]}
	case ChannelRotation:
		b.Rotation = mgl32.Quat{W: v[0], V: mgl32.Vec3{v[1], v[2], v[3]}}
	case ChannelScale:
		b.Scale = mgl32.Vec3{v[0], v[1], v[2]}
	}
	return nil
}

// Skeleton is the ordered, hierarchical set of bones belonging to a loaded model.
// It owns its bones; Bone.Parent links are weak back-references into the same skeleton.
type Skeleton struct {
	bones  []*Bone
	byName map[string]int
}

// NewSkeleton builds a skeleton from an ordered bone list and a parallel list of parent indices
// (-1 for roots). Each bone's Parent field is set from parentIndices.
//
// Parameters:
//   - bones: the bones, in skeleton order
//   - parentIndices: parentIndices[i] is the index of bones[i]'s parent, or -1
//
// Returns:
//   - *Skeleton: the skeleton
//   - error: wraps ErrInvalidSkeleton on duplicate or empty names, or bad parent indices
func NewSkeleton(bones []*Bone, parentIndices []int) (*Skeleton, error) {
	if len(parentIndices) != len(bones) {
		return nil, fmt.Errorf("%w: %d bones but %d parent indices", ErrInvalidSkeleton, len(bones), len(parentIndices))
	}
	s := &Skeleton{
		bones:  append([]*Bone(nil), bones...),
		byName: make(map[string]int, len(bones)),
	}
	for i, b := range s.bones {
		if b == nil || b.Name == "" {
			return nil, fmt.Errorf("%w: bone %d has no name", ErrInvalidSkeleton, i)
		}
		if _, dup := s.byName[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate bone name %q", ErrInvalidSkeleton, b.Name)
		}
		s.byName[b.Name] = i
	}
	for i, p := range parentIndices {
		switch {
		case p < 0:
			s.bones[i].Parent = nil
		case p >= len(bones) || p == i:
			return nil, fmt.Errorf("%w: bone %q has invalid parent index %d", ErrInvalidSkeleton, s.bones[i].Name, p)
		default:
			s.bones[i].Parent = s.bones[p]
		}
	}
	return s, nil
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.bones)
}

// Bones returns a copy of the ordered bone list.
func (s *Skeleton) Bones() []*Bone {
	return append([]*Bone(nil), s.bones...)
}

// At returns the bone at index i.
func (s *Skeleton) At(i int) *Bone {
	return s.bones[i]
}

// Bone looks up a bone by name. Returns nil if no bone has that name.
//
// Parameters:
//   - name: the bone identifier
//
// Returns:
//   - *Bone: the bone or nil
func (s *Skeleton) Bone(name string) *Bone {
	if i, ok := s.byName[name]; ok {
		return s.bones[i]
	}
	return nil
}

// Index returns the position of a bone in the skeleton order, or -1.
func (s *Skeleton) Index(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// Roots returns the bones that have no parent, in skeleton order.
func (s *Skeleton) Roots() []*Bone {
	var roots []*Bone
	for _, b := range s.bones {
		if b.Parent == nil {
			roots = append(roots, b)
		}
	}
	return roots
}

// Children returns the direct children of b, in skeleton order.
func (s *Skeleton) Children(b *Bone) []*Bone {
	var children []*Bone
	for _, c := range s.bones {
		if c.Parent == b {
			children = append(children, c)
		}
	}
	return children
}
