package gizmo

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// Size limits and step for the on-screen gizmo handles.
const (
	MinSize     float32 = 0.2
	MaxSize     float32 = 2.0
	SizeStep    float32 = 0.1
	DefaultSize float32 = 1.0
)

// Default snapping increments applied while a snap modifier key is held.
const (
	DefaultTranslationSnap float32 = 10
	DefaultRotationSnap    float32 = 15 // degrees
)

var (
	// ErrNoBone means the operation needs a bone attached to the gizmo.
	ErrNoBone = errors.New("gizmo: no bone attached")

	// ErrNotDragging means the operation needs an in-flight drag.
	ErrNotDragging = errors.New("gizmo: not dragging")

	// ErrInvalidMode means the mode is not translate, rotate or scale.
	ErrInvalidMode = errors.New("gizmo: invalid mode")
)

// Handler receives the discrete events a Gizmo produces. Every call happens synchronously on the
// goroutine driving the gizmo.
type Handler interface {
	// DragStart reports that the user grabbed bone with the given mode active.
	DragStart(bone *model.Bone, mode Mode) error

	// DragEnd reports that the user let go of bone; the bone already carries its new transform.
	DragEnd(bone *model.Bone, mode Mode) error

	// SetMode reports an explicit mode switch.
	SetMode(mode Mode)

	// Detach reports that the bone was released from the gizmo without committing a drag.
	Detach()
}

// gizmo is the implementation of the Gizmo interface.
type gizmo struct {
	handler Handler
	logger  *slog.Logger

	// bone is the attached bone, nil when detached.
	bone *model.Bone

	// dragging is true between Attach and Release.
	dragging bool

	mode  Mode
	space Space
	size  float32

	// snapping is true while a snap modifier key is held.
	snapping        bool
	translationSnap float32
	rotationSnap    float32 // degrees

	// Drag totals. Snapping rounds these rather than each step, so small nudges add up.
	startPosition mgl32.Vec3
	offset        mgl32.Vec3
	baseRotation  mgl32.Quat
	rotationAxis  mgl32.Vec3
	rotationSpace Space
	angle         float32 // radians about rotationAxis since baseRotation
}

// Gizmo is a headless transform widget. It owns the mode, space, size and snapping state of the
// on-screen handles, applies drags to the attached bone's local transform, and reports the
// drag lifecycle to its Handler.
type Gizmo interface {
	// Attach grabs bone and starts a drag, reporting DragStart to the handler. Attaching while a drag
	// is in flight replaces the previous bone without committing it.
	//
	// Parameters:
	//   - bone: the bone to grab
	//
	// Returns:
	//   - error: ErrNoBone for a nil bone, or the handler's DragStart error (the gizmo then stays detached)
	Attach(bone *model.Bone) error

	// Translate moves the attached bone by delta, expressed in the active space.
	// With snapping on, the total offset since Attach is rounded to the translation snap.
	//
	// Parameters:
	//   - delta: the translation
	//
	// Returns:
	//   - error: ErrNotDragging when no drag is in flight
	Translate(delta mgl32.Vec3) error

	// Rotate turns the attached bone about axis, expressed in the active space.
	// With snapping on, the total angle about axis is rounded to the rotation snap.
	// Switching axis or space mid-drag starts a new total from the current rotation.
	//
	// Parameters:
	//   - axis: the rotation axis (need not be normalized)
	//   - radians: the rotation angle
	//
	// Returns:
	//   - error: ErrNotDragging when no drag is in flight
	Rotate(axis mgl32.Vec3, radians float32) error

	// ScaleBy multiplies the attached bone's scale component-wise by factors.
	//
	// Parameters:
	//   - factors: per-axis multipliers
	//
	// Returns:
	//   - error: ErrNotDragging when no drag is in flight
	ScaleBy(factors mgl32.Vec3) error

	// Release ends the drag and reports DragEnd to the handler. The gizmo detaches afterwards
	// whether or not the handler accepted the edit.
	//
	// Returns:
	//   - error: ErrNotDragging, or the handler's DragEnd error
	Release() error

	// Detach drops the attached bone, cancelling any in-flight drag, and reports Detach to the handler.
	// The bone keeps whatever transform the drag gave it.
	Detach()

	// SetMode switches the active mode and reports it to the handler.
	//
	// Parameters:
	//   - mode: ModeTranslate, ModeRotate or ModeScale
	//
	// Returns:
	//   - error: ErrInvalidMode for any other value
	SetMode(mode Mode) error

	// ToggleSpace flips between local and world space.
	ToggleSpace()

	// SetSize sets the handle size, clamped to [MinSize, MaxSize].
	SetSize(size float32)

	// SetSnapping turns snapping on or off.
	SetSnapping(enabled bool)

	// HandleKeyDown applies the keyboard bindings for a pressed key.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	//
	// Returns:
	//   - bool: true if the key is bound to a gizmo action
	HandleKeyDown(keyCode uint32) bool

	// HandleKeyUp applies the keyboard bindings for a released key.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	//
	// Returns:
	//   - bool: true if the key is bound to a gizmo action
	HandleKeyUp(keyCode uint32) bool

	// Bone returns the attached bone, or nil.
	Bone() *model.Bone

	// Dragging reports whether a drag is in flight.
	Dragging() bool

	// Mode returns the active mode.
	Mode() Mode

	// Space returns the active space.
	Space() Space

	// Size returns the handle size.
	Size() float32

	// Snapping reports whether snapping is on.
	Snapping() bool
}

var _ Gizmo = &gizmo{}

// NewGizmo creates a new Gizmo reporting to handler, with the provided options applied.
// Defaults: translate mode, local space, size 1.0, snapping off with 10 unit / 15 degree increments.
//
// Parameters:
//   - handler: the receiver of drag events, usually the edit session
//   - options: a variadic list of GizmoBuilderOption functions
//
// Returns:
//   - Gizmo: the new gizmo
func NewGizmo(handler Handler, options ...GizmoBuilderOption) Gizmo {
	g := &gizmo{
		handler:         handler,
		logger:          slog.Default(),
		mode:            ModeTranslate,
		space:           SpaceLocal,
		size:            DefaultSize,
		translationSnap: DefaultTranslationSnap,
		rotationSnap:    DefaultRotationSnap,
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *gizmo) Attach(bone *model.Bone) error {
	if bone == nil {
		return ErrNoBone
	}
	if err := g.handler.DragStart(bone, g.mode); err != nil {
		g.bone = nil
		g.dragging = false
		return fmt.Errorf("attach %q: %w", bone.Name, err)
	}
	g.bone = bone
	g.dragging = true
	g.startPosition = bone.Position
	g.offset = mgl32.Vec3{}
	g.baseRotation = bone.Rotation
	g.rotationAxis = mgl32.Vec3{}
	g.angle = 0
	return nil
}

func (g *gizmo) Translate(delta mgl32.Vec3) error {
	if !g.dragging {
		return ErrNotDragging
	}
	var d mgl32.Vec3
	if g.space == SpaceWorld {
		d = parentWorldRotation(g.bone).Inverse().Rotate(delta)
	} else {
		d = g.bone.Rotation.Rotate(delta)
	}
	g.offset = g.offset.Add(d)
	offset := g.offset
	if g.snapping {
		offset = common.SnapVec3(offset, g.translationSnap)
	}
	g.bone.Position = g.startPosition.Add(offset)
	return nil
}

func (g *gizmo) Rotate(axis mgl32.Vec3, radians float32) error {
	if !g.dragging {
		return ErrNotDragging
	}
	if axis.Len() == 0 {
		return nil
	}
	n := axis.Normalize()
	if n != g.rotationAxis || g.space != g.rotationSpace {
		g.baseRotation = g.bone.Rotation
		g.rotationAxis = n
		g.rotationSpace = g.space
		g.angle = 0
	}
	g.angle += radians

	angle := g.angle
	if g.snapping {
		angle = mgl32.DegToRad(common.Snap(mgl32.RadToDeg(angle), g.rotationSnap))
	}
	if g.space == SpaceWorld {
		local := parentWorldRotation(g.bone).Inverse().Rotate(n)
		g.bone.Rotation = mgl32.QuatRotate(angle, local).Mul(g.baseRotation).Normalize()
	} else {
		g.bone.Rotation = g.baseRotation.Mul(mgl32.QuatRotate(angle, n)).Normalize()
	}
	return nil
}

func (g *gizmo) ScaleBy(factors mgl32.Vec3) error {
	if !g.dragging {
		return ErrNotDragging
	}
	s := g.bone.Scale
	g.bone.Scale = mgl32.Vec3{s[0] * factors[0], s[1] * factors[1], s[2] * factors[2]}
	return nil
}

func (g *gizmo) Release() error {
	if !g.dragging {
		return ErrNotDragging
	}
	bone, mode := g.bone, g.mode
	g.bone = nil
	g.dragging = false
	return g.handler.DragEnd(bone, mode)
}

func (g *gizmo) Detach() {
	if g.dragging {
		g.logger.Debug("drag cancelled by detach", "bone", g.bone.Name)
	}
	g.bone = nil
	g.dragging = false
	g.handler.Detach()
}

func (g *gizmo) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	g.mode = mode
	g.handler.SetMode(mode)
	return nil
}

func (g *gizmo) ToggleSpace() {
	if g.space == SpaceLocal {
		g.space = SpaceWorld
	} else {
		g.space = SpaceLocal
	}
}

func (g *gizmo) SetSize(size float32) {
	g.size = common.RoundTo(common.Clamp(size, MinSize, MaxSize), 1)
}

func (g *gizmo) SetSnapping(enabled bool) {
	g.snapping = enabled
}

func (g *gizmo) HandleKeyDown(keyCode uint32) bool {
	switch keyCode {
	case common.KeyEsc:
		g.Detach()
	case common.KeyQ:
		g.ToggleSpace()
	case common.KeyW:
		_ = g.SetMode(ModeTranslate)
	case common.KeyE:
		_ = g.SetMode(ModeRotate)
	case common.KeyR:
		_ = g.SetMode(ModeScale)
	case common.KeyEqual, common.KeyKPAdd:
		g.SetSize(g.size + SizeStep)
	case common.KeyMinus, common.KeyKPSubtract:
		g.SetSize(g.size - SizeStep)
	default:
		if common.IsSnapModifier(keyCode) {
			g.SetSnapping(true)
			return true
		}
		return false
	}
	return true
}

func (g *gizmo) HandleKeyUp(keyCode uint32) bool {
	if common.IsSnapModifier(keyCode) {
		g.SetSnapping(false)
		return true
	}
	return false
}

func (g *gizmo) Bone() *model.Bone {
	return g.bone
}

func (g *gizmo) Dragging() bool {
	return g.dragging
}

func (g *gizmo) Mode() Mode {
	return g.mode
}

func (g *gizmo) Space() Space {
	return g.space
}

func (g *gizmo) Size() float32 {
	return g.size
}

func (g *gizmo) Snapping() bool {
	return g.snapping
}

// parentWorldRotation accumulates the rotations of every ancestor of b, root first.
func parentWorldRotation(b *model.Bone) mgl32.Quat {
	q := mgl32.QuatIdent()
	for p := b.Parent; p != nil; p = p.Parent {
		q = p.Rotation.Mul(q)
	}
	return q
}
