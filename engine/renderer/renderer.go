package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrSurfaceUnconfigured is returned by RenderFrame while the window has no drawable area.
var ErrSurfaceUnconfigured = errors.New("renderer: surface not configured")

// Renderer draws the viewer's frames. It only reads scene state; it never writes animation data.
type Renderer interface {
	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetPresentMode sets how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetBackground sets the frame clear color.
	//
	// Parameters:
	//   - hex: the color as 0xRRGGBB
	SetBackground(hex uint32)

	// RenderFrame acquires, clears, submits and presents one frame.
	//
	// Returns:
	//   - error: ErrSurfaceUnconfigured while minimised, or an acquisition error
	RenderFrame() error

	// Release frees the GPU resources. The renderer must not be used afterwards.
	Release()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend     RendererBackend
	backendType RendererBackendType

	// Pending config applied once the backend exists.
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	background           uint32
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing into the given window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: error if no GPU adapter or device is available
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		backendType: backendType,
		background:  0xbbbbbb,
	}

	// Options first so forceFallbackAdapter is known before the adapter request.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("renderer: %w", err)
		}
		r.backend = b
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.SetBackground(r.background)
	r.backend.ConfigureSurface(win.Width(), win.Height())
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetBackground(hex uint32) {
	r.background = hex
	red, green, blue := common.HexToRGB(hex)
	r.backend.SetClearColor(wgpu.Color{R: red, G: green, B: blue, A: 1.0})
}

func (r *renderer) RenderFrame() error {
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.backend.EndFrame()
	r.backend.Present()
	return nil
}

func (r *renderer) Release() {
	r.backend.Release()
}
