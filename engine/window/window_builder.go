package window

// WindowBuilderOption is a functional option for configuring a Window via NewWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the initial title bar text. The engine replaces it with the session status once running.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		if title != "" {
			w.title = title
		}
	}
}

// WithSize sets the initial window size. Non-positive values keep the default.
// The framebuffer may be larger than this on high-DPI displays.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithSizeLimits bounds how far the user can resize the window. A non-positive value leaves that
// bound at its default.
//
// Parameters:
//   - minWidth, minHeight: smallest allowed size in pixels
//   - maxWidth, maxHeight: largest allowed size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		for _, limit := range []struct {
			dst *int
			v   int
		}{
			{&w.minWidth, minWidth},
			{&w.minHeight, minHeight},
			{&w.maxWidth, maxWidth},
			{&w.maxHeight, maxHeight},
		} {
			if limit.v > 0 {
				*limit.dst = limit.v
			}
		}
	}
}
