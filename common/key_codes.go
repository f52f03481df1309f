package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87 // W key (ASCII), translate mode
	KeyE     = 69 // E key (ASCII), rotate mode
	KeyR     = 82 // R key (ASCII), scale mode
	KeyQ     = 81 // Q key (ASCII), toggle local/world space
	KeyS     = 83 // S key (ASCII), save clip
	KeySpace = 32 // Spacebar (ASCII), play/stop
	KeyMinus = 45 // - and _ key (ASCII)
	KeyEqual = 61 // = and + key (ASCII)

	KeyEsc      = 256 // Escape key (GLFW)
	KeyEnter    = 257 // Enter key (GLFW)
	KeyTab      = 258 // Tab key (GLFW)
	KeyRight    = 262 // Right arrow (GLFW)
	KeyLeft     = 263 // Left arrow (GLFW)
	KeyDown     = 264 // Down arrow (GLFW)
	KeyUp       = 265 // Up arrow (GLFW)
	KeyPageUp   = 266 // Page Up (GLFW)
	KeyPageDown = 267 // Page Down (GLFW)

	KeyKPSubtract = 333 // Keypad - (GLFW)
	KeyKPAdd      = 334 // Keypad + (GLFW)

	Key0 = 48 // 0 key (ASCII)
	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
	Key4 = 52 // 4 key (ASCII)
	Key5 = 53 // 5 key (ASCII)
	Key6 = 54 // 6 key (ASCII)
	Key7 = 55 // 7 key (ASCII)
	Key8 = 56 // 8 key (ASCII)
	Key9 = 57 // 9 key (ASCII)
)

// Modifier keys
const (
	KeyLeftShift    = 340 // Left Shift (GLFW)
	KeyLeftControl  = 341 // Left Control (GLFW)
	KeyLeftSuper    = 343 // Left Super / Windows / Command (GLFW)
	KeyRightShift   = 344 // Right Shift (GLFW)
	KeyRightControl = 345 // Right Control (GLFW)
	KeyRightSuper   = 347 // Right Super / Windows / Command (GLFW)
)

// IsSnapModifier reports whether keyCode is one of the keys that hold gizmo snapping on.
func IsSnapModifier(keyCode uint32) bool {
	switch keyCode {
	case KeyLeftControl, KeyRightControl, KeyLeftSuper, KeyRightSuper:
		return true
	}
	return false
}

// DigitIndex maps the 1-9 number row keys to the zero-based indices 0-8.
//
// Parameters:
//   - keyCode: the virtual key code
//
// Returns:
//   - int: the index, or -1 if keyCode is not 1-9
func DigitIndex(keyCode uint32) int {
	if keyCode >= Key1 && keyCode <= Key9 {
		return int(keyCode - Key1)
	}
	return -1
}
