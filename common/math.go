package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: lower bound
//   - hi: upper bound
//
// Returns:
//   - float32: v clamped to [lo, hi]
func Clamp(v, lo, hi float32) float32 {
	return mgl32.Clamp(v, lo, hi)
}

// Snap rounds v to the nearest multiple of step. A step of zero or less returns v unchanged.
//
// Parameters:
//   - v: the value to snap
//   - step: the snapping increment
//
// Returns:
//   - float32: the snapped value
func Snap(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return float32(math.Round(float64(v/step))) * step
}

// SnapVec3 snaps every component of v to the nearest multiple of step.
//
// Parameters:
//   - v: the vector to snap
//   - step: the snapping increment
//
// Returns:
//   - mgl32.Vec3: the snapped vector
func SnapVec3(v mgl32.Vec3, step float32) mgl32.Vec3 {
	return mgl32.Vec3{Snap(v[0], step), Snap(v[1], step), Snap(v[2], step)}
}

// RoundTo rounds v to the given number of decimal places. Used to keep stepped values such as the
// gizmo size free of accumulated float error.
//
// Parameters:
//   - v: the value to round
//   - places: number of decimal places
//
// Returns:
//   - float32: the rounded value
func RoundTo(v float32, places int) float32 {
	p := math.Pow(10, float64(places))
	return float32(math.Round(float64(v)*p) / p)
}

// HexToRGB splits a 0xRRGGBB color into normalized red, green and blue components.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - r, g, b: components in [0, 1]
func HexToRGB(hex uint32) (r, g, b float64) {
	r = float64((hex>>16)&0xff) / 255
	g = float64((hex>>8)&0xff) / 255
	b = float64(hex&0xff) / 255
	return r, g, b
}
