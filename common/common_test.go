package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSnap(t *testing.T) {
	assert.Equal(t, float32(10), Snap(12, 10))
	assert.Equal(t, float32(20), Snap(15, 10))
	assert.Equal(t, float32(-30), Snap(-26, 15))
	assert.Equal(t, float32(3.7), Snap(3.7, 0), "non-positive step disables snapping")
	assert.Equal(t, mgl32.Vec3{10, 0, -10}, SnapVec3(mgl32.Vec3{7, 2, -11}, 10))
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, float32(2), Clamp(2.1, 0.2, 2))
	assert.Equal(t, float32(0.2), Clamp(0.1, 0.2, 2))
	assert.Equal(t, float32(0.3), RoundTo(0.1+0.1+0.1, 1))
}

func TestHexToRGB(t *testing.T) {
	r, g, b := HexToRGB(0xff8000)
	assert.InDelta(t, 1, r, 1e-9)
	assert.InDelta(t, 128.0/255, g, 1e-9)
	assert.InDelta(t, 0, b, 1e-9)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, 0, DigitIndex(Key1))
	assert.Equal(t, 8, DigitIndex(Key9))
	assert.Equal(t, -1, DigitIndex(Key0))
	assert.True(t, IsSnapModifier(KeyLeftControl))
	assert.False(t, IsSnapModifier(KeyW))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "store.db", Coalesce("", "store.db", "other.db"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
