package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func lookDownNegZ() *Frustum {
	f := &Frustum{}
	f.Update(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}, 0.01, 25, 16.0/9.0)
	return f
}

func TestFrustumPlanesFaceInward(t *testing.T) {
	f := lookDownNegZ()
	inside := mgl32.Vec3{0, 0, -5}
	for i, p := range f.Planes {
		assert.InDelta(t, 1, p.Normal.Len(), 1e-5, "plane %d not unit", i)
		assert.Greater(t, p.SignedDistance(inside), float32(0), "plane %d", i)
	}
}

func TestFrustumCulling(t *testing.T) {
	f := lookDownNegZ()
	const width = 3.0

	tests := []struct {
		name     string
		pos      mgl32.Vec3
		expected bool
	}{
		{"ahead", mgl32.Vec3{0, 0, -10}, true},
		{"at camera", mgl32.Vec3{0, 0, 0}, true},
		{"behind far plane", mgl32.Vec3{0, 0, -40}, false},
		{"straddles far plane", mgl32.Vec3{0, 0, -26}, true},
		{"behind camera", mgl32.Vec3{0, 0, 5}, false},
		{"outside left", mgl32.Vec3{-30, 0, -10}, false},
		{"outside right", mgl32.Vec3{30, 0, -10}, false},
		{"above", mgl32.Vec3{0, 20, -10}, false},
		{"below", mgl32.Vec3{0, -20, -10}, false},
		{"touching left edge", mgl32.Vec3{-10.5, 0, -10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.IsChunkInView(tt.pos, width))
		})
	}
}

func TestFrustumFollowsCamera(t *testing.T) {
	cam := NewCameraState()
	cam.Position = mgl32.Vec3{6, 1, 6}
	cam.Yaw = mgl32.DegToRad(90) // facing +X

	f := &Frustum{}
	cam.UpdateFrustum(f, 1)

	assert.True(t, f.IsChunkInView(mgl32.Vec3{12, 1, 6}, 3))
	assert.False(t, f.IsChunkInView(mgl32.Vec3{0, 1, 6}, 1))
	assert.True(t, f.IsChunkInView(cam.Position, 3))
}

func TestFrustumCorners(t *testing.T) {
	f := lookDownNegZ()
	c := f.Corners()

	for i := CornerNearTL; i <= CornerNearBR; i++ {
		assert.InDelta(t, -0.01, c[i][2], 1e-6)
	}
	for i := CornerFarTL; i <= CornerFarBR; i++ {
		assert.InDelta(t, -25, c[i][2], 1e-4)
	}
	assert.Greater(t, c[CornerFarTR][0], c[CornerFarTL][0])
	assert.Greater(t, c[CornerFarTL][1], c[CornerFarBL][1])
	assert.Greater(t, c[CornerNearTR][0], c[CornerNearTL][0])
}
