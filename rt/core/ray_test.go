package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestRayAABBIntersection(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	tests := []struct {
		name  string
		ray   Ray
		tmax  float32
		hit   bool
		wantT float32
	}{
		{"straight on", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}}, 100, true, 4},
		{"axis aligned offset", Ray{mgl32.Vec3{0.5, 0.5, -5}, mgl32.Vec3{0, 0, 1}}, 100, true, 4},
		{"miss", Ray{mgl32.Vec3{3, 0, 5}, mgl32.Vec3{0, 0, -1}}, 100, false, 0},
		{"pointing away", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}}, 100, false, 0},
		{"beyond tmax", Ray{mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}}, 3, false, 0},
		{"origin inside", Ray{mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}}, 100, true, RayTMinFloor},
		{"diagonal", Ray{mgl32.Vec3{-3, -3, 0}, mgl32.Vec3{1, 1, 0}.Normalize()}, 100, true, 2 * 1.41421356},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RayAABBIntersection(tt.ray, box, tt.tmax)
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, tt.wantT, got, 1e-4)
			}
		})
	}
}

func TestBoxAround(t *testing.T) {
	b := BoxAround(mgl32.Vec3{1, 2, 3}, 0.5, 1.05)
	assert.InDelta(t, 1-0.525, b.Min[0], 1e-6)
	assert.InDelta(t, 3+0.525, b.Max[2], 1e-6)
}

func TestRayAt(t *testing.T) {
	r := Ray{Origin: mgl32.Vec3{1, 1, 1}, Direction: mgl32.Vec3{0, -1, 0}}
	assert.Equal(t, mgl32.Vec3{1, -1, 1}, r.At(2))
}
