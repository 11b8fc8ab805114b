package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	ShadowDistance  float32 = 6
	shadowEyeOffset float32 = 10
	shadowNear      float32 = 1
	shadowFar       float32 = 50
)

// LightDir is the directional light; the chunk shader uses the same vector.
var LightDir = mgl32.Vec3{0.5, -1.5, -0.7}

// ShadowBounds is the world XZ footprint covered by the shadow map.
type ShadowBounds struct {
	MinX, MaxX float32
	MinZ, MaxZ float32
}

// Overlaps reports whether a box centred at pos with half extent h touches the footprint.
func (b ShadowBounds) Overlaps(pos mgl32.Vec3, h float32) bool {
	return pos[0]+h >= b.MinX && pos[0]-h <= b.MaxX &&
		pos[2]+h >= b.MinZ && pos[2]-h <= b.MaxZ
}

// ShadowViewProj fits an orthographic light projection around the first
// ShadowDistance units of the view frustum.
func ShadowViewProj(corners [8]mgl32.Vec3, lightDir mgl32.Vec3) (mgl32.Mat4, ShadowBounds) {
	for i := 4; i < 8; i++ {
		near := corners[i-4]
		corners[i] = near.Add(corners[i].Sub(near).Normalize().Mul(ShadowDistance))
	}

	var center mgl32.Vec3
	for _, p := range corners {
		center = center.Add(p)
	}
	center = center.Mul(1.0 / float32(len(corners)))
	center[1] = 0

	view := mgl32.LookAtV(center.Sub(lightDir.Mul(shadowEyeOffset)), center, mgl32.Vec3{0, 1, 0})

	minX, maxX := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	minY, maxY := minX, maxX
	bounds := ShadowBounds{MinX: minX, MaxX: maxX, MinZ: minX, MaxZ: maxX}
	for _, c := range corners {
		p := view.Mul4x1(c.Vec4(1))
		minX = min(minX, p[0])
		maxX = max(maxX, p[0])
		minY = min(minY, p[1])
		maxY = max(maxY, p[1])

		bounds.MinX = min(bounds.MinX, c[0])
		bounds.MaxX = max(bounds.MaxX, c[0])
		bounds.MinZ = min(bounds.MinZ, c[2])
		bounds.MaxZ = max(bounds.MaxZ, c[2])
	}

	proj := mgl32.Ortho(minX, maxX, minY, maxY, shadowNear, shadowFar)
	return proj.Mul4(view), bounds
}
