package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a half-space: a point p is inside when Normal·p - Dist >= 0.
type Plane struct {
	Normal mgl32.Vec3
	Dist   float32
}

func (p Plane) SignedDistance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) - p.Dist
}

const (
	PlaneNear = iota
	PlaneFar
	PlaneLeft
	PlaneRight
	PlaneTop
	PlaneBottom
)

// Corner order: near TL, TR, BL, BR, then far TL, TR, BL, BR.
const (
	CornerNearTL = iota
	CornerNearTR
	CornerNearBL
	CornerNearBR
	CornerFarTL
	CornerFarTR
	CornerFarBL
	CornerFarBR
)

// Frustum is a symmetric perspective view volume with inward-facing planes.
type Frustum struct {
	Planes  [6]Plane
	corners [8]mgl32.Vec3
}

// Update rebuilds the planes for a 60° vertical field of view.
func (f *Frustum) Update(camPos, fwd, right mgl32.Vec3, zNear, zFar, aspect float32) {
	up := right.Cross(fwd)

	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(FovYDegrees)) / 2))
	nearH := 2 * tanHalf * zNear
	nearW := nearH * aspect
	farH := 2 * tanHalf * zFar
	farW := farH * aspect

	nearCenter := camPos.Add(fwd.Mul(zNear))
	nBL := nearCenter.Sub(right.Mul(nearW / 2)).Sub(up.Mul(nearH / 2))
	nTL := nBL.Add(up.Mul(nearH))
	nBR := nBL.Add(right.Mul(nearW))
	nTR := nTL.Add(right.Mul(nearW))

	farCenter := camPos.Add(fwd.Mul(zFar))
	farLeft := farCenter.Sub(right.Mul(farW / 2))
	farRight := farLeft.Add(right.Mul(farW))
	farTop := farCenter.Add(up.Mul(farH / 2))
	farBottom := farTop.Sub(up.Mul(farH))

	f.Planes[PlaneNear] = Plane{Normal: fwd, Dist: nearCenter.Dot(fwd)}
	back := fwd.Mul(-1)
	f.Planes[PlaneFar] = Plane{Normal: back, Dist: farCenter.Dot(back)}

	f.Planes[PlaneLeft] = planeThrough(farLeft.Sub(nTL).Cross(farLeft.Sub(nBL)), nBL)
	f.Planes[PlaneRight] = planeThrough(farRight.Sub(nBR).Cross(farRight.Sub(nTR)), nBR)
	f.Planes[PlaneTop] = planeThrough(farTop.Sub(nTR).Cross(farTop.Sub(nTL)), nTL)
	f.Planes[PlaneBottom] = planeThrough(farBottom.Sub(nBL).Cross(farBottom.Sub(nBR)), nBR)

	fTL := farLeft.Add(up.Mul(farH / 2))
	fTR := farRight.Add(up.Mul(farH / 2))
	f.corners = [8]mgl32.Vec3{
		nTL, nTR, nBL, nBR,
		fTL, fTR, fTL.Sub(up.Mul(farH)), fTR.Sub(up.Mul(farH)),
	}
}

func planeThrough(n, p mgl32.Vec3) Plane {
	n = n.Normalize()
	return Plane{Normal: n, Dist: n.Dot(p)}
}

// IsBoxInView reports whether the box is not entirely outside any plane.
func (f *Frustum) IsBoxInView(center, halfExtent mgl32.Vec3) bool {
	for _, p := range f.Planes {
		r := halfExtent[0]*abs(p.Normal[0]) + halfExtent[1]*abs(p.Normal[1]) + halfExtent[2]*abs(p.Normal[2])
		if p.SignedDistance(center) < -r {
			return false
		}
	}
	return true
}

// IsChunkInView tests a chunk centred at pos with the given world width.
func (f *Frustum) IsChunkInView(pos mgl32.Vec3, width float32) bool {
	h := width / 2
	return f.IsBoxInView(pos, mgl32.Vec3{h, h, h})
}

func (f *Frustum) Corners() [8]mgl32.Vec3 { return f.corners }

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
