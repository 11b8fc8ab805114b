package core

import "github.com/go-gl/mathgl/mgl32"

// RayTMinFloor keeps a ray from hitting the box it starts on.
const RayTMinFloor float32 = 0.01

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

type AABB struct {
	Min, Max mgl32.Vec3
}

// BoxAround builds a box of the given half extent, scaled by inflate.
func BoxAround(center mgl32.Vec3, half, inflate float32) AABB {
	h := half * inflate
	e := mgl32.Vec3{h, h, h}
	return AABB{Min: center.Sub(e), Max: center.Add(e)}
}

// RayAABBIntersection is the slab test. It returns the entry parameter
// clamped to RayTMinFloor when the interval [tmin, tmax) is non-empty.
// Zero direction components divide to ±Inf, which the min/max handles.
func RayAABBIntersection(ray Ray, box AABB, tmax float32) (float32, bool) {
	tmin := RayTMinFloor
	for i := 0; i < 3; i++ {
		invD := 1 / ray.Direction[i]
		t0 := (box.Min[i] - ray.Origin[i]) * invD
		t1 := (box.Max[i] - ray.Origin[i]) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
	}
	if tmin < tmax {
		return tmin, true
	}
	return 0, false
}
