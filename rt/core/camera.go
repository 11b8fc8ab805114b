package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	FovYDegrees = 60.0
	maxPitch    = math.Pi / 2.1
)

// MoveInput is one frame of camera controls.
type MoveInput struct {
	Forward, Back, Left, Right bool
	Up, Down                   bool
	// Planar flattens movement onto the XZ plane.
	Planar bool
	Sprint bool

	MouseDX, MouseDY float64
	MouseLook        bool
}

// CameraState is a Y-up fly camera. Yaw rotates about -Y, pitch about -X.
type CameraState struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	Near, Far     float32
	MoveSpeed     float32
	SprintMult    float32
	RotationSpeed float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:      mgl32.Vec3{0, 0.5, 2},
		Near:          0.01,
		Far:           25,
		MoveSpeed:     2,
		SprintMult:    2.5,
		RotationSpeed: 0.9,
	}
}

func (c *CameraState) rotation() mgl32.Mat4 {
	m := mgl32.HomogRotate3D(c.Yaw, mgl32.Vec3{0, -1, 0})
	return m.Mul4(mgl32.HomogRotate3D(c.Pitch, mgl32.Vec3{-1, 0, 0}))
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	return c.rotation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

func (c *CameraState) GetRight() mgl32.Vec3 {
	m := c.rotation().Mul4(mgl32.HomogRotate3D(math.Pi/2, mgl32.Vec3{0, -1, 0}))
	return m.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

func (c *CameraState) GetUp() mgl32.Vec3 {
	return c.GetRight().Cross(c.GetForward())
}

// Rot returns (yaw, pitch).
func (c *CameraState) Rot() mgl32.Vec2 { return mgl32.Vec2{c.Yaw, c.Pitch} }

func (c *CameraState) SetRot(r mgl32.Vec2) {
	c.Yaw = r[0]
	c.Pitch = mgl32.Clamp(r[1], -maxPitch, maxPitch)
}

// ApplyInput moves and turns the camera for one frame.
func (c *CameraState) ApplyInput(in MoveInput, dt float32) {
	fwd := c.GetForward()
	right := c.GetRight()

	if in.Planar {
		fwd = flatten(fwd)
		right = flatten(right)
	}
	if in.Sprint {
		fwd = fwd.Mul(c.SprintMult)
		right = right.Mul(c.SprintMult)
	}

	step := c.MoveSpeed * dt
	if in.Forward {
		c.Position = c.Position.Add(fwd.Mul(step))
	}
	if in.Back {
		c.Position = c.Position.Sub(fwd.Mul(step))
	}
	if in.Right {
		c.Position = c.Position.Add(right.Mul(step))
	}
	if in.Left {
		c.Position = c.Position.Sub(right.Mul(step))
	}
	if in.Up {
		c.Position[1] += step
	}
	if in.Down {
		c.Position[1] -= step
	}

	if in.MouseLook {
		c.Yaw += float32(in.MouseDX / 1000 * float64(c.RotationSpeed))
		c.Pitch += float32(in.MouseDY / 1000 * float64(c.RotationSpeed))
		c.Pitch = mgl32.Clamp(c.Pitch, -maxPitch, maxPitch)
	}
}

func flatten(v mgl32.Vec3) mgl32.Vec3 {
	v[1] = 0
	if v.Len() < 1e-6 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position
	return mgl32.LookAtV(eye, eye.Add(c.GetForward()), mgl32.Vec3{0, 1, 0})
}

func (c *CameraState) GetProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(FovYDegrees), aspect, c.Near, c.Far)
}

func (c *CameraState) ViewProj(aspect float32) mgl32.Mat4 {
	return c.GetProjectionMatrix(aspect).Mul4(c.GetViewMatrix())
}

// UpdateFrustum rebuilds f from the current pose.
func (c *CameraState) UpdateFrustum(f *Frustum, aspect float32) {
	f.Update(c.Position, c.GetForward(), c.GetRight(), c.Near, c.Far, aspect)
}
