package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxr/voxr/rt/core"
	"github.com/voxr/voxr/rt/volume"
)

const (
	DefaultGravity float32 = -9.81

	// CamHeight is how far the eye floats above the ground it stands on.
	CamHeight  float32 = 0.05
	probeRange float32 = 0.5
	snapRate   float32 = 50
)

// Gravity drops the camera until a short downward probe finds ground, then
// eases it onto the surface.
type Gravity struct {
	Accel    float32
	Velocity float32
	enabled  bool
}

func NewGravity(accel float32) *Gravity {
	if accel == 0 {
		accel = DefaultGravity
	}
	return &Gravity{Accel: accel}
}

func (g *Gravity) Enabled() bool { return g.enabled }

// SetEnabled toggles gravity. Changing state resets the fall velocity.
func (g *Gravity) SetEnabled(on bool) {
	if g.enabled != on {
		g.enabled = on
		g.Velocity = 0
	}
}

// Apply integrates one step and returns the new eye position.
func (g *Gravity) Apply(pos mgl32.Vec3, dt float32, grid Grid) mgl32.Vec3 {
	if !g.enabled {
		return pos
	}
	g.Velocity += g.Accel * dt
	pos[1] += g.Velocity * dt

	ray := core.Ray{
		Origin:    pos.Sub(mgl32.Vec3{0, CamHeight, 0}),
		Direction: mgl32.Vec3{0, -1, 0},
	}
	hit, ok := Raycast(grid, ray, probeRange)
	if !ok {
		return pos
	}

	ground := hit.Pos[1] + 2*volume.VoxelSize
	if pos[1]-ground < CamHeight {
		target := ground + CamHeight
		t := min(snapRate*dt, 1)
		pos[1] += (target - pos[1]) * t
		g.Velocity = 0
	}
	return pos
}
