package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	cameraUniformSize = 256
	chunkUniformSize  = 16
	lightUniformSize  = 64
)

// clipDepth remaps OpenGL style [-1,1] clip depth, as produced by mgl32
// projections, to the [0,1] range WebGPU rasterizes.
var clipDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ClipSpace converts an mgl32 view-projection matrix for WebGPU.
func ClipSpace(m mgl32.Mat4) mgl32.Mat4 {
	return clipDepth.Mul4(m)
}

// CameraUniform is the chunk shader's group 0 uniform block.
type CameraUniform struct {
	ViewProj       mgl32.Mat4
	ShadowViewProj mgl32.Mat4
	CamPos         mgl32.Vec3
	LightDir       mgl32.Vec3
	Wireframe      bool
}

// Bytes packs the block as
//
//	view_proj: mat4x4<f32>         0
//	shadow_view_proj: mat4x4<f32>  64
//	cam_pos: vec4<f32>             128
//	light_dir: vec4<f32>           144
//	flags: vec4<u32>               160
func (u CameraUniform) Bytes() []byte {
	buf := make([]byte, cameraUniformSize)
	copy(buf[0:], mat4ToBytes(u.ViewProj))
	copy(buf[64:], mat4ToBytes(u.ShadowViewProj))
	copy(buf[128:], vec3ToBytesPadded(u.CamPos))
	copy(buf[144:], vec3ToBytesPadded(u.LightDir))
	if u.Wireframe {
		binary.LittleEndian.PutUint32(buf[160:], 1)
	}
	return buf
}

// Helpers
func mat4ToBytes(m [16]float32) []byte {
	buf := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func vec3ToBytesPadded(v [3]float32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
	return buf
}
