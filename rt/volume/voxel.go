package volume

import "github.com/go-gl/mathgl/mgl32"

const (
	ChunkWidth  = 48
	ChunkVolume = ChunkWidth * ChunkWidth * ChunkWidth

	VoxelSize       float32 = 1.0 / 16.0
	ChunkWorldWidth float32 = ChunkWidth * VoxelSize // 3.0
)

type Voxel uint8

const (
	Air Voxel = iota
	Grass
	Sand
	Water
	Wood
	Leaf

	voxelKinds
)

var voxelNames = [voxelKinds]string{"air", "grass", "sand", "water", "wood", "leaf"}

func (v Voxel) String() string {
	if v < voxelKinds {
		return voxelNames[v]
	}
	return "unknown"
}

func (v Voxel) Solid() bool { return v != Air }

// Valid reports whether v is one of the known voxel kinds. Loaders use it to
// reject corrupt payloads.
func (v Voxel) Valid() bool { return v < voxelKinds }

// palette holds the two reference colours each kind is shaded between.
var palette = [voxelKinds][2]mgl32.Vec3{
	Air:   {{0, 0, 0}, {0, 0, 0}},
	Grass: {{0.30, 0.62, 0.18}, {0.42, 0.74, 0.26}},
	Sand:  {{0.86, 0.80, 0.56}, {0.94, 0.88, 0.66}},
	Water: {{0.16, 0.36, 0.78}, {0.22, 0.46, 0.86}},
	Wood:  {{0.40, 0.26, 0.13}, {0.50, 0.33, 0.17}},
	Leaf:  {{0.13, 0.45, 0.12}, {0.22, 0.58, 0.20}},
}

// Shade returns the colour of v at t in [0,1] between its reference colours.
func (v Voxel) Shade(t float32) mgl32.Vec3 {
	if !v.Valid() {
		return mgl32.Vec3{1, 0, 1}
	}
	a, b := palette[v][0], palette[v][1]
	return a.Add(b.Sub(a).Mul(t))
}

// PackRGBA8 packs c into little-endian RGBA8 with opaque alpha.
func PackRGBA8(c mgl32.Vec3) uint32 {
	to8 := func(f float32) uint32 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint32(f*255 + 0.5)
	}
	return to8(c[0]) | to8(c[1])<<8 | to8(c[2])<<16 | 0xFF<<24
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash3 is a seeded integer lattice hash.
func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Unit maps a hash to [0,1).
func Unit(h uint64) float32 {
	return float32(h>>40) / float32(1<<24)
}
