package volume

import "github.com/go-gl/mathgl/mgl32"

// Face normal indices as stored in Vertex.Normal.
const (
	FaceNegX uint32 = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

const VerticesPerFace = 6

// Vertex is the GPU layout of a chunk mesh vertex: 20 bytes.
type Vertex struct {
	Pos    [3]float32
	Normal uint32
	Color  uint32
}

var faceDirs = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// Corner signs, counter-clockwise seen from outside the cube.
var faceCorners = [6][4][3]float32{
	{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}},
	{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}},
	{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}},
	{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}},
	{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}},
	{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}},
}

var quadOrder = [VerticesPerFace]int{0, 1, 2, 2, 3, 0}

// FaceVisible reports whether face f of voxel (x,y,z) borders air or the
// chunk edge.
func FaceVisible(voxels *[ChunkVolume]Voxel, x, y, z, f int) bool {
	d := faceDirs[f]
	nx, ny, nz := x+d[0], y+d[1], z+d[2]
	if !InBounds(nx, ny, nz) {
		return true
	}
	return voxels[Index(nx, ny, nz)] == Air
}

// FaceCount counts the faces BuildMesh would emit.
func FaceCount(voxels *[ChunkVolume]Voxel) int {
	n := 0
	for i, v := range voxels {
		if v == Air {
			continue
		}
		x := i % ChunkWidth
		y := (i / ChunkWidth) % ChunkWidth
		z := i / (ChunkWidth * ChunkWidth)
		for f := 0; f < 6; f++ {
			if FaceVisible(voxels, x, y, z, f) {
				n++
			}
		}
	}
	return n
}

// BuildMesh appends the visible faces of voxels to dst and returns it.
// Colours hash the world voxel coordinate so output depends only on content,
// origin and seed.
func BuildMesh(voxels *[ChunkVolume]Voxel, origin [3]int, seed int64, dst []Vertex) []Vertex {
	r := VoxelSize / 2
	for y := ChunkWidth - 1; y >= 0; y-- {
		for z := 0; z < ChunkWidth; z++ {
			for x := 0; x < ChunkWidth; x++ {
				v := voxels[Index(x, y, z)]
				if v == Air {
					continue
				}
				h := Unit(Hash3(seed, origin[0]+x, origin[1]+y, origin[2]+z))
				color := PackRGBA8(v.Shade(h))
				center := LocalCenter(x, y, z)
				for f := 0; f < 6; f++ {
					if !FaceVisible(voxels, x, y, z, f) {
						continue
					}
					dst = appendFace(dst, center, r, f, color)
				}
			}
		}
	}
	return dst
}

func appendFace(dst []Vertex, center mgl32.Vec3, r float32, f int, color uint32) []Vertex {
	corners := &faceCorners[f]
	for _, ci := range quadOrder {
		s := corners[ci]
		dst = append(dst, Vertex{
			Pos:    [3]float32{center[0] + s[0]*r, center[1] + s[1]*r, center[2] + s[2]*r},
			Normal: uint32(f),
			Color:  color,
		})
	}
	return dst
}

// GenerateMesh rebuilds the mesh from the current voxels and uploads it.
func (c *Chunk) GenerateMesh(seed int64) {
	vertices := BuildMesh(&c.voxels, c.Origin, seed, make([]Vertex, 0, c.numVertices))
	c.ApplyMesh(vertices)
}

// ApplyMesh uploads a mesh built elsewhere, e.g. by a generation worker.
func (c *Chunk) ApplyMesh(vertices []Vertex) {
	if c.buffer != nil {
		c.buffer.Upload(vertices)
	}
	c.numVertices = len(vertices)
	c.dirty = false
	c.generated = true
}
