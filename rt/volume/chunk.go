package volume

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshBuffer is the GPU side of a chunk mesh. Upload replaces the contents.
type MeshBuffer interface {
	Upload(vertices []Vertex)
	Release()
}

// Chunk is a cube of ChunkWidth³ voxels stored flat, x fastest then y then z.
type Chunk struct {
	voxels [ChunkVolume]Voxel

	// Position is the world-space centre of the chunk.
	Position mgl32.Vec3
	// Origin is the world voxel coordinate of local cell (0,0,0).
	Origin [3]int

	buffer      MeshBuffer
	numVertices int

	dirty     bool
	generated bool
	edited    bool
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func Index(x, y, z int) int {
	return x + y*ChunkWidth + z*ChunkWidth*ChunkWidth
}

func InBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth && y >= 0 && y < ChunkWidth && z >= 0 && z < ChunkWidth
}

func (c *Chunk) checked(x, y, z int) int {
	if !InBounds(x, y, z) {
		panic(fmt.Sprintf("volume: voxel (%d,%d,%d) outside chunk of width %d", x, y, z, ChunkWidth))
	}
	return Index(x, y, z)
}

func (c *Chunk) GetVoxel(x, y, z int) Voxel {
	return c.voxels[c.checked(x, y, z)]
}

func (c *Chunk) SetVoxel(v Voxel, x, y, z int) {
	c.voxels[c.checked(x, y, z)] = v
	c.dirty = true
}

// SetVoxelUnmarked writes without touching the dirty flag. Terrain fill uses
// it since a freshly filled chunk is meshed unconditionally.
func (c *Chunk) SetVoxelUnmarked(v Voxel, x, y, z int) {
	c.voxels[c.checked(x, y, z)] = v
}

func (c *Chunk) Clear() {
	c.voxels = [ChunkVolume]Voxel{}
	c.dirty = true
}

// Voxels exposes the backing array. Callers that write through it must call
// MarkDirty themselves.
func (c *Chunk) Voxels() *[ChunkVolume]Voxel { return &c.voxels }

// CheckPayload validates a raw chunk payload without applying it.
func CheckPayload(data []byte) error {
	if len(data) != ChunkVolume {
		return fmt.Errorf("volume: chunk payload is %d bytes, want %d", len(data), ChunkVolume)
	}
	for i, b := range data {
		if !Voxel(b).Valid() {
			return fmt.Errorf("volume: invalid voxel kind %d at offset %d", b, i)
		}
	}
	return nil
}

// Load replaces every voxel from a raw byte payload of exactly ChunkVolume bytes.
func (c *Chunk) Load(data []byte) error {
	if err := CheckPayload(data); err != nil {
		return err
	}
	for i, b := range data {
		c.voxels[i] = Voxel(b)
	}
	c.dirty = true
	return nil
}

// Bytes returns a copy of the voxel payload.
func (c *Chunk) Bytes() []byte {
	out := make([]byte, ChunkVolume)
	for i, v := range c.voxels {
		out[i] = byte(v)
	}
	return out
}

// Place moves the chunk to a world-space centre and recomputes Origin.
func (c *Chunk) Place(pos mgl32.Vec3) {
	c.Position = pos
	half := ChunkWidth / 2
	for i := 0; i < 3; i++ {
		c.Origin[i] = int(math.Round(float64(pos[i]/VoxelSize))) - half
	}
}

// Bounds returns the world AABB of the chunk.
func (c *Chunk) Bounds() (min, max mgl32.Vec3) {
	h := ChunkWorldWidth / 2
	ext := mgl32.Vec3{h, h, h}
	return c.Position.Sub(ext), c.Position.Add(ext)
}

// LocalCenter is the chunk-relative centre of voxel (x,y,z).
func LocalCenter(x, y, z int) mgl32.Vec3 {
	f := func(i int) float32 { return (float32(i-ChunkWidth/2) + 0.5) * VoxelSize }
	return mgl32.Vec3{f(x), f(y), f(z)}
}

// VoxelCenter is the world-space centre of voxel (x,y,z).
func (c *Chunk) VoxelCenter(x, y, z int) mgl32.Vec3 {
	return c.Position.Add(LocalCenter(x, y, z))
}

func (c *Chunk) MarkDirty()      { c.dirty = true }
func (c *Chunk) Dirty() bool     { return c.dirty }
func (c *Chunk) Generated() bool { return c.generated }
func (c *Chunk) Edited() bool    { return c.edited }
func (c *Chunk) MarkEdited()     { c.edited = true }

// Reset prepares a recycled chunk for new content.
func (c *Chunk) Reset() {
	c.generated = false
	c.edited = false
	c.dirty = false
	c.numVertices = 0
}

func (c *Chunk) SetBuffer(b MeshBuffer) { c.buffer = b }
func (c *Chunk) Buffer() MeshBuffer     { return c.buffer }
func (c *Chunk) NumVertices() int       { return c.numVertices }

// Release frees the GPU buffer. The chunk must not be drawn afterwards.
func (c *Chunk) Release() {
	if c.buffer != nil {
		c.buffer.Release()
		c.buffer = nil
	}
	c.numVertices = 0
	c.generated = false
}
