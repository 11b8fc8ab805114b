package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxr/voxr/rt/core"
	"github.com/voxr/voxr/rt/volume"
)

type fakeGrid struct {
	width  int
	chunks []*volume.Chunk
}

// newFakeGrid lays out generated, empty chunks centred on the origin.
func newFakeGrid(width int) *fakeGrid {
	g := &fakeGrid{width: width}
	half := width / 2
	for z := 0; z < width; z++ {
		for x := 0; x < width; x++ {
			c := volume.NewChunk()
			c.Place(mgl32.Vec3{volume.ChunkWorldWidth * float32(x-half), 0, volume.ChunkWorldWidth * float32(z-half)})
			c.GenerateMesh(0)
			g.chunks = append(g.chunks, c)
		}
	}
	return g
}

func (g *fakeGrid) Width() int                       { return g.width }
func (g *fakeGrid) Chunk(x, z int) *volume.Chunk     { return g.chunks[z*g.width+x] }
func (g *fakeGrid) set(x, z int, v volume.Voxel, p [3]int) {
	g.Chunk(x, z).SetVoxel(v, p[0], p[1], p[2])
}

func TestRaycastAxisAlignedHits(t *testing.T) {
	g := newFakeGrid(3)
	idx := [3]int{10, 20, 30}
	g.set(1, 1, volume.Wood, idx)
	center := g.Chunk(1, 1).VoxelCenter(idx[0], idx[1], idx[2])

	dirs := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for _, d := range dirs {
		ray := core.Ray{Origin: center.Sub(d.Mul(2)), Direction: d}
		hit, ok := Raycast(g, ray, 10)
		require.True(t, ok, "dir %v", d)
		assert.Equal(t, idx, hit.VoxelIndex)
		assert.Same(t, g.Chunk(1, 1), hit.Chunk)
		assert.Equal(t, [2]int{1, 1}, hit.ChunkIndex)
		assert.Equal(t, volume.Wood, hit.Voxel)
		assert.True(t, center.ApproxEqual(hit.Pos))
		assert.InDelta(t, 2-volume.VoxelSize/2*1.05, hit.T, 1e-4)
	}
}

func TestRaycastMissesAir(t *testing.T) {
	g := newFakeGrid(3)
	g.set(1, 1, volume.Sand, [3]int{0, 0, 0})

	ray := core.Ray{Origin: mgl32.Vec3{0, 1, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	_, ok := Raycast(g, ray, 20)
	assert.False(t, ok)

	ray = core.Ray{Origin: mgl32.Vec3{0, 10, 0}, Direction: mgl32.Vec3{0, 1, 0}}
	_, ok = Raycast(g, ray, 20)
	assert.False(t, ok)
}

func TestRaycastNearestAcrossChunks(t *testing.T) {
	g := newFakeGrid(3)
	p := [3]int{24, 24, 24}
	g.set(0, 1, volume.Grass, p)
	g.set(2, 1, volume.Leaf, p)
	g.set(1, 1, volume.Sand, p)

	origin := g.Chunk(0, 1).VoxelCenter(p[0], p[1], p[2]).Sub(mgl32.Vec3{1, 0, 0})
	hit, ok := Raycast(g, core.Ray{Origin: origin, Direction: mgl32.Vec3{1, 0, 0}}, 20)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 1}, hit.ChunkIndex)
	assert.Equal(t, volume.Grass, hit.Voxel)

	origin = g.Chunk(2, 1).VoxelCenter(p[0], p[1], p[2]).Add(mgl32.Vec3{1, 0, 0})
	hit, ok = Raycast(g, core.Ray{Origin: origin, Direction: mgl32.Vec3{-1, 0, 0}}, 20)
	require.True(t, ok)
	assert.Equal(t, volume.Leaf, hit.Voxel)
}

func TestRaycastNearestWithinChunk(t *testing.T) {
	g := newFakeGrid(1)
	c := g.Chunk(0, 0)
	c.SetVoxel(volume.Grass, 5, 5, 20)
	c.SetVoxel(volume.Wood, 5, 5, 10)

	origin := c.VoxelCenter(5, 5, 0)
	hit, ok := Raycast(g, core.Ray{Origin: origin, Direction: mgl32.Vec3{0, 0, 1}}, 20)
	require.True(t, ok)
	assert.Equal(t, [3]int{5, 5, 10}, hit.VoxelIndex)
}

func TestRaycastRespectsMaxDistance(t *testing.T) {
	g := newFakeGrid(1)
	g.set(0, 0, volume.Wood, [3]int{24, 24, 24})
	center := g.Chunk(0, 0).VoxelCenter(24, 24, 24)

	ray := core.Ray{Origin: center.Add(mgl32.Vec3{0, 1, 0}), Direction: mgl32.Vec3{0, -1, 0}}
	_, ok := Raycast(g, ray, 0.5)
	assert.False(t, ok)
	_, ok = Raycast(g, ray, 1.5)
	assert.True(t, ok)
}

func TestRaycastSkipsUngeneratedChunks(t *testing.T) {
	g := &fakeGrid{width: 1}
	c := volume.NewChunk()
	c.Place(mgl32.Vec3{})
	c.SetVoxel(volume.Wood, 24, 24, 24)
	g.chunks = []*volume.Chunk{c}

	ray := core.Ray{Origin: c.VoxelCenter(24, 30, 24), Direction: mgl32.Vec3{0, -1, 0}}
	_, ok := Raycast(g, ray, 5)
	assert.False(t, ok)
}

func floorGrid() *fakeGrid {
	g := newFakeGrid(1)
	c := g.Chunk(0, 0)
	for z := 0; z < volume.ChunkWidth; z++ {
		for x := 0; x < volume.ChunkWidth; x++ {
			c.SetVoxel(volume.Grass, x, 0, z)
		}
	}
	return g
}

func TestGravityDisabledIsNoop(t *testing.T) {
	g := NewGravity(0)
	assert.Equal(t, DefaultGravity, g.Accel)
	pos := mgl32.Vec3{0, 1, 0}
	assert.Equal(t, pos, g.Apply(pos, 0.1, floorGrid()))
	assert.Zero(t, g.Velocity)
}

func TestGravityFallsInAir(t *testing.T) {
	g := NewGravity(DefaultGravity)
	g.SetEnabled(true)
	pos := g.Apply(mgl32.Vec3{0, 1, 0}, 0.1, floorGrid())
	assert.InDelta(t, -0.981, g.Velocity, 1e-5)
	assert.InDelta(t, 1-0.0981, pos[1], 1e-5)
}

func TestGravityLandsOnGround(t *testing.T) {
	grid := floorGrid()
	floorY := grid.Chunk(0, 0).VoxelCenter(0, 0, 0)[1]
	target := floorY + 2*volume.VoxelSize + CamHeight

	g := NewGravity(DefaultGravity)
	g.SetEnabled(true)
	pos := mgl32.Vec3{0, target - 0.01, 0}
	before := target - pos[1]
	pos = g.Apply(pos, 0.01, grid)
	assert.Zero(t, g.Velocity)
	assert.Less(t, abs(target-pos[1]), before)

	for i := 0; i < 200; i++ {
		pos = g.Apply(pos, 0.01, grid)
	}
	assert.InDelta(t, target, pos[1], 2e-3)
}

func TestGravityToggleResetsVelocity(t *testing.T) {
	g := NewGravity(DefaultGravity)
	g.SetEnabled(true)
	g.Apply(mgl32.Vec3{0, 5, 0}, 0.1, floorGrid())
	require.NotZero(t, g.Velocity)
	g.SetEnabled(true)
	assert.NotZero(t, g.Velocity)
	g.SetEnabled(false)
	assert.Zero(t, g.Velocity)
	assert.False(t, g.Enabled())
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
