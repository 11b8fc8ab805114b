package physics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxr/voxr/rt/core"
	"github.com/voxr/voxr/rt/volume"
)

// boxInflate grows every tested box slightly so rays grazing shared edges
// still register.
const boxInflate = 1.05

// Grid is the chunk window a ray is cast against.
type Grid interface {
	Width() int
	Chunk(x, z int) *volume.Chunk
}

type HitResult struct {
	Pos        mgl32.Vec3
	Voxel      volume.Voxel
	Chunk      *volume.Chunk
	ChunkIndex [2]int
	VoxelIndex [3]int
	T          float32
}

type candidate struct {
	x, z  int
	chunk *volume.Chunk
	t     float32
}

// Raycast returns the nearest solid voxel along ray within maxDistance.
func Raycast(grid Grid, ray core.Ray, maxDistance float32) (HitResult, bool) {
	var cands []candidate
	half := volume.ChunkWorldWidth / 2
	n := grid.Width()
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			c := grid.Chunk(x, z)
			if !c.Generated() {
				continue
			}
			box := core.BoxAround(c.Position, half, boxInflate)
			if t, ok := core.RayAABBIntersection(ray, box, maxDistance); ok {
				cands = append(cands, candidate{x: x, z: z, chunk: c, t: t})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].t < cands[j].t })

	var best HitResult
	found := false
	tmax := maxDistance
	for _, cand := range cands {
		if cand.t >= tmax {
			break
		}
		if hit, ok := raycastChunk(ray, cand.chunk, tmax); ok {
			hit.Chunk = cand.chunk
			hit.ChunkIndex = [2]int{cand.x, cand.z}
			best, found = hit, true
			tmax = hit.T
		}
	}
	return best, found
}

func raycastChunk(ray core.Ray, c *volume.Chunk, tmax float32) (HitResult, bool) {
	var hit HitResult
	found := false
	half := volume.VoxelSize / 2
	voxels := c.Voxels()

	for y := volume.ChunkWidth - 1; y >= 0; y-- {
		for z := 0; z < volume.ChunkWidth; z++ {
			for x := 0; x < volume.ChunkWidth; x++ {
				v := voxels[volume.Index(x, y, z)]
				if v == volume.Air {
					continue
				}
				pos := c.VoxelCenter(x, y, z)
				t, ok := core.RayAABBIntersection(ray, core.BoxAround(pos, half, boxInflate), tmax)
				if !ok {
					continue
				}
				tmax = t
				found = true
				hit = HitResult{Pos: pos, Voxel: v, VoxelIndex: [3]int{x, y, z}, T: t}
			}
		}
	}
	return hit, found
}
