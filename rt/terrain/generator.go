package terrain

import (
	"github.com/voxr/voxr/rt/volume"
)

const (
	PerlinScale = 5.0
	WaterHeight = 15

	sandLow, sandHigh         = 13, 17
	sandFuzzLow, sandFuzzHigh = 11, 18

	treeMinBlocks, treeMaxBlocks = 19, 25
	trunkHeight                  = 5
)

// Generator fills chunk voxels from a height field.
type Generator struct {
	Noise Noise
	Seed  int64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{Noise: NewFractal(seed), Seed: seed}
}

// SetSeed swaps in fresh noise for seed. It must not run while chunks are
// being filled.
func (g *Generator) SetSeed(seed int64) {
	g.Noise = NewFractal(seed)
	g.Seed = seed
}

// ColumnHeight returns the number of solid blocks in the column at world
// voxel coordinates (wx, wz).
func (g *Generator) ColumnHeight(wx, wz int) int {
	fx, fz := g.scaled(wx, wz)
	h := (g.Noise.Value(fx, 0, fz) + 2) / 6
	return int(h * volume.ChunkWidth)
}

func (g *Generator) scaled(wx, wz int) (float64, float64) {
	vs := float64(volume.VoxelSize)
	return float64(wx) * vs / PerlinScale, float64(wz) * vs / PerlinScale
}

// Fill overwrites voxels with terrain for a chunk whose local (0,0,0) sits at
// world voxel coordinate origin. Only the XZ part of origin is used; the
// height field always starts at local y 0.
func (g *Generator) Fill(voxels *[volume.ChunkVolume]volume.Voxel, origin [3]int) {
	*voxels = [volume.ChunkVolume]volume.Voxel{}
	set := func(v volume.Voxel, x, y, z int) {
		if volume.InBounds(x, y, z) {
			voxels[volume.Index(x, y, z)] = v
		}
	}

	for z := 0; z < volume.ChunkWidth; z++ {
		for x := 0; x < volume.ChunkWidth; x++ {
			wx, wz := origin[0]+x, origin[2]+z
			blocks := g.ColumnHeight(wx, wz)

			for y := 0; y < blocks && y < volume.ChunkWidth; y++ {
				set(g.surfaceVoxel(wx, y, wz), x, y, z)
			}
			for y := max(blocks, 0); y < WaterHeight; y++ {
				set(volume.Water, x, y, z)
			}

			if g.treeAt(x, z, wx, wz, blocks) {
				g.plantTree(set, x, z, wx, wz, blocks)
			}
		}
	}
}

func (g *Generator) surfaceVoxel(wx, y, wz int) volume.Voxel {
	if y > sandLow && y < sandHigh {
		return volume.Sand
	}
	if y > sandFuzzLow && y < sandFuzzHigh && volume.Hash3(g.Seed, wx, y, wz)%3 == 0 {
		return volume.Sand
	}
	return volume.Grass
}

func (g *Generator) treeAt(x, z, wx, wz, blocks int) bool {
	if blocks <= treeMinBlocks || blocks >= treeMaxBlocks {
		return false
	}
	if x%2 == z%2 {
		return false
	}
	w := volume.ChunkWidth
	if x <= 1 || z <= 1 || x >= w-2 || z >= w-2 {
		return false
	}
	fx, fz := g.scaled(wx, wz)
	return g.Noise.Value(fx, 69, fz) > 0.3 && g.Noise.Value(fx*1000, 69, fz*1000) > 0.7
}

func (g *Generator) plantTree(set func(volume.Voxel, int, int, int), x, z, wx, wz, blocks int) {
	for y := blocks; y < blocks+trunkHeight; y++ {
		set(volume.Wood, x, y, z)
	}
	set(volume.Leaf, x, blocks+5, z)

	top := blocks + 4
	set(volume.Leaf, x-1, top, z)
	set(volume.Leaf, x, top, z-1)
	set(volume.Leaf, x+1, top, z)
	set(volume.Leaf, x, top, z+1)

	mid := blocks + 3
	set(volume.Leaf, x-2, mid, z)
	set(volume.Leaf, x, mid, z-2)
	set(volume.Leaf, x+2, mid, z)
	set(volume.Leaf, x, mid, z+2)

	fx, fz := g.scaled(wx, wz)
	diagonals := [4]struct {
		dx, dz int
		layer  float64
	}{{-1, -1, -69}, {-1, 1, 169}, {1, -1, 269}, {1, 1, 369}}
	for _, d := range diagonals {
		if g.Noise.Value(fx*1000, d.layer, fz*1000) > 0.2 {
			set(volume.Leaf, x+d.dx, mid, z+d.dz)
		}
	}
}
