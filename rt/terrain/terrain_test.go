package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxr/voxr/rt/volume"
)

type constNoise float64

func (c constNoise) Value(x, y, z float64) float64 { return float64(c) }

// heightsOnly keeps the height layer of n and disables trees.
type heightsOnly struct{ n Noise }

func (h heightsOnly) Value(x, y, z float64) float64 {
	if y != 0 {
		return -1
	}
	return h.n.Value(x, y, z)
}

func TestFractalDeterministic(t *testing.T) {
	a := NewFractal(12345)
	b := NewFractal(12345)
	for i := 0; i < 100; i++ {
		x, y, z := float64(i)*0.13, float64(i)*0.07, float64(i)*-0.21
		if a.Value(x, y, z) != b.Value(x, y, z) {
			t.Fatalf("Value not deterministic at (%f, %f, %f)", x, y, z)
		}
	}
}

func TestFractalRange(t *testing.T) {
	n := NewFractal(42)
	for i := 0; i < 10000; i++ {
		x := float64(i)*0.37 - 500
		z := float64(i)*0.53 - 500
		v := n.Value(x, 0, z)
		if v < -2 || v > 2 {
			t.Fatalf("Value(%f, 0, %f) = %f, out of [-2,2]", x, z, v)
		}
	}
}

func TestFractalSeedsDiffer(t *testing.T) {
	a := NewFractal(1)
	b := NewFractal(2)
	different := false
	for i := 0; i < 100 && !different; i++ {
		x := float64(i) * 0.1
		different = a.Value(x, 0, x*2) != b.Value(x, 0, x*2)
	}
	assert.True(t, different, "different seeds should produce different noise")
}

func TestFillLowlandFloods(t *testing.T) {
	g := &Generator{Noise: constNoise(-0.9)}
	var vox [volume.ChunkVolume]volume.Voxel
	g.Fill(&vox, [3]int{})

	at := func(x, y, z int) volume.Voxel { return vox[volume.Index(x, y, z)] }
	for y := 0; y < 8; y++ {
		assert.Equal(t, volume.Grass, at(10, y, 10), "y=%d", y)
	}
	for y := 8; y < WaterHeight; y++ {
		assert.Equal(t, volume.Water, at(10, y, 10), "y=%d", y)
	}
	assert.Equal(t, volume.Air, at(10, WaterHeight, 10))
}

func TestFillSandBand(t *testing.T) {
	g := &Generator{Noise: constNoise(0.8), Seed: 7}
	var vox [volume.ChunkVolume]volume.Voxel
	g.Fill(&vox, [3]int{})
	require.Equal(t, 22, g.ColumnHeight(0, 0))

	for z := 0; z < volume.ChunkWidth; z++ {
		for x := 0; x < volume.ChunkWidth; x++ {
			for y := 14; y <= 16; y++ {
				require.Equal(t, volume.Sand, vox[volume.Index(x, y, z)])
			}
			for y := 0; y <= 11; y++ {
				require.Equal(t, volume.Grass, vox[volume.Index(x, y, z)])
			}
			v := vox[volume.Index(x, 12, z)]
			require.True(t, v == volume.Grass || v == volume.Sand)
		}
	}
}

func TestFillPlantsTrees(t *testing.T) {
	g := &Generator{Noise: constNoise(0.8)}
	var vox [volume.ChunkVolume]volume.Voxel
	g.Fill(&vox, [3]int{})
	at := func(x, y, z int) volume.Voxel { return vox[volume.Index(x, y, z)] }

	// (3,2) is eligible, (2,2) has matching parity.
	assert.Equal(t, volume.Wood, at(3, 22, 2))
	assert.Equal(t, volume.Leaf, at(3, 27, 2))
	assert.Equal(t, volume.Air, at(3, 28, 2))
	assert.Equal(t, volume.Air, at(2, 22, 2))

	// Columns on the outer two-voxel border never get trunks.
	assert.Equal(t, volume.Air, at(1, 22, 0))
	assert.Equal(t, volume.Air, at(volume.ChunkWidth-1, 22, volume.ChunkWidth-2))
}

func TestFillSeamless(t *testing.T) {
	// Neighbouring chunks sample the same world columns at their shared edge.
	g := &Generator{Noise: heightsOnly{NewFractal(99)}, Seed: 99}
	var a, b [volume.ChunkVolume]volume.Voxel
	g.Fill(&a, [3]int{0, -24, 0})
	g.Fill(&b, [3]int{volume.ChunkWidth, -24, 0})

	w := volume.ChunkWidth
	for z := 0; z < w; z++ {
		ha := solidHeight(&a, w-1, z)
		require.Equal(t, min(g.ColumnHeight(w-1, z), w), ha)
		hb := solidHeight(&b, 0, z)
		require.Equal(t, min(g.ColumnHeight(w, z), w), hb)
	}
}

// solidHeight counts the leading non-water solid voxels of a column.
func solidHeight(vox *[volume.ChunkVolume]volume.Voxel, x, z int) int {
	n := 0
	for y := 0; y < volume.ChunkWidth; y++ {
		v := vox[volume.Index(x, y, z)]
		if v != volume.Grass && v != volume.Sand {
			break
		}
		n++
	}
	return n
}

func TestFillIsDeterministic(t *testing.T) {
	g := NewGenerator(5)
	var a, b [volume.ChunkVolume]volume.Voxel
	g.Fill(&a, [3]int{48, -24, -96})
	b[0] = volume.Wood
	g.Fill(&b, [3]int{48, -24, -96})
	assert.Equal(t, a, b)
}

func TestGeneratorSetSeed(t *testing.T) {
	g := NewGenerator(5)
	var a, b, c [volume.ChunkVolume]volume.Voxel
	g.Fill(&a, [3]int{0, -24, 0})

	g.SetSeed(6)
	assert.EqualValues(t, 6, g.Seed)
	g.Fill(&b, [3]int{0, -24, 0})
	assert.NotEqual(t, a, b)

	NewGenerator(6).Fill(&c, [3]int{0, -24, 0})
	assert.Equal(t, c, b, "reseeding matches a fresh generator")
}
