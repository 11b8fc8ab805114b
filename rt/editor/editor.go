package editor

import (
	"github.com/voxr/voxr/rt/physics"
	"github.com/voxr/voxr/rt/volume"
)

const (
	EditsPerSecond = 17.5
	RepeatDelay    = 0.5
)

// Grid is the chunk window edits are applied to.
type Grid interface {
	ChunkOrNil(x, z int) *volume.Chunk
	RemeshDirty() int
}

// Repeater turns a held button into edit pulses: one on press, then a
// steady stream once the button has been held past RepeatDelay.
type Repeater struct {
	held   float32
	active bool
}

func (r *Repeater) Update(down bool, dt float32) bool {
	if !down {
		r.held = 0
		r.active = false
		return false
	}
	fire := !r.active || r.held > RepeatDelay
	r.active = true
	if fire && r.held > RepeatDelay {
		r.held -= 1 / EditsPerSecond
	}
	r.held += dt
	return fire
}

type Editor struct {
	grid Grid

	breakRep Repeater
	placeRep Repeater

	Edits int
}

func NewEditor(grid Grid) *Editor {
	return &Editor{grid: grid}
}

// Update applies held-button edits against the current hit. A nil hit
// still advances the repeat timers.
func (e *Editor) Update(hit *physics.HitResult, breakDown, placeDown bool, dt float32) int {
	fireBreak := e.breakRep.Update(breakDown, dt)
	firePlace := e.placeRep.Update(placeDown, dt)
	if hit == nil || hit.Chunk == nil {
		return 0
	}
	n := 0
	if fireBreak {
		n += e.Break(*hit)
	}
	if firePlace {
		n += e.Place(*hit)
	}
	return n
}

// Break clears the hit voxel and its six neighbours, then remeshes every
// touched chunk. It returns the number of voxels written.
func (e *Editor) Break(hit physics.HitResult) int {
	n := e.write(hit, volume.Air, true)
	e.grid.RemeshDirty()
	return n
}

// Place fills the six neighbours of the hit voxel with its own type.
func (e *Editor) Place(hit physics.HitResult) int {
	n := e.write(hit, hit.Voxel, false)
	e.grid.RemeshDirty()
	return n
}

var neighbours = [6][3]int{
	{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
}

func (e *Editor) write(hit physics.HitResult, v volume.Voxel, center bool) int {
	n := 0
	set := func(c *volume.Chunk, x, y, z int) {
		if c == nil || !c.Generated() {
			return
		}
		c.SetVoxel(v, x, y, z)
		c.MarkEdited()
		n++
	}

	p := hit.VoxelIndex
	if center {
		set(hit.Chunk, p[0], p[1], p[2])
	}

	w := volume.ChunkWidth
	for _, d := range neighbours {
		x, y, z := p[0]+d[0], p[1]+d[1], p[2]+d[2]
		if y < 0 || y >= w {
			continue
		}
		cx, cz := hit.ChunkIndex[0], hit.ChunkIndex[1]
		c := hit.Chunk
		switch {
		case x < 0:
			c, x = e.grid.ChunkOrNil(cx-1, cz), w-1
		case x >= w:
			c, x = e.grid.ChunkOrNil(cx+1, cz), 0
		case z < 0:
			c, z = e.grid.ChunkOrNil(cx, cz-1), w-1
		case z >= w:
			c, z = e.grid.ChunkOrNil(cx, cz+1), 0
		}
		set(c, x, y, z)
	}
	e.Edits += n
	return n
}
