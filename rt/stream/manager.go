package stream

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxr/voxr/rt/volume"
)

// ShiftThreshold is how far the camera may drift from the centre chunk
// before the window slides.
const ShiftThreshold = volume.ChunkWorldWidth / 1.7

const DefaultWidth = 11

// Source fills chunk voxels for a world voxel origin.
type Source interface {
	Fill(voxels *[volume.ChunkVolume]volume.Voxel, origin [3]int)
}

// Reseeder is implemented by sources whose output depends on a seed.
type Reseeder interface {
	SetSeed(seed int64)
}

// ChunkStore persists edited chunks across evictions. Implementations must
// be safe for concurrent use when async generation is enabled.
type ChunkStore interface {
	LoadChunk(origin [3]int) ([]byte, bool, error)
	SaveChunk(origin [3]int, data []byte) error
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Handle names a chunk slot at a given generation. It goes stale when the
// slot's chunk is evicted.
type Handle struct {
	Slot uint32
	Gen  uint32
}

type slot struct {
	chunk *volume.Chunk
	gen   uint32
	live  bool
}

type loadItem struct {
	h      Handle
	origin [3]int
}

type Option func(*Manager)

// WithBuffers sets the factory used to give every new chunk a GPU buffer.
func WithBuffers(f func() volume.MeshBuffer) Option {
	return func(m *Manager) { m.newBuffer = f }
}

func WithStore(s ChunkStore) Option {
	return func(m *Manager) { m.store = s }
}

func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithWorkers enables background generation on n workers. n <= 0 keeps
// generation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(m *Manager) { m.workers = n }
}

// Manager owns the N×N window of chunks around the camera and the queue of
// chunks waiting for terrain and a mesh.
type Manager struct {
	width  int
	cells  []Handle // row-major (z, x)
	slots  []slot
	free   []uint32
	center mgl32.Vec3

	queue []loadItem
	head  int

	source Source
	seed   int64

	newBuffer func() volume.MeshBuffer
	store     ChunkStore
	log       Logger

	workers int
	async   *asyncLoader

	shifts    int
	processed int
}

// NewManager allocates the window centred on the origin and queues every cell.
func NewManager(width int, source Source, seed int64, opts ...Option) *Manager {
	if width < 1 || width%2 == 0 {
		panic(fmt.Sprintf("stream: grid width %d must be odd and positive", width))
	}
	m := &Manager{
		width:  width,
		cells:  make([]Handle, width*width),
		source: source,
		seed:   seed,
		log:    nopLogger{},
	}
	for _, o := range opts {
		o(m)
	}
	if m.workers > 0 {
		m.async = newAsyncLoader(m.workers)
	}

	for z := width - 1; z >= 0; z-- {
		for x := 0; x < width; x++ {
			h := m.alloc(m.WorldPos(x, z))
			m.cells[z*width+x] = h
			m.enqueue(h)
		}
	}
	return m
}

func (m *Manager) Width() int                 { return m.width }
func (m *Manager) Seed() int64                { return m.seed }
func (m *Manager) CenterChunkPos() mgl32.Vec3 { return m.center }

// Pending counts queue entries, including stale ones not yet skipped.
func (m *Manager) Pending() int { return len(m.queue) - m.head }

// InFlight counts chunks handed to workers and not yet published.
func (m *Manager) InFlight() int {
	if m.async == nil {
		return 0
	}
	return m.async.inflight
}

func (m *Manager) Shifts() int    { return m.shifts }
func (m *Manager) Processed() int { return m.processed }

// WorldPos maps a grid index to the world centre of its chunk.
func (m *Manager) WorldPos(x, z int) mgl32.Vec3 {
	d := volume.ChunkWorldWidth
	half := m.width / 2
	return m.center.Add(mgl32.Vec3{d * float32(x-half), 0, d * float32(z-half)})
}

func (m *Manager) checkIndex(x, z int) {
	if x < 0 || x >= m.width || z < 0 || z >= m.width {
		panic(fmt.Sprintf("stream: chunk index (%d,%d) outside grid of width %d", x, z, m.width))
	}
}

func (m *Manager) Handle(x, z int) Handle {
	m.checkIndex(x, z)
	return m.cells[z*m.width+x]
}

// Chunk returns the chunk at grid index (x, z). Out-of-range indices panic.
func (m *Manager) Chunk(x, z int) *volume.Chunk {
	return m.slots[m.Handle(x, z).Slot].chunk
}

// ChunkOrNil is Chunk without the bounds panic, for neighbour lookups at
// the edge of the window.
func (m *Manager) ChunkOrNil(x, z int) *volume.Chunk {
	if x < 0 || x >= m.width || z < 0 || z >= m.width {
		return nil
	}
	return m.Chunk(x, z)
}

// Valid reports whether h still names a live chunk.
func (m *Manager) Valid(h Handle) bool {
	if int(h.Slot) >= len(m.slots) {
		return false
	}
	s := &m.slots[h.Slot]
	return s.live && s.gen == h.Gen
}

func (m *Manager) lookup(h Handle) *volume.Chunk {
	if !m.Valid(h) {
		return nil
	}
	return m.slots[h.Slot].chunk
}

// Each visits every cell in row-major (z, x) order.
func (m *Manager) Each(fn func(x, z int, c *volume.Chunk)) {
	for z := 0; z < m.width; z++ {
		for x := 0; x < m.width; x++ {
			fn(x, z, m.slots[m.cells[z*m.width+x].Slot].chunk)
		}
	}
}

func (m *Manager) alloc(pos mgl32.Vec3) Handle {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot{chunk: volume.NewChunk()})
	}
	s := &m.slots[idx]
	s.live = true
	c := s.chunk
	c.Reset()
	c.Clear()
	c.Place(pos)
	if m.newBuffer != nil {
		c.SetBuffer(m.newBuffer())
	}
	return Handle{Slot: idx, Gen: s.gen}
}

// evict retires a slot. Bumping the generation invalidates queued and
// in-flight work for it.
func (m *Manager) evict(h Handle, persist bool) {
	s := &m.slots[h.Slot]
	if persist && m.store != nil && s.chunk.Edited() && s.chunk.Generated() {
		if err := m.store.SaveChunk(s.chunk.Origin, s.chunk.Bytes()); err != nil {
			m.log.Warnf("stream: save chunk %v: %v", s.chunk.Origin, err)
		}
	}
	s.chunk.Release()
	s.live = false
	s.gen++
	m.free = append(m.free, h.Slot)
}

func (m *Manager) enqueue(h Handle) {
	m.queue = append(m.queue, loadItem{h: h, origin: m.slots[h.Slot].chunk.Origin})
}

func (m *Manager) pop() (loadItem, bool) {
	for m.head < len(m.queue) {
		it := m.queue[m.head]
		m.queue[m.head] = loadItem{}
		m.head++
		switch {
		case m.head == len(m.queue):
			m.queue = m.queue[:0]
			m.head = 0
		case m.head > len(m.queue)/2:
			// Drop the consumed prefix so appends stop copying it.
			n := copy(m.queue, m.queue[m.head:])
			m.queue = m.queue[:n]
			m.head = 0
		}
		if m.Valid(it.h) {
			return it, true
		}
	}
	return loadItem{}, false
}

// UpdateCameraPos slides the window at most one step toward camPos, then
// processes one queued chunk.
func (m *Manager) UpdateCameraPos(camPos mgl32.Vec3) {
	if m.async != nil {
		m.async.publish(m)
	}

	switch {
	case camPos[0] > m.center[0]+ShiftThreshold:
		m.shift(1, 0)
	case camPos[0] < m.center[0]-ShiftThreshold:
		m.shift(-1, 0)
	case camPos[2] > m.center[2]+ShiftThreshold:
		m.shift(0, 1)
	case camPos[2] < m.center[2]-ShiftThreshold:
		m.shift(0, -1)
	}

	if m.async != nil {
		m.async.dispatch(m)
		return
	}
	m.ProcessNext()
}

// shift moves the window one chunk along x (dx) or z (dz).
func (m *Manager) shift(dx, dz int) {
	n := m.width
	d := volume.ChunkWorldWidth
	m.center = m.center.Add(mgl32.Vec3{d * float32(dx), 0, d * float32(dz)})
	m.shifts++

	old := make([]Handle, len(m.cells))
	copy(old, m.cells)

	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			sx, sz := x+dx, z+dz
			if sx >= 0 && sx < n && sz >= 0 && sz < n {
				m.cells[z*n+x] = old[sz*n+sx]
				continue
			}
			// Source cell lies outside the old window: this is the new edge.
			m.cells[z*n+x] = Handle{}
		}
	}

	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			tx, tz := x-dx, z-dz
			if tx < 0 || tx >= n || tz < 0 || tz >= n {
				m.evict(old[z*n+x], true)
			}
		}
	}

	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			sx, sz := x+dx, z+dz
			if sx >= 0 && sx < n && sz >= 0 && sz < n {
				continue
			}
			h := m.alloc(m.WorldPos(x, z))
			m.cells[z*n+x] = h
			m.enqueue(h)
		}
	}
	m.log.Debugf("stream: shifted window by (%d,%d), center %v, %d pending", dx, dz, m.center, m.Pending())
}

// ProcessNext generates and meshes the first live queued chunk. Stale
// entries are skipped without counting. It reports whether work was done.
func (m *Manager) ProcessNext() bool {
	it, ok := m.pop()
	if !ok {
		return false
	}
	m.generate(m.slots[it.h.Slot].chunk, it.origin)
	return true
}

func (m *Manager) generate(c *volume.Chunk, origin [3]int) {
	if data, ok := m.loadStored(origin); ok {
		err := c.Load(data)
		if err == nil {
			c.MarkEdited()
			c.GenerateMesh(m.seed)
			m.processed++
			return
		}
		m.log.Warnf("stream: stored chunk %v rejected: %v", origin, err)
	}
	m.source.Fill(c.Voxels(), origin)
	c.MarkDirty()
	c.GenerateMesh(m.seed)
	m.processed++
}

func (m *Manager) loadStored(origin [3]int) ([]byte, bool) {
	if m.store == nil {
		return nil, false
	}
	data, ok, err := m.store.LoadChunk(origin)
	if err != nil {
		m.log.Warnf("stream: load chunk %v: %v", origin, err)
		return nil, false
	}
	return data, ok
}

// FlushLoadQueue drains every queued chunk, including work already handed
// to workers.
func (m *Manager) FlushLoadQueue() {
	if m.async != nil {
		m.async.wait(m)
	}
	for m.ProcessNext() {
	}
}

// RemeshDirty regenerates the mesh of every generated chunk with pending
// voxel changes and returns how many were rebuilt.
func (m *Manager) RemeshDirty() int {
	n := 0
	m.Each(func(_, _ int, c *volume.Chunk) {
		if c.Generated() && c.Dirty() {
			c.GenerateMesh(m.seed)
			n++
		}
	})
	return n
}

// Snapshot returns the window centre and a copy of every chunk's voxels in
// row-major (z, x) order.
func (m *Manager) Snapshot() (mgl32.Vec3, [][]byte) {
	out := make([][]byte, 0, m.width*m.width)
	m.Each(func(_, _ int, c *volume.Chunk) {
		out = append(out, c.Bytes())
	})
	return m.center, out
}

// Restore replaces the whole window with saved content centred at center.
// Payloads are validated before any state changes.
func (m *Manager) Restore(center mgl32.Vec3, chunks [][]byte) error {
	if len(chunks) != m.width*m.width {
		return fmt.Errorf("stream: restore has %d chunks, want %d", len(chunks), m.width*m.width)
	}
	for i, data := range chunks {
		if err := volume.CheckPayload(data); err != nil {
			return fmt.Errorf("stream: chunk %d: %w", i, err)
		}
	}
	m.FlushLoadQueue()

	for _, h := range m.cells {
		m.evict(h, false)
	}
	m.center = center
	for z := 0; z < m.width; z++ {
		for x := 0; x < m.width; x++ {
			h := m.alloc(m.WorldPos(x, z))
			m.cells[z*m.width+x] = h
			c := m.slots[h.Slot].chunk
			_ = c.Load(chunks[z*m.width+x])
			c.MarkEdited()
			c.GenerateMesh(m.seed)
		}
	}
	return nil
}

// SetCenterChunkPos moves the window to center in one jump. Every cell is
// retired, edited chunks go to the store, and the whole window is queued
// again in construction order.
func (m *Manager) SetCenterChunkPos(center mgl32.Vec3) {
	for _, h := range m.cells {
		if m.Valid(h) {
			m.evict(h, true)
		}
	}
	m.center = center
	for z := m.width - 1; z >= 0; z-- {
		for x := 0; x < m.width; x++ {
			h := m.alloc(m.WorldPos(x, z))
			m.cells[z*m.width+x] = h
			m.enqueue(h)
		}
	}
	m.log.Debugf("stream: recentred on %v, %d pending", center, m.Pending())
}

// SetSeed reseeds the terrain source, when it supports it, and the voxel
// colouring. Chunks already in the window keep their content until they
// are regenerated, e.g. by SetCenterChunkPos.
func (m *Manager) SetSeed(seed int64) {
	if m.async != nil {
		m.async.wait(m)
	}
	if r, ok := m.source.(Reseeder); ok {
		r.SetSeed(seed)
	}
	m.seed = seed
}

// Close waits for background work and releases every chunk.
func (m *Manager) Close() {
	if m.async != nil {
		m.async.close()
	}
	for _, h := range m.cells {
		if m.Valid(h) {
			m.evict(h, true)
		}
	}
}
