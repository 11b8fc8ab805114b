package stream

import (
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/voxr/voxr/rt/volume"
)

type genResult struct {
	h         Handle
	voxels    *[volume.ChunkVolume]volume.Voxel
	vertices  []volume.Vertex
	fromStore bool
}

// asyncLoader runs terrain fill and meshing on a worker pool. Workers only
// touch scratch memory; results are copied into chunks on the frame
// goroutine once the handle is confirmed live.
type asyncLoader struct {
	pool     pond.Pool
	workers  int
	inflight int
	wg       sync.WaitGroup

	mu   sync.Mutex
	done []genResult

	discarded int
}

func newAsyncLoader(workers int) *asyncLoader {
	return &asyncLoader{pool: pond.NewPool(workers), workers: workers}
}

// dispatch hands queued chunks to free workers.
func (a *asyncLoader) dispatch(m *Manager) {
	for a.inflight < a.workers {
		it, ok := m.pop()
		if !ok {
			return
		}
		a.inflight++
		a.wg.Add(1)

		source, store, seed := m.source, m.store, m.seed
		log := m.log
		a.pool.Submit(func() {
			defer a.wg.Done()
			r := genResult{h: it.h, voxels: new([volume.ChunkVolume]volume.Voxel)}

			if store != nil {
				data, found, err := store.LoadChunk(it.origin)
				if err != nil {
					log.Warnf("stream: load chunk %v: %v", it.origin, err)
				}
				if found && volume.CheckPayload(data) == nil {
					for i, b := range data {
						r.voxels[i] = volume.Voxel(b)
					}
					r.fromStore = true
				}
			}
			if !r.fromStore {
				source.Fill(r.voxels, it.origin)
			}
			r.vertices = volume.BuildMesh(r.voxels, it.origin, seed, nil)

			a.mu.Lock()
			a.done = append(a.done, r)
			a.mu.Unlock()
		})
	}
}

// publish applies finished results whose chunks are still in the window.
func (a *asyncLoader) publish(m *Manager) {
	a.mu.Lock()
	done := a.done
	a.done = nil
	a.mu.Unlock()

	for _, r := range done {
		a.inflight--
		c := m.lookup(r.h)
		if c == nil {
			a.discarded++
			continue
		}
		*c.Voxels() = *r.voxels
		if r.fromStore {
			c.MarkEdited()
		}
		c.ApplyMesh(r.vertices)
		m.processed++
	}
}

func (a *asyncLoader) wait(m *Manager) {
	a.wg.Wait()
	a.publish(m)
}

func (a *asyncLoader) close() {
	a.pool.StopAndWait()
	a.done = nil
	a.inflight = 0
}
