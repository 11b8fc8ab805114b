package voxr

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/voxr/voxr/rt/core"
	"github.com/voxr/voxr/rt/editor"
	"github.com/voxr/voxr/rt/physics"
	"github.com/voxr/voxr/rt/save"
	"github.com/voxr/voxr/rt/store"
	"github.com/voxr/voxr/rt/stream"
	"github.com/voxr/voxr/rt/terrain"
	"github.com/voxr/voxr/rt/volume"
)

// EditReach is how far from the eye voxels can be picked for editing.
const EditReach float32 = 5

type WorldOption func(*World)

// WithBuffers gives every chunk a GPU buffer from f.
func WithBuffers(f func() volume.MeshBuffer) WorldOption {
	return func(w *World) { w.newBuffer = f }
}

func WithLogger(l Logger) WorldOption {
	return func(w *World) { w.log = orNop(l) }
}

// WithStore overrides the chunk store picked from the config.
func WithStore(s store.Store) WorldOption {
	return func(w *World) { w.store = s }
}

// World ties the chunk window to the camera, physics and editing for one
// viewer.
type World struct {
	cfg Config
	log Logger

	Camera   *core.CameraState
	Frustum  core.Frustum
	Gravity  *physics.Gravity
	Chunks   *stream.Manager
	Editor   *editor.Editor
	Profiler *Profiler
	Terrain  *terrain.Generator

	store     store.Store
	ns        *store.Namespace
	newBuffer func() volume.MeshBuffer

	hit    physics.HitResult
	hasHit bool

	Wireframe bool
	ShowStats bool
}

type FrameStats struct {
	Visible   int
	Pending   int
	InFlight  int
	Edits     int
	Generated int
}

func NewWorld(cfg Config, opts ...WorldOption) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:      cfg,
		log:      NewNopLogger(),
		Camera:   core.NewCameraState(),
		Gravity:  physics.NewGravity(cfg.Physics.Gravity),
		Profiler: NewProfiler(),
		Terrain:  terrain.NewGenerator(cfg.World.Seed),
	}
	for _, o := range opts {
		o(w)
	}

	c := w.Camera
	c.Near, c.Far = cfg.Camera.Near, cfg.Camera.Far
	c.MoveSpeed, c.SprintMult, c.RotationSpeed = cfg.Camera.MoveSpeed, cfg.Camera.SprintMult, cfg.Camera.RotationSpeed
	w.Gravity.SetEnabled(cfg.Physics.Enabled)

	if w.store == nil {
		if cfg.Store.Path != "" {
			s, err := store.OpenLevelDB(cfg.Store.Path)
			if err != nil {
				return nil, err
			}
			w.store = s
		} else {
			w.store = store.NewMemory()
		}
	}
	w.ns = store.NewNamespace(w.store)
	if cfg.World.WorldID != "" {
		w.ns.ID = uuid.MustParse(cfg.World.WorldID)
	}

	opt := []stream.Option{
		stream.WithStore(w.ns),
		stream.WithLogger(w.log.With("stream")),
		stream.WithWorkers(cfg.World.Workers),
	}
	if w.newBuffer != nil {
		opt = append(opt, stream.WithBuffers(w.newBuffer))
	}
	w.Chunks = stream.NewManager(cfg.World.GridWidth, w.Terrain, cfg.World.Seed, opt...)
	w.Editor = editor.NewEditor(w.Chunks)

	w.log.Infof("world: seed %d, %dx%d chunks, namespace %s", cfg.World.Seed, cfg.World.GridWidth, cfg.World.GridWidth, w.ns.ID)
	return w, nil
}

func (w *World) Config() Config { return w.cfg }

// WorldID is the chunk store namespace currently in use.
func (w *World) WorldID() uuid.UUID { return w.ns.ID }

// Frame advances the world by dt seconds under the given input.
func (w *World) Frame(dt float32, in *Input) FrameStats {
	p := w.Profiler
	w.handleKeys(in)

	p.BeginScope("camera")
	w.Camera.ApplyInput(in.Move(), dt)
	w.Camera.Position = w.Gravity.Apply(w.Camera.Position, dt, w.Chunks)
	p.EndScope("camera")

	p.BeginScope("stream")
	w.Chunks.UpdateCameraPos(w.Camera.Position)
	p.EndScope("stream")

	w.Camera.UpdateFrustum(&w.Frustum, in.Aspect())

	p.BeginScope("edit")
	w.hit, w.hasHit = w.Pick()
	var hit *physics.HitResult
	if w.hasHit {
		hit = &w.hit
	}
	edits := w.Editor.Update(hit, in.Pressed[MouseButtonRight], in.Pressed[MouseButtonLeft], dt)
	p.EndScope("edit")

	p.BeginScope("remesh")
	w.Chunks.RemeshDirty()
	p.EndScope("remesh")

	stats := FrameStats{
		Visible:   w.Visible(func(*volume.Chunk) {}),
		Pending:   w.Chunks.Pending(),
		InFlight:  w.Chunks.InFlight(),
		Edits:     edits,
		Generated: w.Chunks.Processed(),
	}
	p.SetCount("visible", stats.Visible)
	p.SetCount("pending", stats.Pending)
	p.SetCount("shifts", w.Chunks.Shifts())
	return stats
}

func (w *World) handleKeys(in *Input) {
	switch {
	case in.Chord(KeyS):
		_ = w.SaveWorld(w.cfg.Save.Path)
	case in.Chord(KeyO):
		_ = w.OpenWorld(w.cfg.Save.Path)
	case in.Chord(KeyN):
		w.Regenerate(time.Now().UnixNano())
	}
	if in.JustPressed[KeyF] {
		w.Wireframe = !w.Wireframe
	}
	if in.JustPressed[KeyG] {
		w.Gravity.SetEnabled(!w.Gravity.Enabled())
		w.log.Debugf("world: gravity %v", w.Gravity.Enabled())
	}
	if in.JustPressed[KeyF3] {
		w.ShowStats = !w.ShowStats
		w.Profiler.Reset()
	}
}

// Pick casts the view ray from the eye.
func (w *World) Pick() (physics.HitResult, bool) {
	ray := core.Ray{Origin: w.Camera.Position, Direction: w.Camera.GetForward()}
	return physics.Raycast(w.Chunks, ray, EditReach)
}

// Target is the voxel under the crosshair as of the last frame.
func (w *World) Target() (physics.HitResult, bool) { return w.hit, w.hasHit }

// Visible calls fn for every meshed chunk inside the view frustum and
// returns how many there were.
func (w *World) Visible(fn func(c *volume.Chunk)) int {
	n := 0
	w.Chunks.Each(func(_, _ int, c *volume.Chunk) {
		if !c.Generated() || c.NumVertices() == 0 {
			return
		}
		if !w.Frustum.IsChunkInView(c.Position, volume.ChunkWorldWidth) {
			return
		}
		fn(c)
		n++
	})
	return n
}

// ShadowCasters calls fn for every meshed chunk inside the shadow footprint.
func (w *World) ShadowCasters(b core.ShadowBounds, fn func(c *volume.Chunk)) int {
	n := 0
	w.Chunks.Each(func(_, _ int, c *volume.Chunk) {
		if !c.Generated() || c.NumVertices() == 0 {
			return
		}
		if !b.Overlaps(c.Position, volume.ChunkWorldWidth/2) {
			return
		}
		fn(c)
		n++
	})
	return n
}

// SaveWorld writes the camera and every chunk of the window to path. The
// load queue is drained first so the file never holds empty chunks.
func (w *World) SaveWorld(path string) error {
	path = save.WithExtension(path)
	w.Chunks.FlushLoadQueue()
	center, chunks := w.Chunks.Snapshot()
	snap := save.Snapshot{
		CamPos: w.Camera.Position,
		CamRot: w.Camera.Rot(),
		Center: center,
		Chunks: chunks,
	}
	if err := save.WriteFile(path, snap, w.cfg.Save.Compress); err != nil {
		w.log.Errorf("world: save %s: %v", path, err)
		return fmt.Errorf("save world: %w", err)
	}
	w.log.Infof("world: saved %s", path)
	return nil
}

// OpenWorld replaces the window and camera with the contents of path. On
// any failure the current world is left as it was.
func (w *World) OpenWorld(path string) error {
	path = save.WithExtension(path)
	w.Chunks.FlushLoadQueue()
	snap, err := save.ReadFile(path, w.Chunks.Width())
	if err != nil {
		w.log.Errorf("world: open %s: %v", path, err)
		return fmt.Errorf("open world: %w", err)
	}
	if err := w.Chunks.Restore(snap.Center, snap.Chunks); err != nil {
		w.log.Errorf("world: open %s: %v", path, err)
		return fmt.Errorf("open world: %w", err)
	}
	w.Camera.Position = snap.CamPos
	w.Camera.SetRot(snap.CamRot)
	w.Gravity.Velocity = 0

	old := w.ns.ID
	w.ns.ID = uuid.New()
	if err := w.store.Drop(old); err != nil {
		w.log.Warnf("world: drop namespace %s: %v", old, err)
	}
	w.log.Infof("world: opened %s, namespace %s", path, w.ns.ID)
	return nil
}

// Regenerate replaces the window with fresh terrain from seed, centred on
// the chunk under the camera. Edits of the previous world are dropped with
// its namespace.
func (w *World) Regenerate(seed int64) {
	w.Chunks.SetSeed(seed)
	w.cfg.World.Seed = seed

	d := volume.ChunkWorldWidth
	pos := w.Camera.Position
	center := mgl32.Vec3{
		float32(math.Round(float64(pos[0]/d))) * d,
		0,
		float32(math.Round(float64(pos[2]/d))) * d,
	}
	w.Chunks.SetCenterChunkPos(center)

	old := w.ns.ID
	w.ns.ID = uuid.New()
	if err := w.store.Drop(old); err != nil {
		w.log.Warnf("world: drop namespace %s: %v", old, err)
	}
	w.log.Infof("world: regenerated with seed %d around %v, namespace %s", seed, center, w.ns.ID)
}

func (w *World) Close() error {
	w.Chunks.Close()
	return w.store.Close()
}
