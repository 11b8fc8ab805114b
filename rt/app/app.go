// Package app runs a World in a GLFW window drawn with WebGPU.
package app

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/voxr/voxr"
	"github.com/voxr/voxr/rt/core"
	"github.com/voxr/voxr/rt/gpu"
	"github.com/voxr/voxr/rt/hud"
	"github.com/voxr/voxr/rt/volume"
)

var keyToGlfw = map[voxr.Key]glfw.Key{
	voxr.KeyW:       glfw.KeyW,
	voxr.KeyA:       glfw.KeyA,
	voxr.KeyS:       glfw.KeyS,
	voxr.KeyD:       glfw.KeyD,
	voxr.KeyQ:       glfw.KeyQ,
	voxr.KeyE:       glfw.KeyE,
	voxr.KeyF:       glfw.KeyF,
	voxr.KeyG:       glfw.KeyG,
	voxr.KeyO:       glfw.KeyO,
	voxr.KeyN:       glfw.KeyN,
	voxr.KeyEscape:  glfw.KeyEscape,
	voxr.KeyShift:   glfw.KeyLeftShift,
	voxr.KeyControl: glfw.KeyLeftControl,
	voxr.KeyF3:      glfw.KeyF3,
}

type Options struct {
	// FontPath selects an OpenType face for the HUD. Empty uses the
	// built-in bitmap font.
	FontPath string
	FontSize float64
}

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Renderer *gpu.ChunkRenderer
	TextPass *gpu.TextPass
	Text     *hud.Text

	World *voxr.World
	Input voxr.Input

	log  voxr.Logger
	opts Options

	LastTime float64
	// swallowClick drops the press that captured the mouse until it is
	// released, so capturing never edits.
	swallowClick bool

	visible, casters []*volume.Chunk
}

func NewApp(window *glfw.Window, log voxr.Logger, opts Options) *App {
	if log == nil {
		log = voxr.NewNopLogger()
	}
	return &App{Window: window, log: log, opts: opts}
}

// Init sets up the device and renderer, then the world on top of them.
func (a *App) Init(cfg voxr.Config) error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	var err error
	a.Adapter, err = a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Device, err = a.Adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(a.Adapter)
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	a.Renderer, err = gpu.NewChunkRenderer(a.Device, a.Config.Format, a.Config.Width, a.Config.Height)
	if err != nil {
		return err
	}

	a.Text = hud.NewDefaultText()
	if a.opts.FontPath != "" {
		face, err := hud.LoadFont(a.opts.FontPath, a.opts.FontSize)
		if err != nil {
			a.log.Warnf("app: %v, using the built-in font", err)
		} else {
			a.Text = hud.NewText(face)
		}
	}
	a.TextPass, err = gpu.NewTextPass(a.Device, a.Config.Format, a.Text)
	if err != nil {
		return err
	}

	a.World, err = voxr.NewWorld(cfg,
		voxr.WithLogger(a.log),
		voxr.WithBuffers(a.Renderer.NewBuffer),
	)
	if err != nil {
		return err
	}

	a.Window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		a.Resize(w, h)
	})
	a.setCaptured(true)
	a.LastTime = glfw.GetTime()
	a.log.Infof("app: %dx%d surface, format %v", width, height, a.Config.Format)
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	if err := a.Renderer.Resize(a.Config.Width, a.Config.Height); err != nil {
		a.log.Errorf("app: resize: %v", err)
	}
}

func (a *App) setCaptured(on bool) {
	a.Input.MouseCaptured = on
	if on {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

// pollInput copies the window state into a.Input for this frame.
func (a *App) pollInput() {
	in := &a.Input
	in.BeginFrame()
	glfw.PollEvents()

	for k, gk := range keyToGlfw {
		in.SetKey(k, a.Window.GetKey(gk) == glfw.Press)
	}
	left := a.Window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	right := a.Window.GetMouseButton(glfw.MouseButtonRight) == glfw.Press

	if in.JustPressed[voxr.KeyEscape] && in.MouseCaptured {
		a.setCaptured(false)
	}
	if !in.MouseCaptured && (left || right) {
		a.setCaptured(true)
		a.swallowClick = true
	}
	if a.swallowClick {
		if !left && !right {
			a.swallowClick = false
		}
		left, right = false, false
	}
	in.SetKey(voxr.MouseButtonLeft, left)
	in.SetKey(voxr.MouseButtonRight, right)

	in.MoveCursor(a.Window.GetCursorPos())
	in.WindowWidth, in.WindowHeight = a.Window.GetSize()
}

// Run drives frames until the window closes.
func (a *App) Run() {
	for !a.Window.ShouldClose() {
		now := glfw.GetTime()
		dt := float32(now - a.LastTime)
		a.LastTime = now

		a.pollInput()
		stats := a.World.Frame(dt, &a.Input)
		a.Render(dt, stats)
	}
}

func (a *App) Render(dt float32, stats voxr.FrameStats) {
	w := a.World
	p := w.Profiler
	p.BeginScope("render")
	defer p.EndScope("render")

	aspect := a.Input.Aspect()
	shadow, bounds := core.ShadowViewProj(w.Frustum.Corners(), core.LightDir)

	a.visible = a.visible[:0]
	w.Visible(func(c *volume.Chunk) { a.visible = append(a.visible, c) })
	a.casters = a.casters[:0]
	w.ShadowCasters(bounds, func(c *volume.Chunk) { a.casters = append(a.casters, c) })
	p.SetCount("casters", len(a.casters))

	frame := gpu.Frame{
		Camera: gpu.CameraUniform{
			ViewProj:       gpu.ClipSpace(w.Camera.ViewProj(aspect)),
			ShadowViewProj: gpu.ClipSpace(shadow),
			CamPos:         w.Camera.Position,
			LightDir:       core.LightDir,
			Wireframe:      w.Wireframe,
		},
		Visible: a.visible,
		Casters: a.casters,
	}

	a.Text.Clear()
	a.Text.DrawFrameTime(dt)
	if w.ShowStats {
		lines := strings.Split(strings.TrimRight(p.Stats(), "\n"), "\n")
		lines = append(lines, fmt.Sprintf("  %-10s: %d", "edits", stats.Edits))
		a.Text.DrawLines(lines, 0, 60, 1, hud.White)
	}
	a.TextPass.Update(a.Text.BuildVertices(int(a.Config.Width), int(a.Config.Height)))

	next, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.log.Errorf("app: get current texture: %v", err)
		return
	}
	defer next.Release()
	view, err := next.CreateView(nil)
	if err != nil {
		a.log.Errorf("app: create view: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.log.Errorf("app: create command encoder: %v", err)
		return
	}
	if err := a.Renderer.Draw(encoder, view, frame); err != nil {
		a.log.Errorf("app: %v", err)
	}
	if err := a.TextPass.Draw(encoder, view); err != nil {
		a.log.Errorf("app: text pass: %v", err)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.log.Errorf("app: encoder finish: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()
}

// Close releases the world before the device its buffers live on.
func (a *App) Close() {
	if a.World != nil {
		if err := a.World.Close(); err != nil {
			a.log.Errorf("app: close world: %v", err)
		}
	}
	if a.TextPass != nil {
		a.TextPass.Release()
	}
	if a.Renderer != nil {
		a.Renderer.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
