package voxr

import "github.com/voxr/voxr/rt/core"

type Key int

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyF
	KeyG
	KeyO
	KeyN
	KeyEscape
	KeyShift
	KeyControl
	KeyF3
	MouseButtonLeft
	MouseButtonRight
	keyCount
)

// Input is the per-frame keyboard and mouse state. The platform layer
// feeds it through SetKey and MoveCursor.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool

	WindowWidth, WindowHeight int

	cursorSeen bool
}

// BeginFrame clears the edge flags and mouse delta of the previous frame.
func (in *Input) BeginFrame() {
	in.JustPressed = [keyCount]bool{}
	in.JustReleased = [keyCount]bool{}
	in.MouseDeltaX, in.MouseDeltaY = 0, 0
}

func (in *Input) SetKey(k Key, down bool) {
	if down {
		if !in.Pressed[k] {
			in.JustPressed[k] = true
		}
		in.Pressed[k] = true
		return
	}
	if in.Pressed[k] {
		in.JustReleased[k] = true
	}
	in.Pressed[k] = false
}

// MoveCursor records the cursor position. Deltas accumulate only while the
// mouse is captured.
func (in *Input) MoveCursor(x, y float64) {
	if in.MouseCaptured && in.cursorSeen {
		in.MouseDeltaX += x - in.MouseX
		in.MouseDeltaY += y - in.MouseY
	}
	in.MouseX, in.MouseY = x, y
	in.cursorSeen = true
}

// Aspect is the window aspect ratio, 1 until a size is known.
func (in *Input) Aspect() float32 {
	if in.WindowWidth <= 0 || in.WindowHeight <= 0 {
		return 1
	}
	return float32(in.WindowWidth) / float32(in.WindowHeight)
}

// Move maps held keys to camera controls: WASD, E up, Q down, Ctrl planar,
// Shift sprint.
func (in *Input) Move() core.MoveInput {
	return core.MoveInput{
		Forward:   in.Pressed[KeyW],
		Back:      in.Pressed[KeyS],
		Left:      in.Pressed[KeyA],
		Right:     in.Pressed[KeyD],
		Up:        in.Pressed[KeyE],
		Down:      in.Pressed[KeyQ],
		Planar:    in.Pressed[KeyControl],
		Sprint:    in.Pressed[KeyShift],
		MouseDX:   in.MouseDeltaX,
		MouseDY:   in.MouseDeltaY,
		MouseLook: in.MouseCaptured,
	}
}

// Chord reports a fresh press of k while Ctrl is held.
func (in *Input) Chord(k Key) bool {
	return in.Pressed[KeyControl] && in.JustPressed[k]
}
