package voxr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInputEdges(t *testing.T) {
	var in Input
	in.SetKey(KeyW, true)
	assert.True(t, in.Pressed[KeyW])
	assert.True(t, in.JustPressed[KeyW])

	in.BeginFrame()
	in.SetKey(KeyW, true)
	assert.True(t, in.Pressed[KeyW])
	assert.False(t, in.JustPressed[KeyW], "held keys are not fresh presses")

	in.BeginFrame()
	in.SetKey(KeyW, false)
	assert.False(t, in.Pressed[KeyW])
	assert.True(t, in.JustReleased[KeyW])

	in.BeginFrame()
	in.SetKey(KeyW, false)
	assert.False(t, in.JustReleased[KeyW])
}

func TestInputMouseDelta(t *testing.T) {
	var in Input
	in.MoveCursor(100, 100)
	in.MoveCursor(110, 90)
	assert.Zero(t, in.MouseDeltaX, "free cursor produces no look delta")

	in.MouseCaptured = true
	in.MoveCursor(120, 95)
	in.MoveCursor(125, 95)
	assert.Equal(t, 15.0, in.MouseDeltaX)
	assert.Equal(t, 5.0, in.MouseDeltaY)

	in.BeginFrame()
	assert.Zero(t, in.MouseDeltaX)
	assert.Equal(t, 125.0, in.MouseX)
}

func TestInputMove(t *testing.T) {
	var in Input
	in.MouseCaptured = true
	for _, k := range []Key{KeyW, KeyD, KeyE, KeyShift} {
		in.SetKey(k, true)
	}
	m := in.Move()
	assert.True(t, m.Forward)
	assert.True(t, m.Right)
	assert.True(t, m.Up)
	assert.True(t, m.Sprint)
	assert.False(t, m.Back)
	assert.False(t, m.Planar)
	assert.True(t, m.MouseLook)
}

func TestInputChordAndAspect(t *testing.T) {
	var in Input
	in.SetKey(KeyS, true)
	assert.False(t, in.Chord(KeyS))

	in.BeginFrame()
	in.SetKey(KeyS, false)
	in.SetKey(KeyControl, true)
	in.BeginFrame()
	in.SetKey(KeyS, true)
	assert.True(t, in.Chord(KeyS))

	assert.Equal(t, float32(1), in.Aspect())
	in.WindowWidth, in.WindowHeight = 1920, 1080
	assert.InDelta(t, 16.0/9.0, in.Aspect(), 1e-6)
}

func TestProfiler(t *testing.T) {
	p := NewProfiler()
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	p.BeginScope("stream")
	clock = clock.Add(1500 * time.Microsecond)
	p.EndScope("stream")
	p.BeginScope("edit")
	p.EndScope("edit")
	p.BeginScope("stream")
	p.SetCount("visible", 12)

	assert.Equal(t, []string{"stream", "edit"}, p.Order)
	assert.Equal(t, 1500*time.Microsecond, p.Scopes["stream"])

	stats := p.Stats()
	assert.Contains(t, stats, "stream    : 1.50 ms")
	assert.Contains(t, stats, "visible   : 12")

	p.Reset()
	assert.Zero(t, p.Scopes["stream"])
}
