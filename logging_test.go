package voxr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger(&out, &errOut, "voxr", false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.Infof("hello %s", "world")
	assert.Contains(t, out.String(), "[voxr] INFO: hello world")

	l.Warnf("careful")
	l.Errorf("broken")
	assert.Contains(t, errOut.String(), "[voxr] WARN: careful")
	assert.Contains(t, errOut.String(), "[voxr] ERROR: broken")
	assert.NotContains(t, out.String(), "careful")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown")
	assert.Contains(t, out.String(), "[voxr] DEBUG: shown")
}

func TestLoggerWith(t *testing.T) {
	var out bytes.Buffer
	root := NewLogger(&out, &out, "voxr", false)
	child := root.With("stream")

	child.Infof("shifted")
	assert.Contains(t, out.String(), "[voxr/stream] INFO: shifted")

	child.SetDebug(true)
	assert.True(t, root.DebugEnabled(), "children share the debug switch")

	bare := NewLogger(&out, &out, "", false).With("gpu")
	bare.Infof("ready")
	assert.Contains(t, out.String(), "[gpu] INFO: ready")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	assert.NotNil(t, l.With("x"))
	assert.NotNil(t, orNop(nil))
}
