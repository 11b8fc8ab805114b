package hud

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// maskSize is the drawn size of r in the built-in face, which can be
// narrower than its advance.
func maskSize(t *testing.T, r rune) [2]float32 {
	t.Helper()
	dr, _, _, _, ok := basicfont.Face7x13.Glyph(fixed.Point26_6{}, r)
	require.True(t, ok)
	return [2]float32{float32(dr.Dx()), float32(dr.Dy())}
}

func TestAtlasCoversPrintableASCII(t *testing.T) {
	tx := NewDefaultText()
	assert.Len(t, tx.Glyphs, 127-32)

	g := tx.Glyphs['A']
	assert.Equal(t, maskSize(t, 'A'), g.Size)
	assert.Equal(t, [2]float32{6, 13}, g.Size)
	assert.Equal(t, float32(7), g.Adv)

	x0, y0 := int(g.UVMin[0]*atlasSize), int(g.UVMin[1]*atlasSize)
	x1, y1 := int(g.UVMax[0]*atlasSize), int(g.UVMax[1]*atlasSize)
	lit := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if tx.Atlas.AlphaAt(x, y).A > 0 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 0, "glyph pixels are copied into the atlas")
}

func TestBuildVertices(t *testing.T) {
	tx := NewDefaultText()
	tx.DrawText("A", 0, 0, 1, White)

	v := tx.BuildVertices(100, 100)
	require.Len(t, v, 6)
	assert.InDelta(t, -1, v[0].Pos[0], 1e-6)
	assert.InDelta(t, 1, v[0].Pos[1], 1e-6)
	width := maskSize(t, 'A')[0]
	assert.InDelta(t, -1+2*width/100, v[1].Pos[0], 1e-6)
	assert.Equal(t, White, v[4].Color)
	assert.Equal(t, tx.Glyphs['A'].UVMax, v[4].UV)

	tx.Clear()
	tx.DrawText("AB", 0, 0, 1, White)
	tx.DrawText("é", 0, 0, 1, White)
	assert.Len(t, tx.BuildVertices(100, 100), 12, "unknown runes are skipped")
}

func TestBuildVerticesNewlineAndScale(t *testing.T) {
	tx := NewDefaultText()
	tx.DrawText("A\nA", 0, 0, 2, White)
	v := tx.BuildVertices(200, 200)
	require.Len(t, v, 12)
	assert.Equal(t, v[0].Pos[0], v[6].Pos[0], "new line returns to the start column")
	assert.InDelta(t, 2*13.0/200*2, v[0].Pos[1]-v[6].Pos[1], 1e-5)
}

func TestMeasureText(t *testing.T) {
	tx := NewDefaultText()
	w, h := tx.MeasureText("AB\nC", 1)
	assert.Equal(t, float32(14), w)
	assert.Equal(t, float32(26), h)

	w, _ = tx.MeasureText("abc", 2)
	assert.Equal(t, float32(42), w)
}

func TestDrawFrameTime(t *testing.T) {
	tx := NewDefaultText()
	tx.DrawFrameTime(0.016)
	require.Len(t, tx.Items, 2)
	assert.Equal(t, "62fps", tx.Items[0].Text)
	assert.Equal(t, "16.000ms", tx.Items[1].Text)
	assert.Equal(t, [2]float32{0, 30}, tx.Items[1].Position)

	tx.Clear()
	tx.DrawFrameTime(0)
	assert.Empty(t, tx.Items)

	tx.DrawLines([]string{"a", "b"}, 10, 50, 1, White)
	assert.Equal(t, [2]float32{10, 63}, tx.Items[1].Position)
}

func TestLoadFontMissing(t *testing.T) {
	_, err := LoadFont(filepath.Join(t.TempDir(), "none.ttf"), 16)
	assert.Error(t, err)
}
