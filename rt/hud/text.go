// Package hud draws screen-space text from a baked glyph atlas.
package hud

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const atlasSize = 512

// TextVertex matches the text pipeline vertex layout.
type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// TextItem is one string at a pixel position, top-left origin.
type TextItem struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Off   [2]float32
	Adv   float32
}

// Text owns the atlas and the items queued for the current frame.
type Text struct {
	Atlas  *image.Alpha
	Glyphs map[rune]GlyphInfo
	Face   font.Face
	Items  []TextItem
}

var White = [4]float32{1, 1, 1, 1}

// LoadFont opens an OpenType or TrueType file at the given pixel size.
func LoadFont(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}

// NewDefaultText bakes the built-in 7x13 bitmap font.
func NewDefaultText() *Text {
	return NewText(basicfont.Face7x13)
}

// NewText bakes printable ASCII from face into a single-channel atlas.
func NewText(face font.Face) *Text {
	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]GlyphInfo)

	x, y := 2, 2
	rowHeight := 0
	for r := rune(32); r < 127; r++ {
		dr, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := dr.Dx(), dr.Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			break
		}

		// Bitmap faces share one mask image, so copy from maskp rather
		// than the mask bounds.
		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)

		glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			UVMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			Size:  [2]float32{float32(w), float32(h)},
			Off:   [2]float32{float32(dr.Min.X), float32(dr.Min.Y)},
			Adv:   float32(adv) / 64,
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}

	return &Text{Atlas: atlas, Glyphs: glyphs, Face: face}
}

func (t *Text) DrawText(text string, x, y, scale float32, color [4]float32) {
	t.Items = append(t.Items, TextItem{
		Text:     text,
		Position: [2]float32{x, y},
		Scale:    scale,
		Color:    color,
	})
}

// DrawFrameTime queues the frame rate and frame time lines for a frame
// that took dt seconds.
func (t *Text) DrawFrameTime(dt float32) {
	if dt <= 0 {
		return
	}
	t.DrawText(fmt.Sprintf("%.0ffps", 1/dt), 0, 0, 1, White)
	t.DrawText(fmt.Sprintf("%.3fms", dt*1000), 0, 30, 1, White)
}

// DrawLines queues one item per line starting at (x, y).
func (t *Text) DrawLines(lines []string, x, y, scale float32, color [4]float32) {
	step := t.LineHeight(scale)
	for i, l := range lines {
		t.DrawText(l, x, y+float32(i)*step, scale, color)
	}
}

func (t *Text) Clear() { t.Items = t.Items[:0] }

// BuildVertices converts the queued items to clip-space triangles for a
// screen of the given pixel size.
func (t *Text) BuildVertices(screenW, screenH int) []TextVertex {
	vertices := make([]TextVertex, 0, len(t.Items)*6)

	sw := float32(screenW)
	sh := float32(screenH)
	metrics := t.Face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	for _, item := range t.Items {
		startX := item.Position[0]
		posX := startX
		posY := item.Position[1] + ascent*item.Scale

		for _, r := range item.Text {
			if r == '\n' {
				posX = startX
				posY += lineHeight * item.Scale
				continue
			}
			g, ok := t.Glyphs[r]
			if !ok {
				continue
			}

			x0 := (posX+g.Off[0]*item.Scale)/sw*2 - 1
			y0 := 1 - (posY+g.Off[1]*item.Scale)/sh*2
			x1 := (posX+(g.Off[0]+g.Size[0])*item.Scale)/sw*2 - 1
			y1 := 1 - (posY+(g.Off[1]+g.Size[1])*item.Scale)/sh*2

			vertices = append(vertices,
				TextVertex{Pos: [2]float32{x0, y0}, UV: g.UVMin, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.UVMax[0], g.UVMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.UVMin[0], g.UVMax[1]}, Color: item.Color},

				TextVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.UVMax[0], g.UVMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y1}, UV: g.UVMax, Color: item.Color},
				TextVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.UVMin[0], g.UVMax[1]}, Color: item.Color},
			)
			posX += g.Adv * item.Scale
		}
	}
	return vertices
}

// MeasureText returns the pixel width and height of text at scale.
func (t *Text) MeasureText(text string, scale float32) (float32, float32) {
	maxW := float32(0)
	currentW := float32(0)
	lines := 1

	for _, r := range text {
		if r == '\n' {
			maxW = max(maxW, currentW)
			currentW = 0
			lines++
			continue
		}
		if g, ok := t.Glyphs[r]; ok {
			currentW += g.Adv * scale
		}
	}
	maxW = max(maxW, currentW)
	return maxW, t.LineHeight(scale) * float32(lines)
}

func (t *Text) LineHeight(scale float32) float32 {
	return float32(t.Face.Metrics().Height.Ceil()) * scale
}
