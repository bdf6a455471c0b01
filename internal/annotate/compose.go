package annotate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fakeyudi/snaptrace/internal/imagebuf"
)

// Style holds the fixed annotation appearance. All shapes in one capture use
// the same color, stroke width, and font face.
type Style struct {
	Color       color.RGBA
	StrokeWidth int
}

// DefaultStyle matches the overlay defaults: red, 3px stroke.
func DefaultStyle() Style {
	return Style{Color: color.RGBA{R: 0xFF, A: 0xFF}, StrokeWidth: 3}
}

// face is the single annotation font. Text labels are not per-shape
// configurable.
var face font.Face = basicfont.Face7x13

// Flatten renders the base image with every committed shape drawn on top, in
// commit order, into a new buffer of the same dimensions. It never mutates
// the state: calling it repeatedly yields pixel-identical results.
func Flatten(s *State, style Style) *imagebuf.Buffer {
	if style.StrokeWidth <= 0 {
		style.StrokeWidth = DefaultStyle().StrokeWidth
	}
	out := s.Base().Clone()
	for _, shape := range s.shapes {
		switch sh := shape.(type) {
		case Rectangle:
			strokeRect(out, sh, style)
		case Text:
			drawText(out, sh.X, sh.Y, sh.Content, style.Color)
		}
	}
	return out
}

// strokeRect draws an outlined rectangle. The stroke grows inward from the
// shape bounds so the flattened image keeps the base dimensions even for
// shapes touching an edge.
func strokeRect(buf *imagebuf.Buffer, r Rectangle, style Style) {
	w := style.StrokeWidth
	outer := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	inner := outer.Inset(w)
	src := image.NewUniform(style.Color)
	if inner.Empty() {
		// Too small to have a hole; fill solid.
		draw.Draw(buf.RGBA(), outer.Intersect(buf.Bounds()), src, image.Point{}, draw.Src)
		return
	}
	edges := []image.Rectangle{
		{Min: outer.Min, Max: image.Pt(outer.Max.X, inner.Min.Y)},                          // top
		{Min: image.Pt(outer.Min.X, inner.Max.Y), Max: outer.Max},                          // bottom
		{Min: image.Pt(outer.Min.X, inner.Min.Y), Max: image.Pt(inner.Min.X, inner.Max.Y)}, // left
		{Min: image.Pt(inner.Max.X, inner.Min.Y), Max: image.Pt(outer.Max.X, inner.Max.Y)}, // right
	}
	for _, e := range edges {
		draw.Draw(buf.RGBA(), e.Intersect(buf.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawText renders a label with its top-left corner at (x, y).
func drawText(buf *imagebuf.Buffer, x, y int, text string, col color.RGBA) {
	m := face.Metrics()
	d := &font.Drawer{
		Dst:  buf.RGBA(),
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+m.Ascent.Ceil()),
	}
	d.DrawString(text)
}
