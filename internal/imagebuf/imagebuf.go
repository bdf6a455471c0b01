// Package imagebuf provides the owned pixel buffer that captures and
// annotations are rendered into. A Buffer always owns its pixel memory:
// constructing one from an existing image copies the pixels, so callers can
// hold a Buffer without worrying about aliasing.
package imagebuf

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
)

// Buffer wraps an RGBA pixel grid.
type Buffer struct {
	rgba *image.RGBA
}

// New returns a zeroed (transparent black) buffer of the given dimensions.
func New(width, height int) *Buffer {
	return &Buffer{rgba: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// FromImage copies src into a new buffer. The returned buffer shares no
// memory with src.
func FromImage(src image.Image) *Buffer {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return &Buffer{rgba: rgba}
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	dst := image.NewRGBA(b.rgba.Bounds())
	copy(dst.Pix, b.rgba.Pix)
	return &Buffer{rgba: dst}
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.rgba.Bounds().Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.rgba.Bounds().Dy() }

// Bounds returns the pixel bounds.
func (b *Buffer) Bounds() image.Rectangle { return b.rgba.Bounds() }

// RGBA exposes the underlying image for drawing. Mutations through the
// returned image are visible in the buffer.
func (b *Buffer) RGBA() *image.RGBA { return b.rgba }

// Set writes one pixel, ignoring out-of-bounds coordinates.
func (b *Buffer) Set(x, y int, c color.Color) {
	if image.Pt(x, y).In(b.rgba.Bounds()) {
		b.rgba.Set(x, y, c)
	}
}

// At reads one pixel.
func (b *Buffer) At(x, y int) color.Color { return b.rgba.At(x, y) }

// Fill paints the whole buffer with a single color.
func (b *Buffer) Fill(c color.Color) {
	draw.Draw(b.rgba, b.rgba.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Equal reports whether two buffers have identical dimensions and pixels.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.rgba.Bounds() != other.rgba.Bounds() {
		return false
	}
	if len(b.rgba.Pix) != len(other.rgba.Pix) {
		return false
	}
	for i := range b.rgba.Pix {
		if b.rgba.Pix[i] != other.rgba.Pix[i] {
			return false
		}
	}
	return true
}

// EncodePNG writes the buffer as PNG.
func (b *Buffer) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, b.rgba); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// DecodePNG reads a PNG stream into a new buffer.
func DecodePNG(r io.Reader) (*Buffer, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding png: %w", err)
	}
	return FromImage(img), nil
}

// LoadPNG reads a PNG file into a new buffer.
func LoadPNG(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePNG(f)
}
