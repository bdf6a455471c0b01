// Package capture supplies screenshots to the annotation pipeline. The
// pipeline treats the capturer as an opaque collaborator: it hands back an
// owned pixel buffer plus the screen rect it was taken from.
package capture

import (
	"context"
	"image"

	"github.com/fakeyudi/snaptrace/internal/imagebuf"
)

// Capturer produces one screenshot per call.
type Capturer interface {
	// Capture grabs the screen and returns the pixels and the screen-space
	// rect they cover.
	Capture(ctx context.Context) (*imagebuf.Buffer, image.Rectangle, error)
}

// FileCapturer reads an existing PNG instead of grabbing the screen. Used by
// tests and by `snaptrace capture --input` for annotating saved screenshots.
type FileCapturer struct {
	Path string
}

// Capture loads the file; the covered rect is the image's own bounds.
func (f *FileCapturer) Capture(ctx context.Context) (*imagebuf.Buffer, image.Rectangle, error) {
	buf, err := imagebuf.LoadPNG(f.Path)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	return buf, buf.Bounds(), nil
}
