package annotate_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/snaptrace/internal/annotate"
	"github.com/fakeyudi/snaptrace/internal/imagebuf"
)

func annotatedState(t *testing.T) *annotate.State {
	t.Helper()
	base := imagebuf.New(200, 150)
	base.Fill(color.RGBA{R: 20, G: 20, B: 20, A: 255})

	s := annotate.New(base, annotate.DefaultMinDragSize)
	s.PointerDown(image.Pt(10, 10))
	s.PointerUp(image.Pt(80, 60))

	s.SelectTool(annotate.ToolText)
	s.PointerDown(image.Pt(100, 100))
	s.Input("broken")
	s.CommitText()

	require.Len(t, s.Shapes(), 2)
	return s
}

func TestFlattenPreservesDimensions(t *testing.T) {
	s := annotatedState(t)
	out := annotate.Flatten(s, annotate.DefaultStyle())
	assert.Equal(t, 200, out.Width())
	assert.Equal(t, 150, out.Height())
}

func TestFlattenIsIdempotent(t *testing.T) {
	s := annotatedState(t)
	style := annotate.DefaultStyle()

	first := annotate.Flatten(s, style)
	second := annotate.Flatten(s, style)

	assert.True(t, first.Equal(second), "two flattens of an unmutated state must be pixel-identical")
}

func TestFlattenDoesNotMutateState(t *testing.T) {
	s := annotatedState(t)
	baseBefore := s.Base().Clone()

	annotate.Flatten(s, annotate.DefaultStyle())

	assert.True(t, s.Base().Equal(baseBefore), "flatten must not draw into the base image")
	assert.Len(t, s.Shapes(), 2)
}

func TestFlattenStrokesRectangle(t *testing.T) {
	s := annotatedState(t)
	style := annotate.DefaultStyle()
	out := annotate.Flatten(s, style)

	red := color.RGBA{R: 0xFF, A: 0xFF}
	// Rectangle committed from (10,10) to (80,60): the top-left stroke pixel
	// carries the annotation color, the interior keeps the base color.
	assert.Equal(t, red, out.At(10, 10))
	assert.Equal(t, red, out.At(79, 59))
	assert.Equal(t, color.RGBA{R: 20, G: 20, B: 20, A: 255}, out.At(45, 35))
}

func TestFlattenDrawsTextPixels(t *testing.T) {
	s := annotatedState(t)
	out := annotate.Flatten(s, annotate.DefaultStyle())

	// Some pixel in the glyph box at the anchor must have changed.
	changed := false
	for y := 100; y < 115 && !changed; y++ {
		for x := 100; x < 145 && !changed; x++ {
			if out.At(x, y) != s.Base().At(x, y) {
				changed = true
			}
		}
	}
	assert.True(t, changed, "text label left no pixels behind")
}

func TestLaterShapesDrawOnTop(t *testing.T) {
	base := imagebuf.New(100, 100)
	base.Fill(color.RGBA{A: 255})

	s := annotate.New(base, annotate.DefaultMinDragSize)
	// Two overlapping rectangles; the later one repaints the shared edge.
	s.PointerDown(image.Pt(10, 10))
	s.PointerUp(image.Pt(50, 50))
	s.PointerDown(image.Pt(10, 10))
	s.PointerUp(image.Pt(70, 70))
	require.Len(t, s.Shapes(), 2)

	out := annotate.Flatten(s, annotate.DefaultStyle())
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, out.At(10, 10))
}
