package annotate

import "image"

// Tool identifies the active annotation tool.
type Tool int

const (
	// ToolRectangle draws outlined rectangles by dragging.
	ToolRectangle Tool = iota
	// ToolText places a text label at the click point.
	ToolText
)

func (t Tool) String() string {
	switch t {
	case ToolRectangle:
		return "rectangle"
	case ToolText:
		return "text"
	}
	return "unknown"
}

// Shape is one committed annotation. Shapes are immutable once appended to a
// State; the two variants are Rectangle and Text.
type Shape interface {
	shape()
}

// Rectangle is an outlined box in image-pixel coordinates. It is always
// stored normalized: X/Y are the top-left corner, Width/Height are positive.
type Rectangle struct {
	X, Y          int
	Width, Height int
}

func (Rectangle) shape() {}

// Text is a label anchored at its top-left point.
type Text struct {
	X, Y    int
	Content string
}

func (Text) shape() {}

// normalizeRect builds the stored rectangle from two drag corners. Drag
// direction is irrelevant: the result uses the min corner and absolute
// extents.
func normalizeRect(a, b image.Point) Rectangle {
	r := Rectangle{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}
