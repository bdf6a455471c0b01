// Package annotate models a single in-progress capture: the base image, the
// ordered list of committed shapes, and the interaction state driven by
// pointer and keyboard signals from the overlay.
package annotate

import (
	"image"

	"github.com/fakeyudi/snaptrace/internal/imagebuf"
)

// DefaultMinDragSize is the minimum normalized width and height, in pixels,
// a drag must exceed before it commits a rectangle.
const DefaultMinDragSize = 5

// Phase is the interaction phase of a State.
type Phase int

const (
	// PhaseIdle means no pointer interaction is in progress.
	PhaseIdle Phase = iota
	// PhaseDrawing means the pointer is down with the rectangle tool.
	PhaseDrawing
	// PhaseTextEditing means a pending text input is active.
	PhaseTextEditing
)

// State is the transient model of one capture being annotated. It is created
// around a freshly captured image, mutated by overlay signals, and discarded
// after the flattened result is persisted. It is single-owner and needs no
// locking.
type State struct {
	base        *imagebuf.Buffer
	shapes      []Shape
	tool        Tool
	minDragSize int

	phase   Phase
	anchor  image.Point // drag origin, or text anchor
	cursor  image.Point // latest pointer position while drawing
	pending []rune      // accumulated text, not yet a committed shape
}

// New creates a State around a captured base image. minDragSize <= 0 falls
// back to DefaultMinDragSize.
func New(base *imagebuf.Buffer, minDragSize int) *State {
	if minDragSize <= 0 {
		minDragSize = DefaultMinDragSize
	}
	return &State{
		base:        base,
		tool:        ToolRectangle,
		minDragSize: minDragSize,
	}
}

// Base returns the captured image the annotations sit on.
func (s *State) Base() *imagebuf.Buffer { return s.base }

// Tool returns the active tool.
func (s *State) Tool() Tool { return s.tool }

// Phase returns the current interaction phase.
func (s *State) Phase() Phase { return s.phase }

// Shapes returns a copy of the committed shapes in commit order.
func (s *State) Shapes() []Shape {
	out := make([]Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// SelectTool switches the active tool. A pending text input is committed
// first (same rule as clicking elsewhere); switching while idle never touches
// the shape list.
func (s *State) SelectTool(t Tool) {
	if s.phase == PhaseTextEditing {
		s.CommitText()
	}
	s.tool = t
}

// PointerDown begins an interaction at p. If a text input is pending it is
// committed first, so at most one of drawing/text-editing is ever active.
func (s *State) PointerDown(p image.Point) {
	if s.phase == PhaseTextEditing {
		s.CommitText()
	}
	switch s.tool {
	case ToolRectangle:
		s.phase = PhaseDrawing
		s.anchor = p
		s.cursor = p
	case ToolText:
		s.phase = PhaseTextEditing
		s.anchor = p
		s.pending = s.pending[:0]
	}
}

// PointerMove updates the live preview bounds while drawing. No shape is
// recorded until PointerUp.
func (s *State) PointerMove(p image.Point) {
	if s.phase == PhaseDrawing {
		s.cursor = p
	}
}

// PointerUp ends a drag. The normalized rectangle is committed only when both
// its width and height exceed the minimum drag size; smaller drags are
// dropped silently.
func (s *State) PointerUp(p image.Point) {
	if s.phase != PhaseDrawing {
		return
	}
	s.cursor = p
	r := normalizeRect(s.anchor, p)
	if r.Width > s.minDragSize && r.Height > s.minDragSize {
		s.shapes = append(s.shapes, r)
	}
	s.phase = PhaseIdle
}

// Preview returns the normalized bounds of the in-progress drag. ok is false
// unless the state is drawing.
func (s *State) Preview() (r Rectangle, ok bool) {
	if s.phase != PhaseDrawing {
		return Rectangle{}, false
	}
	return normalizeRect(s.anchor, s.cursor), true
}

// Input appends characters to the pending text field. Ignored unless a text
// input is active.
func (s *State) Input(text string) {
	if s.phase == PhaseTextEditing {
		s.pending = append(s.pending, []rune(text)...)
	}
}

// Backspace removes the last pending character, if any.
func (s *State) Backspace() {
	if s.phase == PhaseTextEditing && len(s.pending) > 0 {
		s.pending = s.pending[:len(s.pending)-1]
	}
}

// PendingText returns the anchor and accumulated text of the active input.
// ok is false unless the state is text-editing.
func (s *State) PendingText() (at image.Point, text string, ok bool) {
	if s.phase != PhaseTextEditing {
		return image.Point{}, "", false
	}
	return s.anchor, string(s.pending), true
}

// CommitText ends the pending text input, committing a Text shape only when
// the accumulated text is non-empty. Empty commits are dropped silently.
func (s *State) CommitText() {
	if s.phase != PhaseTextEditing {
		return
	}
	if len(s.pending) > 0 {
		s.shapes = append(s.shapes, Text{X: s.anchor.X, Y: s.anchor.Y, Content: string(s.pending)})
	}
	s.pending = nil
	s.phase = PhaseIdle
}

// CancelText discards the pending text input without committing a shape.
func (s *State) CancelText() {
	if s.phase != PhaseTextEditing {
		return
	}
	s.pending = nil
	s.phase = PhaseIdle
}
