// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package quad

import "math"

// HitRadius is how close, in view space units, a drag has to start
// to a corner to pick it up.
const HitRadius = 48.0

// State is the drag state of an Editor.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

const noCorner = -1

// Editor owns the quad for one editing session and handles the drag
// gestures which move its corners. The quad is kept in image space
// and is the only source of truth; view space positions are always
// derived from it using the current viewport scale.
//
// An Editor is not safe for concurrent use; it is meant to be driven
// from the single goroutine handling input. Hand the result of Quad()
// to anything running elsewhere.
type Editor struct {
	quad   Quad
	w, h   float64
	mapper Mapper
	active int
}

// NewEditor returns an Editor for an image of w x h, with the quad
// set to DefaultQuad and a 1:1 viewport scale.
func NewEditor(w, h int) *Editor {
	return &Editor{
		quad:   DefaultQuad(w, h),
		w:      float64(w),
		h:      float64(h),
		mapper: Mapper{Scale: 1},
		active: noCorner,
	}
}

// SetViewport recomputes the viewport scale for a viewport of
// viewW x viewH. The quad itself is never rescaled. Sizes which would
// give an unusable scale are ignored, and false is returned.
func (e *Editor) SetViewport(viewW, viewH float64) bool {
	if viewW <= 0 || viewH <= 0 || e.w <= 0 || e.h <= 0 {
		return false
	}
	e.mapper = NewMapper(viewW, viewH, e.w, e.h)
	return true
}

// Scale returns the current viewport scale.
func (e *Editor) Scale() float64 {
	return e.mapper.Scale
}

// Mapper returns the current view / image space mapper.
func (e *Editor) Mapper() Mapper {
	return e.mapper
}

// Quad returns the current quad in image space. As Quad is an array
// the caller gets its own copy, which is safe to hand to another
// goroutine.
func (e *Editor) Quad() Quad {
	return e.quad
}

// ViewQuad returns the current quad in view space.
func (e *Editor) ViewQuad() Quad {
	return e.mapper.QuadToView(e.quad)
}

// SetQuad replaces the whole quad, clamping it to the image.
func (e *Editor) SetQuad(q Quad) {
	e.quad = q.Clamp(e.w, e.h)
}

// Reset puts the quad back to the default inset rectangle and drops
// any drag in progress.
func (e *Editor) Reset() {
	e.quad = DefaultQuad(int(e.w), int(e.h))
	e.active = noCorner
}

// State reports whether a corner is being dragged.
func (e *Editor) State() State {
	if e.active == noCorner {
		return Idle
	}
	return Dragging
}

// Active returns the index of the corner being dragged, if any.
func (e *Editor) Active() (int, bool) {
	return e.active, e.active != noCorner
}

// HitTest returns the corner nearest to the view space position pos,
// if it is within HitRadius. When corners are equally near, the one
// with the lowest index wins. A position that isn't a real number
// never hits.
func (e *Editor) HitTest(pos Point) (int, bool) {
	best := noCorner
	var bestDist float64
	for i, c := range e.ViewQuad() {
		d := Distance(c, pos)
		if best == noCorner || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best == noCorner || !(bestDist <= HitRadius) {
		return noCorner, false
	}
	return best, true
}

// DragStart begins dragging the corner under the view space position
// pos. If no corner is close enough, or a drag is already under way,
// the gesture is ignored and false is returned.
func (e *Editor) DragStart(pos Point) bool {
	if e.active != noCorner {
		return false
	}
	i, ok := e.HitTest(pos)
	if !ok {
		return false
	}
	e.active = i
	return true
}

// Drag moves the active corner by a view space delta, clamping the
// result to the image. With no active drag, or a delta that isn't a
// real number, it does nothing. The other corners are never touched,
// so a quad can end up self-intersecting.
func (e *Editor) Drag(delta Point) {
	if e.active == noCorner || !finite(delta) {
		return
	}
	view := e.mapper.ImageToView(e.quad[e.active]).Add(delta)
	p := e.mapper.ViewToImage(view)
	e.quad = e.quad.With(e.active, Pt(clamp(p.X, 0, e.w), clamp(p.Y, 0, e.h)))
}

// DragEnd finishes a drag.
func (e *Editor) DragEnd() {
	e.active = noCorner
}

// DragCancel abandons a drag. Moves already made are kept, as there
// is no undo.
func (e *Editor) DragCancel() {
	e.active = noCorner
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
