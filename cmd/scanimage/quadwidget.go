// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"rescribe.xyz/docscan/overlay"
	"rescribe.xyz/docscan/quad"
)

// quadEditor is a widget showing a preview of the source image with
// the page corners over it, which can be dragged into place.
type quadEditor struct {
	widget.BaseWidget
	src      image.Image
	editor   *quad.Editor
	img      *canvas.Image
	preview  image.Image
	scale    float64
	dragging bool
	log      *log.Logger
}

func newQuadEditor(src image.Image, e *quad.Editor, logger *log.Logger) *quadEditor {
	w := &quadEditor{src: src, editor: e, log: logger}
	w.img = canvas.NewImageFromImage(nil)
	w.img.FillMode = canvas.ImageFillStretch
	w.ExtendBaseWidget(w)
	return w
}

func (w *quadEditor) CreateRenderer() fyne.WidgetRenderer {
	return &quadRenderer{w: w}
}

// Dragged starts a drag from the position the gesture began at, if
// that is close enough to a corner, and then moves the corner along
// with the pointer.
func (w *quadEditor) Dragged(ev *fyne.DragEvent) {
	if !w.dragging {
		w.dragging = true
		start := ev.Position.Subtract(ev.Dragged)
		w.editor.DragStart(quad.Pt(float64(start.X), float64(start.Y)))
	}
	if w.editor.State() != quad.Dragging {
		return
	}
	w.editor.Drag(quad.Pt(float64(ev.Dragged.DX), float64(ev.Dragged.DY)))
	w.Refresh()
}

func (w *quadEditor) DragEnd() {
	w.dragging = false
	w.editor.DragEnd()
	w.Refresh()
}

// redraw renders the corners over the preview, rescaling the
// preview first if the viewport has changed size.
func (w *quadEditor) redraw() {
	if w.preview == nil || w.scale != w.editor.Scale() {
		w.scale = w.editor.Scale()
		w.preview = overlay.Preview(w.src, w.scale)
	}
	out, err := overlay.Render(w.preview, w.editor.ViewQuad())
	if err != nil {
		w.log.Println("Error drawing corners:", err)
		return
	}
	w.img.Image = out
	canvas.Refresh(w.img)
}

type quadRenderer struct {
	w *quadEditor
}

func (r *quadRenderer) Layout(size fyne.Size) {
	r.w.editor.SetViewport(float64(size.Width), float64(size.Height))
	r.w.redraw()
	b := r.w.src.Bounds()
	s := float32(r.w.editor.Scale())
	r.w.img.Move(fyne.NewPos(0, 0))
	r.w.img.Resize(fyne.NewSize(float32(b.Dx())*s, float32(b.Dy())*s))
}

func (r *quadRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

func (r *quadRenderer) Refresh() {
	r.w.redraw()
}

func (r *quadRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.w.img}
}

func (r *quadRenderer) Destroy() {}
