// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// Package overlay draws the editable page outline over a preview of
// the source image, in view space.
package overlay

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"rescribe.xyz/docscan/quad"
)

const (
	EdgeColour   = "#00FF88"
	EdgeWidth    = 4.0
	HandleColour = "#FF4081"
	HandleRadius = 12.0
)

// Preview scales src down (or up) by scale, which is the image to
// view ratio from quad.ViewportScale.
func Preview(src image.Image, scale float64) *image.RGBA {
	b := src.Bounds()
	w := int(float64(b.Dx())*scale + 0.5)
	h := int(float64(b.Dy())*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Render draws the outline and corner handles of q, which is in
// view space, on top of preview. preview is not modified.
func Render(preview image.Image, q quad.Quad) (image.Image, error) {
	dc := gg.NewContextForImage(preview)
	defer dc.Close()

	dc.SetHexColor(EdgeColour)
	dc.SetLineWidth(EdgeWidth)
	dc.MoveTo(q[0].X, q[0].Y)
	for _, p := range q[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	err := dc.Stroke()
	if err != nil {
		return nil, fmt.Errorf("Error drawing quad outline: %w", err)
	}

	dc.SetHexColor(HandleColour)
	for i, p := range q {
		dc.DrawCircle(p.X, p.Y, HandleRadius)
		err = dc.Fill()
		if err != nil {
			return nil, fmt.Errorf("Error drawing handle %d: %w", i, err)
		}
	}

	return dc.Image(), nil
}

// RenderEditor draws the current state of e over src, scaled to the
// editor's viewport.
func RenderEditor(src image.Image, e *quad.Editor) (image.Image, error) {
	return Render(Preview(src, e.Scale()), e.ViewQuad())
}
