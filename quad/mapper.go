// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package quad

// Mapper converts between view space (what is drawn in a viewport,
// scaled to fit) and image space (full resolution pixels of the
// source image).
type Mapper struct {
	Scale float64
}

// ViewportScale returns the scale at which an image of imgW x imgH
// fits inside a viewport of viewW x viewH, keeping its aspect ratio.
// The result is undefined if any dimension is zero, so callers must
// guard against that.
func ViewportScale(viewW, viewH, imgW, imgH float64) float64 {
	sx := viewW / imgW
	sy := viewH / imgH
	if sy < sx {
		return sy
	}
	return sx
}

// NewMapper returns a Mapper for the given viewport and image sizes.
func NewMapper(viewW, viewH, imgW, imgH float64) Mapper {
	return Mapper{Scale: ViewportScale(viewW, viewH, imgW, imgH)}
}

// ImageToView converts an image space point to view space.
func (m Mapper) ImageToView(p Point) Point {
	return p.Mul(m.Scale)
}

// ViewToImage converts a view space point to image space.
func (m Mapper) ViewToImage(p Point) Point {
	return p.Div(m.Scale)
}

// QuadToView converts every corner of an image space quad to view
// space.
func (m Mapper) QuadToView(q Quad) Quad {
	var v Quad
	for i, p := range q {
		v[i] = m.ImageToView(p)
	}
	return v
}
