// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// Package rectify straightens a perspective distorted page, given
// the four corners of the page in the source image.
package rectify

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"rescribe.xyz/docscan/quad"
)

// MinSide is the smallest width or height a rectified image is
// given, so that a tiny selection still produces a usable page.
const MinSide = 100

// MaxPixels is the largest number of pixels a rectified image may
// have. That is 16384 by 16384, or 1GiB of NRGBA pixels.
const MaxPixels = 1 << 28

// ErrTooLarge is returned when a quad would rectify to an image of
// more than MaxPixels.
var ErrTooLarge = errors.New("rectified image would be too large")

// ErrEmptySource is returned when the source image has no pixels.
var ErrEmptySource = errors.New("source image is empty")

// Fill is the colour given to output pixels whose source position
// falls outside of the source image.
var Fill = color.NRGBA{0, 0, 0, 255}

// TargetSize returns the dimensions of the rectified image for q:
// the longer of the top and bottom edges by the longer of the left
// and right edges, each rounded and floored at MinSide. The result is
// only meaningful for quads that pass checkSize.
func TargetSize(q quad.Quad) (w, h int) {
	top, bottom, left, right := q.Edges()
	w = int(math.Round(math.Max(top, bottom)))
	h = int(math.Round(math.Max(left, right)))
	if w < MinSide {
		w = MinSide
	}
	if h < MinSide {
		h = MinSide
	}
	return w, h
}

// DestQuad returns the corners of a w by h output rectangle, in the
// same order as quad.Quad.
func DestQuad(w, h int) quad.Quad {
	fw, fh := float64(w), float64(h)
	return quad.Quad{quad.Pt(0, 0), quad.Pt(fw, 0), quad.Pt(fw, fh), quad.Pt(0, fh)}
}

// Rectify maps the region of src bounded by q onto an upright
// rectangle, sized by TargetSize. q is in the pixel coordinates of
// src, relative to its top left corner. The source image is not
// modified.
func Rectify(src image.Image, q quad.Quad) (*image.NRGBA, error) {
	if src.Bounds().Empty() {
		return nil, ErrEmptySource
	}
	err := checkQuad(q)
	if err != nil {
		return nil, err
	}
	err = checkSize(q)
	if err != nil {
		return nil, err
	}
	w, h := TargetSize(q)
	// map from output back to source, so every output pixel is set
	inv, err := NewHomography(DestQuad(w, h), q)
	if err != nil {
		return nil, err
	}
	return Warp(src, inv, w, h), nil
}

// checkSize ensures q rectifies to no more than MaxPixels. It works
// in floating point so that huge edges can't overflow an int.
func checkSize(q quad.Quad) error {
	top, bottom, left, right := q.Edges()
	w := math.Max(math.Round(math.Max(top, bottom)), MinSide)
	h := math.Max(math.Round(math.Max(left, right)), MinSide)
	if !(w*h <= MaxPixels) {
		return fmt.Errorf("%w: %.0f by %.0f pixels", ErrTooLarge, w, h)
	}
	return nil
}

// Warp produces a w by h image where each pixel is sampled from src
// at the position inv maps the pixel centre to.
func Warp(src image.Image, inv Homography, w, h int) *image.NRGBA {
	s := imaging.Clone(src)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	rows := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				warpRow(dst, s, inv, y)
			}
		}()
	}
	for y := 0; y < h; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()

	return dst
}

func warpRow(dst, src *image.NRGBA, inv Homography, y int) {
	sw, sh := float64(src.Rect.Dx()), float64(src.Rect.Dy())
	off := dst.PixOffset(0, y)
	for x := 0; x < dst.Rect.Dx(); x++ {
		c := Fill
		p, ok := inv.Apply(quad.Pt(float64(x)+0.5, float64(y)+0.5))
		if ok && p.X >= 0 && p.Y >= 0 && p.X <= sw && p.Y <= sh {
			c = bilinear(src, p.X-0.5, p.Y-0.5)
		}
		dst.Pix[off+0] = c.R
		dst.Pix[off+1] = c.G
		dst.Pix[off+2] = c.B
		dst.Pix[off+3] = c.A
		off += 4
	}
}

// bilinear samples src at (x, y) in pixel index space, so (0, 0) is
// the centre of the top left pixel. Positions past the outer pixel
// centres take the edge pixels.
// src must have its origin at (0, 0).
func bilinear(src *image.NRGBA, x, y float64) color.NRGBA {
	maxx, maxy := src.Rect.Dx()-1, src.Rect.Dy()-1
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix0, iy0 := clampi(int(x0), maxx), clampi(int(y0), maxy)
	ix1, iy1 := clampi(int(x0)+1, maxx), clampi(int(y0)+1, maxy)

	var out [4]uint8
	for c := 0; c < 4; c++ {
		p00 := float64(src.Pix[iy0*src.Stride+ix0*4+c])
		p10 := float64(src.Pix[iy0*src.Stride+ix1*4+c])
		p01 := float64(src.Pix[iy1*src.Stride+ix0*4+c])
		p11 := float64(src.Pix[iy1*src.Stride+ix1*4+c])
		top := p00 + (p10-p00)*fx
		bot := p01 + (p11-p01)*fx
		v := math.Round(top + (bot-top)*fy)
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		out[c] = uint8(v)
	}
	return color.NRGBA{out[0], out[1], out[2], out[3]}
}

func clampi(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
