// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// Package enhance contains the pixel filters applied to a rectified
// page before it is saved, to make it look like a scan rather than
// a photograph.
package enhance

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"rescribe.xyz/preproc"
)

// Luminance weights, and the contrast gain and offset applied to
// the resulting grey level.
const (
	WeightR  = 0.213
	WeightG  = 0.715
	WeightB  = 0.072
	Contrast = 1.3
	Offset   = -76.5
)

// Default Sauvola settings for Binarise
const (
	DefaultKsize = 0.3
	DefaultWsize = 31
)

// Filter is the signature shared by the enhancement filters, so the
// pipeline can be handed any of them.
type Filter func(image.Image) image.Image

// None returns img unchanged.
func None(img image.Image) image.Image {
	return img
}

// Scan converts img to a high contrast greyscale image, keeping the
// alpha of each pixel. The result has the same size as img.
func Scan(img image.Image) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := WeightR*float64(c.R) + WeightG*float64(c.G) + WeightB*float64(c.B)
		v := clamp(Contrast*l + Offset)
		return color.NRGBA{v, v, v, c.A}
	})
}

// Binarise returns a black and white version of img, using Sauvola's
// algorithm with the given k value and window size.
func Binarise(ksize float64, wsize int) Filter {
	return func(img image.Image) image.Image {
		b := img.Bounds()
		gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
		return preproc.IntegralSauvola(gray, ksize, wsize)
	}
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
