// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package rectify

import (
	"fmt"
	"math"

	"rescribe.xyz/docscan/quad"
)

// collinearEps is the relative area below which three corners are
// treated as lying on one line
const collinearEps = 1e-9

// DegenerateQuadError is returned when no projective transform can
// be built from a quad, because two of its corners coincide or three
// of them lie on a line.
type DegenerateQuadError struct {
	Quad quad.Quad
	// Corners are the indices of the three corners found to be
	// collinear (or coincident).
	Corners [3]int
}

func (e DegenerateQuadError) Error() string {
	return fmt.Sprintf("Degenerate quad %v: corners %d, %d and %d are coincident or collinear",
		e.Quad, e.Corners[0], e.Corners[1], e.Corners[2])
}

// Homography is a 3x3 projective transform in row major order,
// mapping (x, y, 1) to (X, Y, W) with the result point at (X/W, Y/W).
type Homography [9]float64

// Identity is the transform which leaves every point where it is.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// checkQuad ensures that no three corners of q are collinear, which
// is what a planar projective transform needs to be unique and
// invertible. Two corners at the same spot count as collinear with
// any third.
func checkQuad(q quad.Quad) error {
	triples := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, t := range triples {
		a, b, c := q[t[0]], q[t[1]], q[t[2]]
		ab, ac := b.Sub(a), c.Sub(a)
		area := ab.X*ac.Y - ab.Y*ac.X
		size := math.Max(ab.X*ab.X+ab.Y*ab.Y, ac.X*ac.X+ac.Y*ac.Y)
		if math.IsNaN(area) || math.IsInf(area, 0) || size == 0 || math.Abs(area) <= collinearEps*size {
			return DegenerateQuadError{Quad: q, Corners: t}
		}
	}
	return nil
}

// squareToQuad builds the transform taking the unit square corners
// (0,0), (1,0), (1,1), (0,1) to the corners of q, in order. q must
// already have passed checkQuad.
func squareToQuad(q quad.Quad) Homography {
	x0, y0 := q[0].X, q[0].Y
	x1, y1 := q[1].X, q[1].Y
	x2, y2 := q[2].X, q[2].Y
	x3, y3 := q[3].X, q[3].Y

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// parallelogram, so affine is enough
		return Homography{
			x1 - x0, x2 - x1, x0,
			y1 - y0, y2 - y1, y0,
			0, 0, 1,
		}
	}

	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	den := dx1*dy2 - dx2*dy1
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den
	return Homography{
		x1 - x0 + g*x1, x3 - x0 + h*x3, x0,
		y1 - y0 + g*y1, y3 - y0 + h*y3, y0,
		g, h, 1,
	}
}

// NewHomography builds the projective transform which takes each
// corner of src to the matching corner of dst.
func NewHomography(src, dst quad.Quad) (Homography, error) {
	err := checkQuad(src)
	if err != nil {
		return Homography{}, err
	}
	err = checkQuad(dst)
	if err != nil {
		return Homography{}, err
	}
	toSquare, err := squareToQuad(src).Inverse()
	if err != nil {
		return Homography{}, DegenerateQuadError{Quad: src, Corners: [3]int{0, 1, 2}}
	}
	return squareToQuad(dst).Mul(toSquare).normalise(), nil
}

// adjugate returns the transpose of the cofactor matrix, which is
// the inverse scaled by the determinant.
func (m Homography) adjugate() Homography {
	return Homography{
		m[4]*m[8] - m[5]*m[7],
		m[2]*m[7] - m[1]*m[8],
		m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8],
		m[0]*m[8] - m[2]*m[6],
		m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6],
		m[1]*m[6] - m[0]*m[7],
		m[0]*m[4] - m[1]*m[3],
	}
}

// Det returns the determinant of m.
func (m Homography) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the transform undoing m.
func (m Homography) Inverse() (Homography, error) {
	det := m.Det()
	scale := 0.0
	for _, v := range m {
		scale = math.Max(scale, math.Abs(v))
	}
	if det == 0 || math.IsNaN(det) || math.Abs(det) <= 1e-12*scale*scale*scale {
		return Homography{}, fmt.Errorf("Homography is singular, determinant %g", det)
	}
	adj := m.adjugate()
	for i := range adj {
		adj[i] /= det
	}
	return adj.normalise(), nil
}

// Mul returns m * n, the transform applying n and then m.
func (m Homography) Mul(n Homography) Homography {
	var r Homography
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[row*3+k] * n[k*3+col]
			}
			r[row*3+col] = sum
		}
	}
	return r
}

// normalise scales m so the bottom right element is 1, where that is
// possible. Projective transforms are unchanged by scaling.
func (m Homography) normalise() Homography {
	if m[8] == 0 {
		return m
	}
	s := m[8]
	for i := range m {
		m[i] /= s
	}
	return m
}

// Apply maps p through m. ok is false if p maps to infinity.
func (m Homography) Apply(p quad.Point) (r quad.Point, ok bool) {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		return quad.Point{}, false
	}
	return quad.Pt((m[0]*p.X+m[1]*p.Y+m[2])/w, (m[3]*p.X+m[4]*p.Y+m[5])/w), true
}
