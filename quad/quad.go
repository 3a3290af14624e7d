// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// quad holds the four point document outline that a user drags over
// an image, along with the coordinate mapping and drag handling used
// to edit it interactively.
package quad

import (
	"fmt"
	"strconv"
	"strings"
)

// Corner indices. A Quad is always in this rotational order, which
// the rectifier relies on when pairing corners with the output
// rectangle.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// insetFrac is how far in from each image edge the default quad sits
const insetFrac = 0.1

// Quad is an ordered set of four corners: top-left, top-right,
// bottom-right, bottom-left. Edits produce a new Quad value rather
// than modifying one that has been handed out.
type Quad [4]Point

// DefaultQuad returns the starting outline for an image of w x h:
// a rectangle inset to 10% and 90% of each axis.
func DefaultQuad(w, h int) Quad {
	fw, fh := float64(w), float64(h)
	lo, hi := insetFrac, 1-insetFrac
	return Quad{
		Pt(fw*lo, fh*lo),
		Pt(fw*hi, fh*lo),
		Pt(fw*hi, fh*hi),
		Pt(fw*lo, fh*hi),
	}
}

// Edges returns the lengths of the top, bottom, left and right sides.
func (q Quad) Edges() (top, bottom, left, right float64) {
	top = Distance(q[TopLeft], q[TopRight])
	bottom = Distance(q[BottomLeft], q[BottomRight])
	left = Distance(q[TopLeft], q[BottomLeft])
	right = Distance(q[TopRight], q[BottomRight])
	return top, bottom, left, right
}

// With returns a copy of q with corner i replaced by p.
func (q Quad) With(i int, p Point) Quad {
	q[i] = p
	return q
}

// Clamp returns a copy of q with every corner clamped into
// [0,w] x [0,h].
func (q Quad) Clamp(w, h float64) Quad {
	for i, p := range q {
		q[i] = Pt(clamp(p.X, 0, w), clamp(p.Y, 0, h))
	}
	return q
}

// String formats q the way ParseQuad reads it.
func (q Quad) String() string {
	s := make([]string, len(q))
	for i, p := range q {
		s[i] = p.String()
	}
	return strings.Join(s, " ")
}

// ParseQuad parses four space separated "x,y" pairs, in the order
// top-left, top-right, bottom-right, bottom-left.
func ParseQuad(s string) (Quad, error) {
	var q Quad
	f := strings.Fields(s)
	if len(f) != len(q) {
		return q, fmt.Errorf("Error parsing quad, need %d points, got %d", len(q), len(f))
	}
	for i, pair := range f {
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return q, fmt.Errorf("Error parsing point %q, expected x,y", pair)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return q, fmt.Errorf("Error parsing x of point %q: %v", pair, err)
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return q, fmt.Errorf("Error parsing y of point %q: %v", pair, err)
		}
		q[i] = Pt(x, y)
	}
	return q, nil
}
