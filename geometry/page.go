// Package geometry provides the page-coordinate math used to place overlays
// and grid cells on PDF pages.
//
// All coordinates are PDF user space units (1/72 inch) with the origin at the
// bottom-left corner and y increasing upward. Pages whose MediaBox does not
// start at (0, 0) or that carry a /Rotate entry are adapted once, by Page, so
// that the placement functions in this package only ever see a plain
// width x height box.
package geometry

import (
	"fmt"
	"math"
)

// Point is a position in page space.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle given by its lower-left corner and size.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether r fully contains o, allowing for rounding noise.
func (r Rect) Contains(o Rect) bool {
	const eps = 1e-9
	return o.X >= r.X-eps && o.Y >= r.Y-eps &&
		o.X+o.Width <= r.X+r.Width+eps &&
		o.Y+o.Height <= r.Y+r.Height+eps
}

// Orientation of a page, derived from its visual size.
type Orientation int

const (
	// Portrait pages are at least as tall as they are wide.
	Portrait Orientation = iota
	// Landscape pages are wider than they are tall.
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// Page describes the geometry of one page. It is read-only once created.
type Page struct {
	// Index is the 1-based page number within the document.
	Index int
	// Width and Height are the visual size, i.e. after applying Rotate.
	Width, Height float64
	// Origin is the lower-left corner of the MediaBox.
	Origin Point
	// Rotate is the page's /Rotate value normalised to 0, 90, 180 or 270.
	Rotate int
}

// NewPage creates a page from a MediaBox [llx lly urx ury] and a /Rotate value.
func NewPage(index int, mediaBox [4]float64, rotate int) (Page, error) {
	w := mediaBox[2] - mediaBox[0]
	h := mediaBox[3] - mediaBox[1]
	if w <= 0 || h <= 0 {
		return Page{}, fmt.Errorf("page %d: invalid media box %v", index, mediaBox)
	}
	r := ((rotate % 360) + 360) % 360
	if r%90 != 0 {
		return Page{}, fmt.Errorf("page %d: invalid /Rotate %d", index, rotate)
	}
	p := Page{
		Index:  index,
		Width:  w,
		Height: h,
		Origin: Point{mediaBox[0], mediaBox[1]},
		Rotate: r,
	}
	if r == 90 || r == 270 {
		p.Width, p.Height = h, w
	}
	return p, nil
}

// Orientation returns the visual orientation of the page.
func (p Page) Orientation() Orientation {
	if p.Width > p.Height {
		return Landscape
	}
	return Portrait
}

// Bounds returns the visual page box with origin (0, 0).
func (p Page) Bounds() Rect {
	return Rect{0, 0, p.Width, p.Height}
}

// VisualToUser returns the matrix mapping visual page coordinates to the
// page's user space, accounting for a MediaBox offset and /Rotate.
func (p Page) VisualToUser() Matrix {
	// Unrotated MediaBox size.
	w, h := p.Width, p.Height
	if p.Rotate == 90 || p.Rotate == 270 {
		w, h = h, w
	}
	ox, oy := p.Origin.X, p.Origin.Y
	switch p.Rotate {
	case 90:
		return Matrix{0, 1, -1, 0, ox + w, oy}
	case 180:
		return Matrix{-1, 0, 0, -1, ox + w, oy + h}
	case 270:
		return Matrix{0, -1, 1, 0, ox, oy + h}
	default:
		return Matrix{1, 0, 0, 1, ox, oy}
	}
}

// Matrix is a PDF transformation matrix [a b c d e f].
type Matrix [6]float64

// Identity is the identity transformation.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// IsIdentity reports whether m is the identity transformation.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}

// Apply transforms p by m.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Rotation returns a counter-clockwise rotation by degrees around the origin.
func Rotation(degrees float64) Matrix {
	s, c := sincos(degrees)
	return Matrix{c, s, -s, c, 0, 0}
}

// Translate returns m followed by a translation to (x, y).
func (m Matrix) Translate(x, y float64) Matrix {
	m[4] += x
	m[5] += y
	return m
}

// sincos returns sin and cos of an angle in degrees, snapping the quadrant
// angles to exact values so that axis-aligned rotations stay axis-aligned.
func sincos(degrees float64) (float64, float64) {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	rad := d * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}
