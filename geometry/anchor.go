package geometry

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMargin is the distance kept between an anchored element and the
// page edges it is anchored to.
const DefaultMargin = 50.0

// Placement selects where an element goes on a page. It is either an Anchor
// or an Explicit position.
type Placement interface {
	isPlacement()
}

// Anchor is one of nine canonical page positions.
type Anchor int

const (
	// Center places the element in the middle of the page.
	Center Anchor = iota
	// TopLeft places the element in the top-left corner.
	TopLeft
	// TopCenter places the element centered along the top edge.
	TopCenter
	// TopRight places the element in the top-right corner.
	TopRight
	// MiddleLeft places the element centered along the left edge.
	MiddleLeft
	// MiddleRight places the element centered along the right edge.
	MiddleRight
	// BottomLeft places the element in the bottom-left corner.
	BottomLeft
	// BottomCenter places the element centered along the bottom edge.
	BottomCenter
	// BottomRight places the element in the bottom-right corner.
	BottomRight
)

// Anchors lists all anchors in reading order.
var Anchors = []Anchor{
	TopLeft, TopCenter, TopRight,
	MiddleLeft, Center, MiddleRight,
	BottomLeft, BottomCenter, BottomRight,
}

var anchorNames = map[Anchor]string{
	Center:       "center",
	TopLeft:      "top-left",
	TopCenter:    "top-center",
	TopRight:     "top-right",
	MiddleLeft:   "middle-left",
	MiddleRight:  "middle-right",
	BottomLeft:   "bottom-left",
	BottomCenter: "bottom-center",
	BottomRight:  "bottom-right",
}

func (a Anchor) String() string {
	if n, ok := anchorNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// ParseAnchor parses an anchor name such as "top-left" or "middle-right".
// "middle" and "center" are accepted as synonyms for the middle row.
func ParseAnchor(s string) (Anchor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "middle", "middle-center", "center-center":
		return Center, nil
	case "center-left":
		return MiddleLeft, nil
	case "center-right":
		return MiddleRight, nil
	}
	for a, n := range anchorNames {
		if n == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown anchor %q", s)
}

func (Anchor) isPlacement() {}

type align int

const (
	alignStart align = iota
	alignMiddle
	alignEnd
)

// axes returns the horizontal and vertical alignment of the anchor.
func (a Anchor) axes() (h, v align, err error) {
	switch a {
	case TopLeft:
		return alignStart, alignEnd, nil
	case TopCenter:
		return alignMiddle, alignEnd, nil
	case TopRight:
		return alignEnd, alignEnd, nil
	case MiddleLeft:
		return alignStart, alignMiddle, nil
	case Center:
		return alignMiddle, alignMiddle, nil
	case MiddleRight:
		return alignEnd, alignMiddle, nil
	case BottomLeft:
		return alignStart, alignStart, nil
	case BottomCenter:
		return alignMiddle, alignStart, nil
	case BottomRight:
		return alignEnd, alignStart, nil
	}
	return 0, 0, fmt.Errorf("invalid anchor %d", int(a))
}

// Explicit places the lower-left corner of an element at a fixed position,
// bypassing anchor logic.
type Explicit struct {
	X, Y float64
}

func (Explicit) isPlacement() {}

// At returns an explicit placement.
func At(x, y float64) Explicit {
	return Explicit{X: x, Y: y}
}

// Resolve returns the lower-left corner of a boxW x boxH element placed on a
// pageW x pageH page. Edge-aligned axes are clamped to the page; centered
// axes always resolve to dim/2 - box/2, even when the box overflows.
func Resolve(pageW, pageH, boxW, boxH float64, p Placement, margin float64) (Point, error) {
	switch p := p.(type) {
	case Explicit:
		return Point{p.X, p.Y}, nil
	case Anchor:
		h, v, err := p.axes()
		if err != nil {
			return Point{}, err
		}
		return Point{
			X: position(h, pageW, boxW, margin),
			Y: position(v, pageH, boxH, margin),
		}, nil
	case nil:
		return Point{}, fmt.Errorf("no placement given")
	}
	return Point{}, fmt.Errorf("unsupported placement %T", p)
}

func position(a align, dim, box, margin float64) float64 {
	switch a {
	case alignStart:
		return clamp(margin, 0, dim)
	case alignEnd:
		return clamp(dim-margin-box, 0, dim)
	default:
		return dim/2 - box/2
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RotatedOrigin returns the drawing origin for a boxW x boxH element whose
// unrotated lower-left corner is at ll, such that after rotating the element
// by degrees around its origin its center stays at the center of the box.
func RotatedOrigin(ll Point, boxW, boxH, degrees float64) Point {
	c := Point{ll.X + boxW/2, ll.Y + boxH/2}
	return CenteredOrigin(c, boxW, boxH, degrees)
}

// CenteredOrigin returns the drawing origin that places the center of a
// rotated boxW x boxH element at c.
func CenteredOrigin(c Point, boxW, boxH, degrees float64) Point {
	half := Rotation(degrees).Apply(Point{boxW / 2, boxH / 2})
	return Point{c.X - half.X, c.Y - half.Y}
}
