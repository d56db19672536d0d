package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Underline geometry, expressed as a fraction of the font size.
const (
	UnderlineOffset    = 0.12
	UnderlineThickness = 0.05
)

// ErrUnsupportedRotation is returned for rotations that are not a multiple
// of 45 degrees.
var ErrUnsupportedRotation = errors.New("unsupported rotation")

// Decoration is a filled bar drawn alongside rotated text.
type Decoration struct {
	// Origin is the bar's start point on its baseline edge.
	Origin    Point
	Width     float64
	Thickness float64
	// Rotation is the counter-clockwise angle in degrees.
	Rotation float64
}

// Rect returns the bar in its own unrotated coordinate system, i.e. the
// rectangle to fill after applying Rotation at Origin.
func (d Decoration) Rect() Rect {
	return Rect{0, 0, d.Width, d.Thickness}
}

// Underline computes the underline bar for text drawn from origin with the
// given measured width and font size, rotated by degrees. The bar sits
// UnderlineOffset*size below the baseline, perpendicular to the text
// direction.
func Underline(origin Point, textWidth, size, degrees float64) Decoration {
	s, c := sincos(degrees)
	off := UnderlineOffset * size
	return Decoration{
		Origin:    Point{origin.X + s*off, origin.Y - c*off},
		Width:     textWidth,
		Thickness: UnderlineThickness * size,
		Rotation:  degrees,
	}
}

// ValidateRotation checks that degrees is a multiple of 45.
func ValidateRotation(degrees float64) error {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) || math.Mod(degrees, 45) != 0 {
		return fmt.Errorf("%w: %g", ErrUnsupportedRotation, degrees)
	}
	return nil
}
