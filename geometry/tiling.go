package geometry

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

// MinTileSpacing is the smallest accepted distance between tile centers.
const MinTileSpacing = 20.0

// ErrTilingSpacingTooSmall is returned when a tiling spacing is below
// MinTileSpacing.
var ErrTilingSpacingTooSmall = errors.New("tiling spacing too small")

// ValidateSpacing checks a tiling spacing before it is used with Tiles.
func ValidateSpacing(spacing float64) error {
	if math.IsNaN(spacing) || spacing < MinTileSpacing {
		return fmt.Errorf("%w: %g < %g", ErrTilingSpacingTooSmall, spacing, MinTileSpacing)
	}
	return nil
}

// TileCount returns the number of tile centers per axis.
func TileCount(pageW, pageH, spacing float64) (cols, rows int) {
	if spacing <= 0 || pageW <= 0 || pageH <= 0 {
		return 0, 0
	}
	return int(math.Ceil(pageW / spacing)), int(math.Ceil(pageH / spacing))
}

// Tiles yields tile centers covering a pageW x pageH page, row by row from
// the bottom-left, starting at (spacing/2, spacing/2). The spacing must have
// been checked with ValidateSpacing; a non-positive spacing yields nothing.
func Tiles(pageW, pageH, spacing float64) iter.Seq[Point] {
	cols, rows := TileCount(pageW, pageH, spacing)
	return func(yield func(Point) bool) {
		for r := 0; r < rows; r++ {
			y := spacing/2 + float64(r)*spacing
			for c := 0; c < cols; c++ {
				if !yield(Point{spacing/2 + float64(c)*spacing, y}) {
					return
				}
			}
		}
	}
}
