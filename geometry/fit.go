package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateAsset is returned when an asset has a zero or negative dimension.
var ErrDegenerateAsset = errors.New("degenerate asset")

// FitResult is the outcome of fitting an asset into a target box.
type FitResult struct {
	Scale   float64
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
}

// Box returns the fitted box positioned inside a target whose lower-left
// corner is at origin.
func (f FitResult) Box(origin Point) Rect {
	return Rect{origin.X + f.OffsetX, origin.Y + f.OffsetY, f.Width, f.Height}
}

// Fit computes a uniform scale factor so that an asset of assetW x assetH fits
// inside targetW x targetH, and centers the scaled box in the target.
//
// The scale is never larger than 1 unless upscale is set, and the aspect ratio
// is always preserved.
func Fit(assetW, assetH, targetW, targetH float64, upscale bool) (FitResult, error) {
	if assetW <= 0 || assetH <= 0 {
		return FitResult{}, fmt.Errorf("%w: %gx%g", ErrDegenerateAsset, assetW, assetH)
	}
	if targetW < 0 || targetH < 0 {
		return FitResult{}, fmt.Errorf("invalid target box %gx%g", targetW, targetH)
	}

	scale := math.Min(targetW/assetW, targetH/assetH)
	if !upscale && scale > 1 {
		scale = 1
	}

	w := assetW * scale
	h := assetH * scale
	// Rounding in the multiplication above must never push the box outside
	// the target.
	w = math.Min(w, targetW)
	h = math.Min(h, targetH)

	return FitResult{
		Scale:   scale,
		Width:   w,
		Height:  h,
		OffsetX: (targetW - w) / 2,
		OffsetY: (targetH - h) / 2,
	}, nil
}
