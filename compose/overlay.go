// Package compose draws watermark overlays onto the pages of an existing
// document, either above or below the original page content.
package compose

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/render"
)

var (
	// ErrEmptyTextRun is returned for a text overlay without content.
	ErrEmptyTextRun = errors.New("empty text run")
	// ErrMissingOriginalSnapshot is returned when an overlay is drawn below
	// the page content without a snapshot of the original document.
	ErrMissingOriginalSnapshot = errors.New("missing original document snapshot")
	// ErrUnsupportedRotation is returned for rotations that are not a
	// multiple of 45 degrees.
	ErrUnsupportedRotation = geometry.ErrUnsupportedRotation
)

// DefaultFontSize is used for text runs without a size.
const DefaultFontSize = 48.0

// Kind selects what an overlay draws.
type Kind int

const (
	// KindText draws a text run.
	KindText Kind = iota
	// KindImage draws a raster image.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ZOrder selects whether an overlay is drawn in front of or behind the
// existing page content.
type ZOrder int

const (
	// Above draws the overlay on top of the page content.
	Above ZOrder = iota
	// Below draws the overlay behind the page content.
	Below
)

func (z ZOrder) String() string {
	switch z {
	case Above:
		return "above"
	case Below:
		return "below"
	}
	return fmt.Sprintf("ZOrder(%d)", int(z))
}

// ParseZOrder parses "above" or "below".
func ParseZOrder(s string) (ZOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "above", "front", "over":
		return Above, nil
	case "below", "behind", "under":
		return Below, nil
	}
	return Above, fmt.Errorf("invalid z-order %q", s)
}

// TextRun is the text drawn by a text overlay.
type TextRun struct {
	// Content may contain the template variables {{Page}}, {{Pages}} and
	// {{Date}}.
	Content string
	// Font defaults to Helvetica.
	Font *fonts.Font
	// Size is the font size in points.
	Size                    float64
	Bold, Italic, Underline bool
}

// Tiling repeats an overlay across the page on a square grid.
type Tiling struct {
	// Spacing is the distance between tile centers in points.
	Spacing float64
}

// Overlay is one watermark element. It is applied unchanged to every
// target page.
type Overlay struct {
	Kind  Kind
	Text  *TextRun
	Image *images.Normalized
	// Anchor defaults to geometry.Center. It is ignored when tiling.
	Anchor geometry.Placement
	// Rotation is the counter-clockwise rotation in degrees, a multiple
	// of 45.
	Rotation float64
	// Opacity is the alpha in [0, 1].
	Opacity float64
	Color   render.Color
	ZOrder  ZOrder
	Tiling  *Tiling
	// Width is the display width of an image in points. Zero draws the
	// image at one point per pixel. Images are always shrunk to fit
	// within the page margins.
	Width float64
}

// Validate checks the overlay before any page is modified.
func (o *Overlay) Validate() error {
	switch o.Kind {
	case KindText:
		if o.Text == nil || strings.TrimSpace(o.Text.Content) == "" {
			return ErrEmptyTextRun
		}
		if o.Text.Size < 0 || math.IsNaN(o.Text.Size) {
			return fmt.Errorf("invalid font size %g", o.Text.Size)
		}
	case KindImage:
		if o.Image == nil || o.Image.Width <= 0 || o.Image.Height <= 0 {
			return fmt.Errorf("image overlay: %w", geometry.ErrDegenerateAsset)
		}
		if o.Width < 0 || math.IsNaN(o.Width) {
			return fmt.Errorf("invalid image width %g", o.Width)
		}
	default:
		return fmt.Errorf("unsupported overlay kind %v", o.Kind)
	}
	if err := geometry.ValidateRotation(o.Rotation); err != nil {
		return err
	}
	if math.IsNaN(o.Opacity) || o.Opacity < 0 || o.Opacity > 1 {
		return fmt.Errorf("opacity %g outside [0, 1]", o.Opacity)
	}
	if o.ZOrder != Above && o.ZOrder != Below {
		return fmt.Errorf("unsupported z-order %v", o.ZOrder)
	}
	if o.Tiling != nil {
		if err := geometry.ValidateSpacing(o.Tiling.Spacing); err != nil {
			return err
		}
	}
	return nil
}

func (o *Overlay) placement() geometry.Placement {
	if o.Anchor == nil {
		return geometry.Center
	}
	return o.Anchor
}

func (t *TextRun) size() float64 {
	if t.Size == 0 {
		return DefaultFontSize
	}
	return t.Size
}
