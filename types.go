package pdfstamp

import (
	"errors"
	"fmt"

	"github.com/digitorus/pdfstamp/compose"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/render"
)

var (
	// ErrInvalidPageRange is returned for a page range outside the document.
	ErrInvalidPageRange = errors.New("invalid page range")
	// ErrEncrypted is returned when opening an encrypted document.
	ErrEncrypted = errors.New("encrypted documents are not supported")
	// ErrNoWatermark is returned by Write when no watermark was configured.
	ErrNoWatermark = errors.New("no watermark configured")
	// ErrNoImages is returned by ImageDocument.Write without images.
	ErrNoImages = errors.New("no images to assemble")
	// ErrAlreadyWritten is returned when Write is called more than once.
	ErrAlreadyWritten = errors.New("document already written")

	// Errors of the underlying packages, for matching with errors.Is.
	ErrAssetDecode             = images.ErrAssetDecode
	ErrDegenerateAsset         = geometry.ErrDegenerateAsset
	ErrTilingSpacingTooSmall   = geometry.ErrTilingSpacingTooSmall
	ErrUnsupportedRotation     = compose.ErrUnsupportedRotation
	ErrEmptyTextRun            = compose.ErrEmptyTextRun
	ErrMissingOriginalSnapshot = compose.ErrMissingOriginalSnapshot
)

// State is the progress of a Write call.
type State int32

const (
	// Idle is the state before Write is called.
	Idle State = iota
	// Snapshot is the state while the original document is captured.
	Snapshot
	// Processing is the state while pages are rewritten.
	Processing
	// Done is the state after a successful write.
	Done
	// Failed is the state after an error aborted the write.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Snapshot:
		return "snapshot"
	case Processing:
		return "processing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// PageRange selects the pages a watermark is applied to. The zero value
// selects all pages.
type PageRange struct {
	// From and To are 1-based and inclusive. A zero To means the last page.
	From, To int
}

// AllPages selects every page of the document.
var AllPages = PageRange{}

// Pages returns the range [from, to].
func Pages(from, to int) PageRange {
	return PageRange{From: from, To: to}
}

// IsAll reports whether r selects every page.
func (r PageRange) IsAll() bool {
	return r == AllPages
}

// bounds resolves r against a document of n pages.
func (r PageRange) bounds(n int) (from, to int, err error) {
	if r.IsAll() {
		return 1, n, nil
	}
	from, to = r.From, r.To
	if to == 0 {
		to = n
	}
	if from < 1 || to < from || to > n {
		return 0, 0, fmt.Errorf("%w: [%d, %d] in a document of %d pages", ErrInvalidPageRange, r.From, r.To, n)
	}
	return from, to, nil
}

func (r PageRange) String() string {
	if r.IsAll() {
		return "all"
	}
	if r.To == 0 {
		return fmt.Sprintf("%d-", r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Result contains the result of a Write operation.
type Result struct {
	// Pages are the geometries of the pages written or modified, in order.
	Pages []geometry.Page
	// Processed is the number of pages written or modified.
	Processed int
	// Assets is the number of distinct raster images embedded.
	Assets int
}

// Font is an alias for fonts.Font.
type Font = fonts.Font

// FontMetrics is an alias for fonts.Metrics.
type FontMetrics = fonts.Metrics

// Image is an alias for images.Source.
type Image = images.Source

// Color is an RGB color.
type Color = render.Color

// Anchor is an alias for geometry.Anchor.
type Anchor = geometry.Anchor

const (
	TopLeft      = geometry.TopLeft
	TopCenter    = geometry.TopCenter
	TopRight     = geometry.TopRight
	MiddleLeft   = geometry.MiddleLeft
	Center       = geometry.Center
	MiddleRight  = geometry.MiddleRight
	BottomLeft   = geometry.BottomLeft
	BottomCenter = geometry.BottomCenter
	BottomRight  = geometry.BottomRight
)

// ZOrder is an alias for compose.ZOrder.
type ZOrder = compose.ZOrder

const (
	// Above draws a watermark on top of the page content.
	Above = compose.Above
	// Below draws a watermark behind the page content.
	Below = compose.Below
)

const (
	// PDF coordinates are defined in "user space units". By default, one unit
	// corresponds to one "point" (1/72 of an inch).
	//
	// These constants can be used to convert from physical units to PDF points.

	// Millimeter represents the number of PDF user space units in one millimeter.
	Millimeter = 72.0 / 25.4
	// Centimeter represents the number of PDF user space units in one centimeter.
	Centimeter = 72.0 / 2.54
	// Inch represents the number of PDF user space units in one inch.
	Inch = 72.0
)

// StandardFontType is an alias for fonts.StandardType.
type StandardFontType = fonts.StandardType

const (
	// Helvetica is the standard Helvetica font.
	Helvetica = fonts.Helvetica
	// HelveticaBold is bold Helvetica.
	HelveticaBold = fonts.HelveticaBold
	// HelveticaOblique is oblique Helvetica.
	HelveticaOblique = fonts.HelveticaOblique
	// TimesRoman is Times Roman font.
	TimesRoman = fonts.TimesRoman
	// TimesBold is bold Times Roman.
	TimesBold = fonts.TimesBold
	// Courier is Courier font.
	Courier = fonts.Courier
	// CourierBold is bold Courier.
	CourierBold = fonts.CourierBold
)

// StandardFont returns a Font for a standard PDF font.
func StandardFont(ft StandardFontType) *Font {
	return fonts.Standard(ft)
}

// ParseTTFMetrics parses a TrueType font file and extracts glyph metrics.
func ParseTTFMetrics(data []byte) (*FontMetrics, error) {
	return fonts.ParseTTFMetrics(data)
}
