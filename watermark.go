package pdfstamp

import (
	"github.com/digitorus/pdfstamp/compose"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/render"
)

// WatermarkBuilder configures one watermark. The watermark is applied to
// every selected page when doc.Write() is called.
//
// By default a watermark is drawn above the page content, centered, in gray
// Helvetica at compose.DefaultFontSize and fully opaque.
type WatermarkBuilder struct {
	doc *Document

	kind    compose.Kind
	content string
	font    *Font
	size    float64
	bold    bool
	italic  bool
	under   bool
	color   Color

	image *Image
	width float64

	placement geometry.Placement
	rotation  float64
	opacity   float64
	zorder    ZOrder
	spacing   float64
	tiled     bool
}

// Watermark begins a new watermark and returns a builder for fluent
// configuration.
func (d *Document) Watermark() *WatermarkBuilder {
	b := &WatermarkBuilder{
		doc:       d,
		kind:      compose.KindText,
		color:     render.Gray,
		placement: geometry.Center,
		opacity:   1,
		zorder:    compose.Above,
	}
	d.watermarks = append(d.watermarks, b)
	return b
}

// Text sets the watermark text. The text may contain the template variables
// {{Page}}, {{Pages}} and {{Date}}.
func (b *WatermarkBuilder) Text(content string) *WatermarkBuilder {
	b.kind = compose.KindText
	b.content = content
	return b
}

// Image draws a raster image instead of text.
func (b *WatermarkBuilder) Image(img *Image) *WatermarkBuilder {
	b.kind = compose.KindImage
	b.image = img
	return b
}

// Font sets the font and size for the text.
func (b *WatermarkBuilder) Font(font *Font, size float64) *WatermarkBuilder {
	b.font = font
	b.size = size
	return b
}

// Size sets the font size in points.
func (b *WatermarkBuilder) Size(size float64) *WatermarkBuilder {
	b.size = size
	return b
}

// Bold selects the bold face of the font. Embedded fonts without a bold
// face are emboldened by stroking the glyph outlines.
func (b *WatermarkBuilder) Bold() *WatermarkBuilder {
	b.bold = true
	return b
}

// Italic selects the italic face of the font. Embedded fonts are slanted.
func (b *WatermarkBuilder) Italic() *WatermarkBuilder {
	b.italic = true
	return b
}

// Underline draws a bar under the text, rotated with it.
func (b *WatermarkBuilder) Underline() *WatermarkBuilder {
	b.under = true
	return b
}

// SetColor sets the text color.
func (b *WatermarkBuilder) SetColor(r, g, bl uint8) *WatermarkBuilder {
	b.color = Color{R: r, G: g, B: bl}
	return b
}

// Color sets the text color.
func (b *WatermarkBuilder) Color(c Color) *WatermarkBuilder {
	b.color = c
	return b
}

// Width sets the display width of an image in points. The height follows
// from the aspect ratio. Images never grow beyond the page margins.
func (b *WatermarkBuilder) Width(w float64) *WatermarkBuilder {
	b.width = w
	return b
}

// Anchor places the watermark at one of the nine page anchors, keeping
// geometry.DefaultMargin from the page edges.
func (b *WatermarkBuilder) Anchor(a Anchor) *WatermarkBuilder {
	b.placement = a
	return b
}

// Position places the lower-left corner of the watermark at (x, y) in
// visual page coordinates.
func (b *WatermarkBuilder) Position(x, y float64) *WatermarkBuilder {
	b.placement = geometry.At(x, y)
	return b
}

// Rotate rotates the watermark counter-clockwise by a multiple of 45 degrees.
func (b *WatermarkBuilder) Rotate(degrees float64) *WatermarkBuilder {
	b.rotation = degrees
	return b
}

// Opacity sets the watermark opacity from 0 (invisible) to 1 (opaque).
func (b *WatermarkBuilder) Opacity(alpha float64) *WatermarkBuilder {
	b.opacity = alpha
	return b
}

// Tile repeats the watermark across the page with spacing points between
// tile centers. The anchor is ignored. Spacing below
// geometry.MinTileSpacing, zero included, fails the run with
// ErrTilingSpacingTooSmall.
func (b *WatermarkBuilder) Tile(spacing float64) *WatermarkBuilder {
	b.spacing = spacing
	b.tiled = true
	return b
}

// Above draws the watermark on top of the page content.
func (b *WatermarkBuilder) Above() *WatermarkBuilder {
	b.zorder = compose.Above
	return b
}

// Below draws the watermark behind the page content.
func (b *WatermarkBuilder) Below() *WatermarkBuilder {
	b.zorder = compose.Below
	return b
}

// ZOrder sets whether the watermark is drawn above or below the page content.
func (b *WatermarkBuilder) ZOrder(z ZOrder) *WatermarkBuilder {
	b.zorder = z
	return b
}

// overlay returns the compositor overlay. img is the normalized b.image.
func (b *WatermarkBuilder) overlay(img *images.Normalized) compose.Overlay {
	o := compose.Overlay{
		Kind:     b.kind,
		Anchor:   b.placement,
		Rotation: b.rotation,
		Opacity:  b.opacity,
		Color:    b.color,
		ZOrder:   b.zorder,
		Width:    b.width,
	}
	switch b.kind {
	case compose.KindText:
		o.Text = &compose.TextRun{
			Content:   b.content,
			Font:      b.font,
			Size:      b.size,
			Bold:      b.bold,
			Italic:    b.italic,
			Underline: b.under,
		}
	case compose.KindImage:
		o.Image = img
	}
	if b.tiled {
		o.Tiling = &compose.Tiling{Spacing: b.spacing}
	}
	return o
}
