package render

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/internal/pdf"
)

// Text rendering modes used by Content.TextRenderMode.
const (
	RenderFill       = 0
	RenderFillStroke = 2
)

// Content accumulates content stream operators.
type Content struct {
	buf bytes.Buffer
}

// Bytes returns the operators written so far.
func (c *Content) Bytes() []byte { return c.buf.Bytes() }

// Len returns the number of bytes written so far.
func (c *Content) Len() int { return c.buf.Len() }

func (c *Content) op(operands ...float64) {
	for _, v := range operands {
		c.buf.WriteString(pdf.Number(v))
		c.buf.WriteByte(' ')
	}
}

// Save pushes the graphics state (q).
func (c *Content) Save() *Content {
	c.buf.WriteString("q\n")
	return c
}

// Restore pops the graphics state (Q).
func (c *Content) Restore() *Content {
	c.buf.WriteString("Q\n")
	return c
}

// Transform concatenates m to the current transformation matrix (cm).
func (c *Content) Transform(m geometry.Matrix) *Content {
	if m.IsIdentity() {
		return c
	}
	c.op(m[:]...)
	c.buf.WriteString("cm\n")
	return c
}

// GState applies the named ExtGState resource (gs).
func (c *Content) GState(name string) *Content {
	fmt.Fprintf(&c.buf, "%s gs\n", pdf.Name(name))
	return c
}

// FillColor sets the RGB fill color (rg).
func (c *Content) FillColor(col Color) *Content {
	r, g, b := col.Components()
	c.op(r, g, b)
	c.buf.WriteString("rg\n")
	return c
}

// StrokeColor sets the RGB stroke color (RG).
func (c *Content) StrokeColor(col Color) *Content {
	r, g, b := col.Components()
	c.op(r, g, b)
	c.buf.WriteString("RG\n")
	return c
}

// LineWidth sets the stroke width (w).
func (c *Content) LineWidth(w float64) *Content {
	c.op(w)
	c.buf.WriteString("w\n")
	return c
}

// FillRect fills the rectangle with the current fill color (re f).
func (c *Content) FillRect(r geometry.Rect) *Content {
	c.op(r.X, r.Y, r.Width, r.Height)
	c.buf.WriteString("re f\n")
	return c
}

// BeginText starts a text object (BT).
func (c *Content) BeginText() *Content {
	c.buf.WriteString("BT\n")
	return c
}

// EndText ends a text object (ET).
func (c *Content) EndText() *Content {
	c.buf.WriteString("ET\n")
	return c
}

// Font selects the named font resource at size (Tf).
func (c *Content) Font(name string, size float64) *Content {
	fmt.Fprintf(&c.buf, "%s %s Tf\n", pdf.Name(name), pdf.Number(size))
	return c
}

// TextMatrix sets the text matrix (Tm).
func (c *Content) TextMatrix(m geometry.Matrix) *Content {
	c.op(m[:]...)
	c.buf.WriteString("Tm\n")
	return c
}

// TextRenderMode sets the text rendering mode (Tr).
func (c *Content) TextRenderMode(mode int) *Content {
	fmt.Fprintf(&c.buf, "%d Tr\n", mode)
	return c
}

// ShowText shows encoded text as a hex string (Tj).
func (c *Content) ShowText(encoded []byte) *Content {
	fmt.Fprintf(&c.buf, "<%s> Tj\n", hex.EncodeToString(encoded))
	return c
}

// Draw paints the named XObject resource (Do).
func (c *Content) Draw(name string) *Content {
	fmt.Fprintf(&c.buf, "%s Do\n", pdf.Name(name))
	return c
}

// Raw appends operators verbatim, followed by a newline.
func (c *Content) Raw(ops []byte) *Content {
	c.buf.Write(ops)
	if len(ops) > 0 && ops[len(ops)-1] != '\n' {
		c.buf.WriteByte('\n')
	}
	return c
}
