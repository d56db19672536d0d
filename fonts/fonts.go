// Package fonts provides font resources and metrics for PDF documents.
//
// This package contains the 12 standard PDF text fonts with their built-in
// width tables and TrueType font parsing for embedded fonts. Text is always
// encoded as WinAnsi, which both kinds of font use.
package fonts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// StandardType represents standard PDF fonts that are available in all PDF readers
// without embedding.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
	// HelveticaBold is bold Helvetica.
	HelveticaBold
	// HelveticaOblique is italic/oblique Helvetica.
	HelveticaOblique
	// HelveticaBoldOblique is bold oblique Helvetica.
	HelveticaBoldOblique
	// TimesRoman is the standard serif font.
	TimesRoman
	// TimesBold is bold Times Roman.
	TimesBold
	// TimesItalic is italic Times Roman.
	TimesItalic
	// TimesBoldItalic is bold italic Times Roman.
	TimesBoldItalic
	// Courier is the standard monospace font.
	Courier
	// CourierBold is bold Courier.
	CourierBold
	// CourierOblique is oblique Courier.
	CourierOblique
	// CourierBoldOblique is bold oblique Courier.
	CourierBoldOblique
)

var standardNames = map[StandardType]string{
	Helvetica:            "Helvetica",
	HelveticaBold:        "Helvetica-Bold",
	HelveticaOblique:     "Helvetica-Oblique",
	HelveticaBoldOblique: "Helvetica-BoldOblique",
	TimesRoman:           "Times-Roman",
	TimesBold:            "Times-Bold",
	TimesItalic:          "Times-Italic",
	TimesBoldItalic:      "Times-BoldItalic",
	Courier:              "Courier",
	CourierBold:          "Courier-Bold",
	CourierOblique:       "Courier-Oblique",
	CourierBoldOblique:   "Courier-BoldOblique",
}

func (t StandardType) String() string {
	if n, ok := standardNames[t]; ok {
		return n
	}
	return fmt.Sprintf("StandardType(%d)", int(t))
}

// Font represents a font resource that can be used in overlays.
type Font struct {
	Name     string   // PostScript name of the font
	Data     []byte   // TrueType font data (nil for standard fonts)
	Hash     string   // SHA256 hash of font data for deduplication
	Embedded bool     // Whether the font should be embedded in the PDF
	Metrics  *Metrics // Parsed metrics for accurate text measurement

	standard StandardType
	isStd    bool
}

// Standard returns a Font for a standard PDF font (no embedding required).
// These fonts are guaranteed to be available in all PDF readers.
func Standard(ft StandardType) *Font {
	name, ok := standardNames[ft]
	if !ok {
		ft, name = Helvetica, standardNames[Helvetica]
	}
	return &Font{
		Name:     name,
		Metrics:  standardMetrics(ft),
		standard: ft,
		isStd:    true,
	}
}

// ParseStandard looks up a standard font by name. Family names such as
// "helvetica", "times" or "courier" select the regular face.
func ParseStandard(name string) (*Font, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "helvetica", "sans", "sans-serif":
		return Standard(Helvetica), nil
	case "times", "serif":
		return Standard(TimesRoman), nil
	case "courier", "mono", "monospace":
		return Standard(Courier), nil
	}
	for t, s := range standardNames {
		if strings.ToLower(s) == n {
			return Standard(t), nil
		}
	}
	return nil, fmt.Errorf("unknown standard font %q", name)
}

// New creates a font from TrueType data. The data is embedded when the font
// is used.
func New(name string, data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("font %s: no font data", name)
	}
	metrics, err := ParseTTFMetrics(data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}
	h := sha256.Sum256(data)
	if name == "" {
		name = metrics.PostScriptName
	}
	return &Font{
		Name:     name,
		Data:     data,
		Hash:     hex.EncodeToString(h[:]),
		Embedded: true,
		Metrics:  metrics,
	}, nil
}

// IsStandard reports whether f is one of the standard PDF fonts.
func (f *Font) IsStandard() bool {
	return f != nil && f.isStd
}

// BaseFont returns the name written to the font dictionary.
func (f *Font) BaseFont() string {
	if f == nil {
		return standardNames[Helvetica]
	}
	if f.Metrics != nil && f.Metrics.PostScriptName != "" && !f.isStd {
		return f.Metrics.PostScriptName
	}
	if f.Name == "" {
		return standardNames[Helvetica]
	}
	return sanitizeName(f.Name)
}

// Variant returns the face of f's family matching bold and italic. Standard
// fonts switch to the matching face; for embedded fonts f itself is returned
// and the caller has to synthesise the style.
func (f *Font) Variant(bold, italic bool) (v *Font, synthBold, synthItalic bool) {
	if f == nil {
		f = Standard(Helvetica)
	}
	if !f.isStd {
		return f, bold, italic
	}
	base := (f.standard / 4) * 4
	style := StandardType(0)
	if bold {
		style++
	}
	if italic {
		style += 2
	}
	// Each family is ordered regular, bold, italic, bold italic.
	return Standard(base + style), false, false
}

// StringWidth is the width of text in points at size, or an approximation
// when f has no metrics.
func (f *Font) StringWidth(text string, size float64) float64 {
	if f == nil {
		return Standard(Helvetica).StringWidth(text, size)
	}
	return f.Metrics.GetStringWidth(text, size)
}

// Metrics contains parsed font metrics for accurate text measurement.
type Metrics struct {
	UnitsPerEm  int
	GlyphWidths map[rune]int // Advance widths in font units
	// Vertical metrics and bounding box, in font units, y up.
	Ascent, Descent, CapHeight int
	BBox                       [4]int
	PostScriptName             string
	// DefaultWidth is used for runes without a glyph width.
	DefaultWidth int

	font *sfnt.Font
}

// ParseTTFMetrics parses a TrueType font file and extracts glyph metrics.
// This enables accurate text width calculations for layout.
func ParseTTFMetrics(data []byte) (*Metrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}

	unitsPerEm := f.UnitsPerEm()

	glyphWidths := make(map[rune]int)
	var buf sfnt.Buffer

	// Use unitsPerEm as the ppem for consistent scaling
	ppem := fixed.Int26_6(unitsPerEm) << 6 // Convert to 26.6 fixed point

	// Every rune reachable through WinAnsi.
	for code := 32; code <= 255; code++ {
		r := decodeWinAnsi(byte(code))
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			continue
		}

		advance, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}

		// advance is in 26.6 fixed point, convert to int (round)
		glyphWidths[r] = int(advance >> 6)
	}

	m := &Metrics{
		UnitsPerEm:   int(unitsPerEm),
		GlyphWidths:  glyphWidths,
		DefaultWidth: int(unitsPerEm) / 2,
		font:         f,
	}

	if fm, err := f.Metrics(&buf, ppem, font.HintingNone); err == nil {
		m.Ascent = fm.Ascent.Round()
		m.Descent = -fm.Descent.Round()
		m.CapHeight = fm.CapHeight.Round()
	}
	if b, err := f.Bounds(&buf, ppem, font.HintingNone); err == nil {
		m.BBox = [4]int{b.Min.X.Round(), -b.Max.Y.Round(), b.Max.X.Round(), -b.Min.Y.Round()}
	}
	if ps, err := f.Name(&buf, sfnt.NameIDPostScript); err == nil {
		m.PostScriptName = sanitizeName(ps)
	}
	return m, nil
}

// GetStringWidth calculates the width of a string in points at the given font size.
func (m *Metrics) GetStringWidth(text string, fontSize float64) float64 {
	if m == nil || m.UnitsPerEm == 0 {
		// Fallback to approximation
		return float64(len([]rune(text))) * fontSize * 0.5
	}

	var totalWidth int
	for _, r := range text {
		totalWidth += m.GetGlyphWidth(r)
	}

	// width_in_points = (width_in_units / unitsPerEm) * fontSize
	return (float64(totalWidth) / float64(m.UnitsPerEm)) * fontSize
}

// GetGlyphWidth returns the width of a single rune in font units.
func (m *Metrics) GetGlyphWidth(r rune) int {
	if m == nil {
		return 0
	}
	if width, ok := m.GlyphWidths[r]; ok {
		return width
	}
	if _, ok := EncodeRune(r); !ok {
		// Unencodable runes are written as '?'.
		if width, ok := m.GlyphWidths['?']; ok {
			return width
		}
	}
	if m.DefaultWidth > 0 {
		return m.DefaultWidth
	}
	return m.UnitsPerEm / 2
}

// GetWidthsArray returns an array of widths for a PDF font dictionary (FirstChar=32, LastChar=255).
// Widths are scaled to 1000 units per em as per PDF specification.
func (m *Metrics) GetWidthsArray() []int {
	widths := make([]int, 256-32)
	if m == nil || m.UnitsPerEm <= 0 {
		for i := range widths {
			widths[i] = 500
		}
		return widths
	}

	scale := 1000.0 / float64(m.UnitsPerEm)
	for code := 32; code < 256; code++ {
		widths[code-32] = int(float64(m.GetGlyphWidth(decodeWinAnsi(byte(code)))) * scale)
	}
	return widths
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r > ' ' && r < 0x7f && !strings.ContainsRune("()<>[]{}/%#", r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Font"
	}
	return b.String()
}
