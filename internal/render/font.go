package render

import (
	"bytes"
	"fmt"

	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// RegisterFont writes the font dictionary for f and returns its object
// number. Standard fonts are referenced by name; TrueType fonts are
// embedded with a font descriptor and a widths array. Both use WinAnsi
// encoding, matching fonts.Encode.
func RegisterFont(w writer.ObjectWriter, f *fonts.Font) (uint32, error) {
	if f == nil || f.IsStandard() || len(f.Data) == 0 {
		fontDict := fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", f.BaseFont())
		return w.AddObject([]byte(fontDict))
	}

	stream, err := writer.Stream(fmt.Sprintf("/Length1 %d", len(f.Data)), f.Data, w.CompressLevel())
	if err != nil {
		return 0, fmt.Errorf("failed to compress font %s: %w", f.Name, err)
	}
	fontStreamID, err := w.AddObject(stream)
	if err != nil {
		return 0, err
	}

	m := f.Metrics
	scale := func(v int) int {
		if m == nil || m.UnitsPerEm <= 0 {
			return v
		}
		return v * 1000 / m.UnitsPerEm
	}
	ascent, descent, capHeight := 800, -200, 700
	bbox := [4]int{-500, -200, 1000, 900}
	if m != nil && m.UnitsPerEm > 0 {
		ascent, descent, capHeight = scale(m.Ascent), scale(m.Descent), scale(m.CapHeight)
		if capHeight == 0 {
			capHeight = ascent
		}
		if m.BBox != ([4]int{}) {
			bbox = [4]int{scale(m.BBox[0]), scale(m.BBox[1]), scale(m.BBox[2]), scale(m.BBox[3])}
		}
	}

	// Flags 32: nonsymbolic.
	fdDict := fmt.Sprintf("<< /Type /FontDescriptor /FontName /%s /Flags 32 /FontBBox [%d %d %d %d] /ItalicAngle 0 /Ascent %d /Descent %d /CapHeight %d /StemV 80 /FontFile2 %d 0 R >>",
		f.BaseFont(), bbox[0], bbox[1], bbox[2], bbox[3], ascent, descent, capHeight, fontStreamID)
	descriptorID, err := w.AddObject([]byte(fdDict))
	if err != nil {
		return 0, err
	}

	var fontBuf bytes.Buffer
	fmt.Fprintf(&fontBuf, "<< /Type /Font /Subtype /TrueType /BaseFont /%s /FontDescriptor %d 0 R /FirstChar 32 /LastChar 255 /Encoding /WinAnsiEncoding /Widths [", f.BaseFont(), descriptorID)
	for _, width := range m.GetWidthsArray() {
		fmt.Fprintf(&fontBuf, " %d", width)
	}
	fontBuf.WriteString(" ] >>")
	return w.AddObject(fontBuf.Bytes())
}
