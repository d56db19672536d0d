package render

import (
	"fmt"
	"math"

	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// RegisterGState writes an ExtGState setting the fill and stroke alpha to
// opacity, which must be in [0, 1].
func RegisterGState(w writer.ObjectWriter, opacity float64) (uint32, error) {
	if math.IsNaN(opacity) || opacity < 0 || opacity > 1 {
		return 0, fmt.Errorf("opacity %g outside [0, 1]", opacity)
	}
	a := pdf.Number(opacity)
	return w.AddObject([]byte(fmt.Sprintf("<< /Type /ExtGState /ca %s /CA %s >>", a, a)))
}

// RegisterForm writes a Form XObject drawing content with resources, which
// is a resource dictionary in PDF syntax, clipped to bbox.
func RegisterForm(w writer.ObjectWriter, bbox [4]float64, resources, content []byte) (uint32, error) {
	if len(resources) == 0 {
		resources = []byte("<< >>")
	}
	entries := fmt.Sprintf("/Type /XObject /Subtype /Form /FormType 1 /BBox [%s %s %s %s] /Matrix [1 0 0 1 0 0] /Resources %s",
		pdf.Number(bbox[0]), pdf.Number(bbox[1]), pdf.Number(bbox[2]), pdf.Number(bbox[3]), resources)

	stream, err := writer.Stream(entries, content, w.CompressLevel())
	if err != nil {
		return 0, fmt.Errorf("failed to compress form: %w", err)
	}
	return w.AddObject(stream)
}

// RegisterContent writes a content stream.
func RegisterContent(w writer.ObjectWriter, content []byte) (uint32, error) {
	stream, err := writer.Stream("", content, w.CompressLevel())
	if err != nil {
		return 0, fmt.Errorf("failed to compress content: %w", err)
	}
	return w.AddObject(stream)
}
