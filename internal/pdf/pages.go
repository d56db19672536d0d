// Package pdf reads page trees and values from documents parsed with
// github.com/digitorus/pdf and writes parsed values back as PDF syntax.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// ErrMalformed is returned when the document structure cannot be read.
var ErrMalformed = errors.New("malformed PDF")

// maxTreeDepth bounds the /Parent chain walked for inherited attributes.
const maxTreeDepth = 64

var letter = [4]float64{0, 0, 612, 792}

// Page is a page of a parsed document with its inheritable attributes
// resolved.
type Page struct {
	// Number is the 1-based page number.
	Number int
	Ref    writer.Ref
	V      pdflib.Value

	MediaBox [4]float64
	// CropBox equals MediaBox when the page has none.
	CropBox [4]float64
	// Rotate is normalised to 0, 90, 180 or 270 when it is a multiple of 90.
	Rotate int
	// Resources is the page's own or inherited resource dictionary. It may
	// be a null value.
	Resources pdflib.Value
}

// RefOf returns the object v is stored in. Direct values report the object
// containing them.
func RefOf(v pdflib.Value) writer.Ref {
	ptr := v.GetPtr()
	return writer.Ref{ID: uint32(ptr.GetID()), Gen: uint16(ptr.GetGen())}
}

// Pages returns all pages of r in document order.
func Pages(r *pdflib.Reader) (pages []Page, err error) {
	if r == nil {
		return nil, errors.New("pdf: no document")
	}
	defer recoverMalformed(&err)

	n := r.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		v := r.Page(i).V
		if v.IsNull() {
			return nil, fmt.Errorf("%w: page %d not found", ErrMalformed, i)
		}
		p, err := newPage(i, v)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func newPage(number int, v pdflib.Value) (Page, error) {
	p := Page{
		Number:    number,
		Ref:       RefOf(v),
		V:         v,
		MediaBox:  letter,
		Resources: inherited(v, "Resources"),
	}
	if p.Ref.ID == 0 {
		return Page{}, fmt.Errorf("%w: page %d is not an indirect object", ErrMalformed, number)
	}

	if box, ok := rectangle(inherited(v, "MediaBox")); ok {
		p.MediaBox = box
	}
	p.CropBox = p.MediaBox
	if box, ok := rectangle(inherited(v, "CropBox")); ok {
		p.CropBox = box
	}
	if rot := inherited(v, "Rotate"); rot.Kind() == pdflib.Integer {
		p.Rotate = int(rot.Int64())
		if p.Rotate%90 == 0 {
			p.Rotate = ((p.Rotate % 360) + 360) % 360
		}
	}
	return p, nil
}

// inherited looks key up on v and its ancestors in the page tree.
func inherited(v pdflib.Value, key string) pdflib.Value {
	for i := 0; i < maxTreeDepth && !v.IsNull(); i++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

// rectangle reads a PDF rectangle, normalising it so that the first corner
// is the lower-left one.
func rectangle(v pdflib.Value) ([4]float64, bool) {
	var box [4]float64
	if v.Kind() != pdflib.Array || v.Len() != 4 {
		return box, false
	}
	for i := range box {
		n := v.Index(i)
		if n.Kind() != pdflib.Integer && n.Kind() != pdflib.Real {
			return box, false
		}
		box[i] = n.Float64()
	}
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, box[2] > box[0] && box[3] > box[1]
}

// Geometry returns the page geometry used for placement.
func (p Page) Geometry() (geometry.Page, error) {
	return geometry.NewPage(p.Number, p.MediaBox, p.Rotate)
}

// ContentRefs returns the content streams of the page in drawing order.
func (p Page) ContentRefs() ([]writer.Ref, error) {
	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdflib.Null:
		return nil, nil
	case pdflib.Stream:
		return []writer.Ref{RefOf(contents)}, nil
	case pdflib.Array:
		refs := make([]writer.Ref, 0, contents.Len())
		for i := 0; i < contents.Len(); i++ {
			s := contents.Index(i)
			if s.Kind() != pdflib.Stream {
				return nil, fmt.Errorf("%w: page %d contents entry %d is not a stream", ErrMalformed, p.Number, i)
			}
			refs = append(refs, RefOf(s))
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: page %d has invalid /Contents", ErrMalformed, p.Number)
	}
}

// ContentData returns the decoded content streams of the page joined by
// newlines, as a single stream drawing the whole page.
func (p Page) ContentData() (data []byte, err error) {
	defer recoverMalformed(&err)

	var buf bytes.Buffer
	read := func(s pdflib.Value) error {
		rc := s.Reader()
		if rc == nil {
			return nil
		}
		defer rc.Close()
		if _, err := io.Copy(&buf, rc); err != nil {
			return fmt.Errorf("failed to read content stream of page %d: %w", p.Number, err)
		}
		buf.WriteString("\n")
		return nil
	}

	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdflib.Array:
		for i := 0; i < contents.Len(); i++ {
			if err := read(contents.Index(i)); err != nil {
				return nil, err
			}
		}
	case pdflib.Stream:
		if err := read(contents); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// recoverMalformed converts a panic raised by the parser on broken input
// into an error.
func recoverMalformed(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrMalformed, r)
	}
}
