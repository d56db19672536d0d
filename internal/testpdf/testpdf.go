// Package testpdf builds small PDF documents in memory for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"testing"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// Page describes one generated page.
type Page struct {
	// MediaBox defaults to US Letter.
	MediaBox [4]float64
	Rotate   int
	// Text is drawn with Helvetica 24pt near the top-left corner.
	Text string
	// Contents overrides the generated content stream when set. Multiple
	// entries produce a /Contents array.
	Contents []string
}

// Options control document structure.
type Options struct {
	// XrefStream writes a cross-reference stream instead of a table.
	XrefStream bool
	// Inherit moves MediaBox and Resources of the first page onto the page
	// tree node so that pages inherit them.
	Inherit bool
	// Compress Flate-encodes content streams.
	Compress bool
}

var letter = [4]float64{0, 0, 612, 792}

// Build generates a document with the given pages.
func Build(pages []Page, opts Options) ([]byte, error) {
	w := writer.NewFresh()
	level := 0
	if opts.Compress {
		level = -1
	}

	catalog := w.ReserveID()
	tree := w.ReserveID()

	font, err := w.AddObject([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"))
	if err != nil {
		return nil, err
	}
	resources := fmt.Sprintf("<< /Font << /F1 %d 0 R >> /ProcSet [/PDF /Text] >>", font)

	var kids []uint32
	for i, p := range pages {
		box := p.MediaBox
		if box == ([4]float64{}) {
			box = letter
		}

		contents := p.Contents
		if contents == nil {
			contents = []string{fmt.Sprintf("BT /F1 24 Tf 72 %g Td (%s) Tj ET", box[3]-box[1]-72, p.Text)}
		}
		var refs []uint32
		for _, c := range contents {
			var stream []byte
			if opts.Compress {
				stream, err = writer.Stream("", []byte(c), level)
				if err != nil {
					return nil, err
				}
			} else {
				stream = writer.RawStream("", []byte(c))
			}
			id, err := w.AddObject(stream)
			if err != nil {
				return nil, err
			}
			refs = append(refs, id)
		}

		var b bytes.Buffer
		fmt.Fprintf(&b, "<< /Type /Page /Parent %d 0 R", tree)
		if !opts.Inherit || i > 0 && box != pageBox(pages[0]) {
			fmt.Fprintf(&b, " /MediaBox [%g %g %g %g]", box[0], box[1], box[2], box[3])
		}
		if !opts.Inherit {
			b.WriteString(" /Resources " + resources)
		}
		if p.Rotate != 0 {
			fmt.Fprintf(&b, " /Rotate %d", p.Rotate)
		}
		if len(refs) == 1 {
			fmt.Fprintf(&b, " /Contents %d 0 R", refs[0])
		} else if len(refs) > 1 {
			b.WriteString(" /Contents [")
			for _, r := range refs {
				fmt.Fprintf(&b, " %d 0 R", r)
			}
			b.WriteString(" ]")
		}
		b.WriteString(" >>")

		id, err := w.AddObject(b.Bytes())
		if err != nil {
			return nil, err
		}
		kids = append(kids, id)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<< /Type /Pages /Count %d /Kids [", len(kids))
	for _, k := range kids {
		fmt.Fprintf(&b, " %d 0 R", k)
	}
	b.WriteString(" ]")
	if opts.Inherit && len(pages) > 0 {
		box := pageBox(pages[0])
		fmt.Fprintf(&b, " /MediaBox [%g %g %g %g] /Resources %s", box[0], box[1], box[2], box[3], resources)
	}
	b.WriteString(" >>")
	if err := w.WriteObject(tree, b.Bytes()); err != nil {
		return nil, err
	}
	if err := w.WriteObject(catalog, []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))); err != nil {
		return nil, err
	}
	w.SetRoot(catalog)
	w.XrefStream = opts.XrefStream
	return w.Bytes()
}

func pageBox(p Page) [4]float64 {
	if p.MediaBox == ([4]float64{}) {
		return letter
	}
	return p.MediaBox
}

// MustBuild is Build for tests.
func MustBuild(t testing.TB, pages []Page, opts Options) []byte {
	t.Helper()
	data, err := Build(pages, opts)
	if err != nil {
		t.Fatalf("failed to build test PDF: %v", err)
	}
	return data
}

// Letter returns n US Letter pages labelled "Page 1" to "Page n".
func Letter(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Text: fmt.Sprintf("Page %d", i+1)}
	}
	return pages
}

// Open parses data with the PDF reader.
func Open(t testing.TB, data []byte) *pdflib.Reader {
	t.Helper()
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to parse PDF: %v", err)
	}
	return r
}

// Content returns the decoded, concatenated content streams of page n of r.
func Content(t testing.TB, r *pdflib.Reader, n int) string {
	t.Helper()
	return StreamText(t, r.Page(n).V.Key("Contents"))
}

// StreamText decodes a stream or an array of streams.
func StreamText(t testing.TB, v pdflib.Value) string {
	t.Helper()
	var b bytes.Buffer
	read := func(s pdflib.Value) {
		rc := s.Reader()
		defer rc.Close()
		if _, err := b.ReadFrom(rc); err != nil {
			t.Fatalf("failed to read stream: %v", err)
		}
		b.WriteByte('\n')
	}
	switch v.Kind() {
	case pdflib.Array:
		for i := 0; i < v.Len(); i++ {
			read(v.Index(i))
		}
	case pdflib.Stream:
		read(v)
	}
	return b.String()
}
