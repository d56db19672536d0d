// Package pdfstamp adds text and image watermarks to PDF documents and
// assembles raster images into new grid-layout documents.
//
// Watermarks are drawn on top of or behind the existing page content. The
// original document bytes are never rewritten: every change is appended as
// an incremental update.
//
// Basic usage:
//
//	doc, err := pdfstamp.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc.Watermark().
//	    Text("CONFIDENTIAL").
//	    Anchor(pdfstamp.Center).
//	    Rotate(45).
//	    Opacity(0.3).
//	    Below()
//
//	result, err := doc.Write(output)
package pdfstamp

import (
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/internal/pdf"
)

// Document represents a PDF document that watermarks are added to.
type Document struct {
	reader io.ReaderAt
	size   int64
	rdr    *pdflib.Reader

	// Registered resources
	fonts  map[string]*Font
	images map[string]*Image

	// Staged operations
	watermarks []*WatermarkBuilder
	pages      PageRange

	// Document settings
	compressLevel int
	date          time.Time

	state   atomic.Int32
	current atomic.Int32
}

// Open initializes a PDF Document from an io.ReaderAt (e.g., an open file or memory buffer).
// The size parameter must be the total size of the PDF in bytes.
// Encrypted documents are rejected with ErrEncrypted.
func Open(reader io.ReaderAt, size int64) (*Document, error) {
	rdr, err := openReader(reader, size)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		reader:        reader,
		size:          size,
		rdr:           rdr,
		fonts:         make(map[string]*Font),
		images:        make(map[string]*Image),
		compressLevel: zlib.DefaultCompression,
	}

	// Existing fonts are only listed, so a broken font resource is not fatal.
	_ = doc.scanExistingFonts()

	return doc, nil
}

func openReader(reader io.ReaderAt, size int64) (rdr *pdflib.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to open PDF: %v", r)
		}
	}()
	rdr, err = pdflib.NewReader(reader, size)
	if err != nil {
		if isEncryptionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	if !rdr.Trailer().Key("Encrypt").IsNull() {
		return nil, ErrEncrypted
	}
	return rdr, nil
}

// isEncryptionError reports whether a reader error was caused by document
// encryption.
func isEncryptionError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "encrypt")
}

// OpenFile is a convenience method to initialize a PDF Document from a file on disk.
// The file stays open for the lifetime of the document.
func OpenFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	finfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	doc, err := Open(file, finfo.Size())
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return doc, nil
}

// Close closes the underlying reader if it is an io.Closer.
func (d *Document) Close() error {
	if c, ok := d.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SetCompression configures the zlib compression level for new objects added to the PDF.
// Supported levels are zlib.NoCompression, zlib.BestSpeed, zlib.BestCompression, or zlib.DefaultCompression.
func (d *Document) SetCompression(level int) {
	d.compressLevel = level
}

// SetPages restricts all watermarks to a page range. The default is AllPages.
func (d *Document) SetPages(r PageRange) {
	d.pages = r
}

// SetDate sets the date substituted for {{Date}}. The default is the time
// Write is called.
func (d *Document) SetDate(t time.Time) {
	d.date = t
}

// Reader returns the low-level PDF reader, allowing direct access to the PDF Cross-Reference (XRef) table and objects.
func (d *Document) Reader() *pdflib.Reader {
	return d.rdr
}

// NumPage returns the number of pages of the document.
func (d *Document) NumPage() int {
	if d.rdr == nil {
		return 0
	}
	return d.rdr.NumPage()
}

// State returns the progress of Write.
func (d *Document) State() State {
	return State(d.state.Load())
}

// CurrentPage returns the page being processed, or 0 outside the
// Processing state.
func (d *Document) CurrentPage() int {
	return int(d.current.Load())
}

func (d *Document) setState(s State) {
	d.state.Store(int32(s))
	if s != Processing {
		d.current.Store(0)
	}
}

// Pages returns the geometry of every page in the document.
func (d *Document) Pages() ([]geometry.Page, error) {
	if d.rdr == nil {
		return nil, errors.New("no document")
	}
	pages, err := pdf.Pages(d.rdr)
	if err != nil {
		return nil, err
	}
	out := make([]geometry.Page, 0, len(pages))
	for _, p := range pages {
		g, err := p.Geometry()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Number, err)
		}
		out = append(out, g)
	}
	return out, nil
}
