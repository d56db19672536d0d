package pdf

import (
	"errors"
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// Snapshot is a read-only copy of every page of a document, taken before
// any page is modified. Captured pages can be embedded as Form XObjects
// into the rewritten document.
type Snapshot struct {
	reader *pdflib.Reader
	pages  []PageSnapshot
}

// PageSnapshot holds what is needed to redraw one original page.
type PageSnapshot struct {
	Number   int
	MediaBox [4]float64
	// Resources is the original resource dictionary in PDF syntax.
	Resources []byte
	// Content is the decoded content of all content streams of the page.
	Content []byte
}

// Capture snapshots all pages of r.
func Capture(r *pdflib.Reader) (*Snapshot, error) {
	if r == nil {
		return nil, errors.New("pdf: no document to snapshot")
	}
	pages, err := Pages(r)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{reader: r, pages: make([]PageSnapshot, 0, len(pages))}
	ser := NewSerializer(r)
	for _, p := range pages {
		content, err := p.ContentData()
		if err != nil {
			return nil, err
		}
		resources := []byte("<< >>")
		if !p.Resources.IsNull() {
			resources, err = ser.Value(p.Resources)
			if err != nil {
				return nil, fmt.Errorf("failed to copy resources of page %d: %w", p.Number, err)
			}
		}
		s.pages = append(s.pages, PageSnapshot{
			Number:    p.Number,
			MediaBox:  p.MediaBox,
			Resources: resources,
			Content:   content,
		})
	}
	return s, nil
}

// Len returns the number of captured pages.
func (s *Snapshot) Len() int { return len(s.pages) }

// Page returns the captured page with 1-based number n. The returned slices
// must not be modified.
func (s *Snapshot) Page(n int) (PageSnapshot, bool) {
	if s == nil || n < 1 || n > len(s.pages) {
		return PageSnapshot{}, false
	}
	return s.pages[n-1], true
}

// Belongs reports whether s was captured from r.
func (s *Snapshot) Belongs(r *pdflib.Reader) bool {
	return s != nil && r != nil && s.reader == r
}
