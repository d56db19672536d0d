package writer

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/mattetti/filebuffer"
	"golang.org/x/crypto/blake2b"
)

// Fresh writes a new PDF document from scratch.
type Fresh struct {
	buf     *filebuffer.Buffer
	offsets map[uint32]int64
	nextID  uint32

	root, info uint32

	compressLevel int
	// XrefStream selects a cross-reference stream instead of a table.
	XrefStream bool
	finished   bool
}

// NewFresh starts a PDF 1.7 document.
func NewFresh() *Fresh {
	w := &Fresh{
		buf:           filebuffer.New([]byte{}),
		offsets:       make(map[uint32]int64),
		nextID:        1,
		compressLevel: zlib.DefaultCompression,
	}
	// The binary comment marks the file as containing 8-bit data.
	_, _ = w.buf.Write([]byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"))
	return w
}

// CompressLevel implements ObjectWriter.
func (w *Fresh) CompressLevel() int { return w.compressLevel }

// SetCompressLevel sets the zlib level for new streams.
func (w *Fresh) SetCompressLevel(level int) { w.compressLevel = level }

// ReserveID allocates an object number to be written later with
// WriteObject, so that objects can refer to each other.
func (w *Fresh) ReserveID() uint32 {
	id := w.nextID
	w.nextID++
	return id
}

// WriteObject writes the object with a reserved number.
func (w *Fresh) WriteObject(id uint32, data []byte) error {
	if w.finished {
		return ErrFinished
	}
	if id == 0 || id >= w.nextID {
		return fmt.Errorf("writer: object %d was not reserved", id)
	}
	if _, ok := w.offsets[id]; ok {
		return fmt.Errorf("writer: object %d written twice", id)
	}
	w.offsets[id] = int64(w.buf.Buff.Len())
	if _, err := w.buf.Write(objectBytes(id, 0, data)); err != nil {
		return fmt.Errorf("failed to write object %d: %w", id, err)
	}
	return nil
}

// AddObject implements ObjectWriter.
func (w *Fresh) AddObject(data []byte) (uint32, error) {
	id := w.ReserveID()
	return id, w.WriteObject(id, data)
}

// SetRoot sets the document catalog.
func (w *Fresh) SetRoot(id uint32) { w.root = id }

// SetInfo sets the document information dictionary.
func (w *Fresh) SetInfo(id uint32) { w.info = id }

// Finish writes the cross-reference section and trailer. The trailer /ID is
// derived from the document body, so identical input produces identical
// output.
func (w *Fresh) Finish() error {
	if w.finished {
		return nil
	}
	if w.root == 0 {
		return errors.New("writer: no document catalog set")
	}

	entries := []xrefEntry{{ID: 0}}
	for id := uint32(1); id < w.nextID; id++ {
		off, ok := w.offsets[id]
		if !ok {
			return fmt.Errorf("writer: reserved object %d was never written", id)
		}
		entries = append(entries, xrefEntry{ID: id, Offset: off})
	}

	sum := blake2b.Sum256(w.buf.Buff.Bytes())
	docID := hex.EncodeToString(sum[:16])
	trailer := fmt.Sprintf("/Root %d 0 R", w.root)
	if w.info != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", w.info)
	}
	trailer += fmt.Sprintf(" /ID [<%s> <%s>]", docID, docID)

	xrefOffset := int64(w.buf.Buff.Len())
	if w.XrefStream {
		id := w.ReserveID()
		entries = append(entries, xrefEntry{ID: id, Offset: xrefOffset})
		data, index := xrefStreamData(subsections(entries))
		stream, err := Stream(xrefStreamDict(w.nextID, index, trailer), data, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("failed to encode xref stream: %w", err)
		}
		if _, err := w.buf.Write(objectBytes(id, 0, stream)); err != nil {
			return err
		}
	} else {
		var b bytes.Buffer
		writeXrefTable(&b, subsections(entries))
		fmt.Fprintf(&b, "trailer\n<< /Size %d %s >>\n", w.nextID, trailer)
		if _, err := w.buf.Write(b.Bytes()); err != nil {
			return err
		}
	}
	w.finished = true
	_, err := fmt.Fprintf(w.buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return err
}

// Bytes returns the finished document.
func (w *Fresh) Bytes() ([]byte, error) {
	if err := w.Finish(); err != nil {
		return nil, err
	}
	return w.buf.Buff.Bytes(), nil
}

// WriteTo finishes the document and writes it to out.
func (w *Fresh) WriteTo(out io.Writer) (int64, error) {
	data, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := out.Write(data)
	return int64(n), err
}
