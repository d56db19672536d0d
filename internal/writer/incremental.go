package writer

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

// Incremental appends an update section to an existing PDF. The original
// bytes are never modified, so values read from the original reader stay
// valid for the whole run.
type Incremental struct {
	input  io.ReaderAt
	size   int64
	reader *pdflib.Reader

	buf        *filebuffer.Buffer
	lastID     uint32
	newEntries []xrefEntry
	updated    map[uint32]xrefEntry

	compressLevel int
	xrefStream    bool
	finished      bool
}

// NewIncremental prepares an update section for the document of size bytes
// in input that r was opened on.
func NewIncremental(input io.ReaderAt, size int64, r *pdflib.Reader) (*Incremental, error) {
	if input == nil || r == nil {
		return nil, errors.New("writer: no input document")
	}
	n := r.Trailer().Key("Size").Int64()
	if n <= 0 {
		return nil, fmt.Errorf("writer: invalid trailer /Size %d", n)
	}
	w := &Incremental{
		input:         input,
		size:          size,
		reader:        r,
		buf:           filebuffer.New([]byte{}),
		lastID:        uint32(n - 1),
		updated:       make(map[uint32]xrefEntry),
		compressLevel: zlib.DefaultCompression,
		xrefStream:    r.XrefInformation.Type == "stream",
	}

	// The update section has to start on a new line.
	last := make([]byte, 1)
	if size > 0 {
		if _, err := input.ReadAt(last, size-1); err != nil && err != io.EOF {
			return nil, fmt.Errorf("writer: failed to read input: %w", err)
		}
	}
	if last[0] != '\n' && last[0] != '\r' {
		if _, err := w.buf.Write([]byte("\n")); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Reader returns the reader of the original document.
func (w *Incremental) Reader() *pdflib.Reader { return w.reader }

// CompressLevel implements ObjectWriter.
func (w *Incremental) CompressLevel() int { return w.compressLevel }

// SetCompressLevel sets the zlib level for new streams.
func (w *Incremental) SetCompressLevel(level int) { w.compressLevel = level }

// XrefStream reports whether the update section uses a cross-reference
// stream, which is the case when the original document does.
func (w *Incremental) XrefStream() bool { return w.xrefStream }

func (w *Incremental) offset() int64 {
	return w.size + int64(w.buf.Buff.Len())
}

// AddObject implements ObjectWriter.
func (w *Incremental) AddObject(data []byte) (uint32, error) {
	if w.finished {
		return 0, ErrFinished
	}
	id := w.lastID + uint32(len(w.newEntries)) + 1
	w.newEntries = append(w.newEntries, xrefEntry{ID: id, Offset: w.offset()})
	if _, err := w.buf.Write(objectBytes(id, 0, data)); err != nil {
		return 0, fmt.Errorf("failed to write object %d: %w", id, err)
	}
	return id, nil
}

// UpdateObject writes a new version of an existing object. The latest
// version written wins.
func (w *Incremental) UpdateObject(ref Ref, data []byte) error {
	if w.finished {
		return ErrFinished
	}
	if ref.ID == 0 || ref.ID > w.lastID {
		return fmt.Errorf("writer: cannot update unknown object %d", ref.ID)
	}
	w.updated[ref.ID] = xrefEntry{ID: ref.ID, Gen: ref.Gen, Offset: w.offset()}
	if _, err := w.buf.Write(objectBytes(ref.ID, ref.Gen, data)); err != nil {
		return fmt.Errorf("failed to update object %d: %w", ref.ID, err)
	}
	return nil
}

// Finish writes the cross-reference section and trailer. No objects can be
// added afterwards.
func (w *Incremental) Finish() error {
	if w.finished {
		return nil
	}

	entries := make([]xrefEntry, 0, len(w.updated)+len(w.newEntries)+1)
	for _, e := range w.updated {
		entries = append(entries, e)
	}
	entries = append(entries, w.newEntries...)
	size := w.lastID + uint32(len(w.newEntries)) + 1

	trailer, err := w.trailerEntries()
	if err != nil {
		return err
	}

	if w.xrefStream {
		id := size
		size++
		xrefOffset := w.offset()
		entries = append(entries, xrefEntry{ID: id, Offset: xrefOffset})

		data, index := xrefStreamData(subsections(entries))
		stream, err := Stream(xrefStreamDict(size, index, trailer), data, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("failed to encode xref stream: %w", err)
		}
		if _, err := w.buf.Write(objectBytes(id, 0, stream)); err != nil {
			return fmt.Errorf("failed to write xref stream: %w", err)
		}
		w.finished = true
		return w.writeStartXref(xrefOffset)
	}

	xrefOffset := w.offset()
	var b bytes.Buffer
	writeXrefTable(&b, subsections(entries))
	fmt.Fprintf(&b, "trailer\n<< /Size %d %s >>\n", size, trailer)
	if _, err := w.buf.Write(b.Bytes()); err != nil {
		return fmt.Errorf("failed to write xref table: %w", err)
	}
	w.finished = true
	return w.writeStartXref(xrefOffset)
}

func (w *Incremental) writeStartXref(offset int64) error {
	_, err := fmt.Fprintf(w.buf, "startxref\n%d\n%%%%EOF\n", offset)
	return err
}

// trailerEntries carries /Root, /Info and /ID over from the original
// trailer and links the previous cross-reference section.
func (w *Incremental) trailerEntries() (string, error) {
	t := w.reader.Trailer()
	root := t.Key("Root").GetPtr()
	if root.GetID() == 0 {
		return "", errors.New("writer: document has no /Root reference")
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "/Root %d %d R", root.GetID(), root.GetGen())
	if info := t.Key("Info"); !info.IsNull() {
		if ptr := info.GetPtr(); ptr.GetID() != 0 {
			fmt.Fprintf(&b, " /Info %d %d R", ptr.GetID(), ptr.GetGen())
		}
	}
	if id := t.Key("ID"); id.Kind() == pdflib.Array && id.Len() == 2 {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(&b, " /ID [<%s> <%s>]", id0, id1)
	}
	fmt.Fprintf(&b, " /Prev %d", w.reader.XrefInformation.StartPos)
	return b.String(), nil
}

// WriteTo writes the original document followed by the update section.
// Finish must have been called.
func (w *Incremental) WriteTo(out io.Writer) (int64, error) {
	if !w.finished {
		return 0, errors.New("writer: Finish has not been called")
	}
	n, err := io.Copy(out, io.NewSectionReader(w.input, 0, w.size))
	if err != nil {
		return n, fmt.Errorf("failed to copy original document: %w", err)
	}
	m, err := out.Write(w.buf.Buff.Bytes())
	return n + int64(m), err
}
