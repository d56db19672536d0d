// Package writer appends PDF objects to a document and serializes the
// cross-reference data that makes them reachable.
//
// Incremental keeps the original bytes untouched and appends an update
// section; Fresh writes a complete new document. Both stage everything in
// memory until WriteTo is called.
package writer

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
)

// ErrFinished is returned when objects are added after the cross-reference
// section has been written.
var ErrFinished = errors.New("writer: document already finished")

// ObjectWriter adds indirect objects to a document being written.
type ObjectWriter interface {
	// AddObject writes data as a new indirect object and returns its number.
	AddObject(data []byte) (uint32, error)
	// CompressLevel is the zlib level used for new streams.
	CompressLevel() int
}

// Ref identifies an indirect object.
type Ref struct {
	ID  uint32
	Gen uint16
}

func (r Ref) String() string {
	return fmt.Sprintf("%d %d R", r.ID, r.Gen)
}

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// objectBytes formats an indirect object definition.
func objectBytes(id uint32, gen uint16, data []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", id, gen)
	buf.Write(bytes.TrimSpace(data))
	buf.WriteString("\nendobj\n")
	return buf.Bytes()
}

// Stream builds a stream object from dictionary entries (without the
// surrounding << >>) and data, Flate-compressing data unless level is
// zlib.NoCompression.
func Stream(entries string, data []byte, level int) ([]byte, error) {
	if level == zlib.NoCompression {
		return RawStream(entries, data), nil
	}
	compressed, err := Deflate(data, level)
	if err != nil {
		return nil, err
	}
	return RawStream(joinEntries(entries, "/Filter /FlateDecode"), compressed), nil
}

// RawStream builds a stream object around data that is already encoded as
// described by entries.
func RawStream(entries string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<")
	if entries != "" {
		buf.WriteString(" ")
		buf.WriteString(entries)
	}
	fmt.Fprintf(&buf, " /Length %d >>\nstream\n", len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	return buf.Bytes()
}

// Deflate compresses data with zlib at level.
func Deflate(data []byte, level int) ([]byte, error) {
	var b bytes.Buffer
	w, err := zlib.NewWriterLevel(&b, level)
	if err != nil {
		return nil, fmt.Errorf("invalid compression level %d: %w", level, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func joinEntries(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
