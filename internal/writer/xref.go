package writer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

const xrefStreamColumns = 6 // Column width (1+4+1)

// subsection is a run of consecutive object numbers in a cross-reference
// section.
type subsection struct {
	start   uint32
	entries []xrefEntry
}

// subsections groups entries, sorted by object number, into runs of
// consecutive numbers.
func subsections(entries []xrefEntry) []subsection {
	sorted := append([]xrefEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []subsection
	for _, e := range sorted {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.start+uint32(len(last.entries)) == e.ID {
				last.entries = append(last.entries, e)
				continue
			}
		}
		out = append(out, subsection{start: e.ID, entries: []xrefEntry{e}})
	}
	return out
}

// writeXrefTable writes a classic cross-reference table.
func writeXrefTable(b *bytes.Buffer, sections []subsection) {
	b.WriteString("xref\n")
	for _, s := range sections {
		fmt.Fprintf(b, "%d %d\n", s.start, len(s.entries))
		for _, e := range s.entries {
			if e.ID == 0 {
				b.WriteString("0000000000 65535 f\r\n")
				continue
			}
			fmt.Fprintf(b, "%010d %05d n\r\n", e.Offset, e.Gen)
		}
	}
}

// xrefStreamData returns the uncompressed rows of a cross-reference stream
// with /W [1 4 1] and the matching /Index array.
func xrefStreamData(sections []subsection) ([]byte, []uint32) {
	var data bytes.Buffer
	var index []uint32
	for _, s := range sections {
		index = append(index, s.start, uint32(len(s.entries)))
		for _, e := range s.entries {
			if e.ID == 0 {
				writeXrefStreamLine(&data, 0, 0, 255)
				continue
			}
			writeXrefStreamLine(&data, 1, int(e.Offset), byte(e.Gen))
		}
	}
	return data.Bytes(), index
}

// writeXrefStreamLine writes a single line in the xref stream.
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int, gen byte) {
	// Write type (1 byte)
	b.WriteByte(xreftype)

	// Write offset (4 bytes)
	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	// Write generation (1 byte)
	b.WriteByte(gen)
}

// xrefStreamDict builds the dictionary entries of a cross-reference stream.
func xrefStreamDict(size uint32, index []uint32, trailer string) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "/Type /XRef /W [1 4 1] /Size %d /Index [", size)
	for i, v := range index {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	b.WriteString("]")
	if trailer != "" {
		b.WriteString(" ")
		b.WriteString(trailer)
	}
	return b.String()
}
