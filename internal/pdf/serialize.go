package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// maxNesting bounds the depth of direct objects written inline.
const maxNesting = 32

// Entry is a dictionary key with its value in PDF syntax.
type Entry struct {
	Key   string
	Value []byte
}

// Serializer writes parsed values back as PDF syntax. Values stored in
// other indirect objects than the one being written are emitted as
// references, so the output stays valid inside an incremental update of
// the same document.
type Serializer struct {
	r *pdflib.Reader
}

// NewSerializer returns a serializer for values read from r.
func NewSerializer(r *pdflib.Reader) *Serializer {
	return &Serializer{r: r}
}

// Value writes v in PDF syntax. Streams can only be written as references.
func (s *Serializer) Value(v pdflib.Value) (out []byte, err error) {
	defer recoverMalformed(&err)

	w := s.object(v)
	var b bytes.Buffer
	if err := w.write(&b, v, 0); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Entries writes each entry of the dictionary or stream dictionary v.
// Keys are sorted.
func (s *Serializer) Entries(v pdflib.Value, skip ...string) (entries []Entry, err error) {
	defer recoverMalformed(&err)

	if v.Kind() != pdflib.Dict && v.Kind() != pdflib.Stream {
		if v.IsNull() {
			return nil, nil
		}
		return nil, fmt.Errorf("pdf: expected dictionary, got %v", v.Kind())
	}
	w := s.object(v)
	for _, key := range v.Keys() {
		if contains(skip, key) {
			continue
		}
		var b bytes.Buffer
		if err := w.child(&b, v.Key(key), 1); err != nil {
			return nil, fmt.Errorf("/%s: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: b.Bytes()})
	}
	return entries, nil
}

// Dict formats entries as a dictionary.
func Dict(entries []Entry) []byte {
	var b bytes.Buffer
	b.WriteString("<<")
	for _, e := range entries {
		b.WriteString(" ")
		b.WriteString(Name(e.Key))
		b.WriteString(" ")
		b.Write(e.Value)
	}
	b.WriteString(" >>")
	return b.Bytes()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// valueWriter writes the direct contents of one indirect object.
type valueWriter struct {
	owner writer.Ref
	// ownerKeys identifies the owner dictionary itself when it is reached
	// again through a reference, which the parser reports with the same
	// object number as a direct child.
	ownerKeys string
}

func (s *Serializer) object(v pdflib.Value) *valueWriter {
	w := &valueWriter{owner: RefOf(v)}
	if w.owner.ID != 0 && s.r != nil {
		if top, err := s.r.GetObject(w.owner.ID); err == nil {
			w.ownerKeys = strings.Join(top.Keys(), " ")
		}
	}
	return w
}

func (w *valueWriter) child(b *bytes.Buffer, v pdflib.Value, depth int) error {
	ref := RefOf(v)
	if ref.ID != 0 && ref != w.owner {
		b.WriteString(ref.String())
		return nil
	}
	if v.Kind() == pdflib.Dict && w.ownerKeys != "" && strings.Join(v.Keys(), " ") == w.ownerKeys {
		b.WriteString(ref.String())
		return nil
	}
	return w.write(b, v, depth)
}

func (w *valueWriter) write(b *bytes.Buffer, v pdflib.Value, depth int) error {
	if depth > maxNesting {
		return fmt.Errorf("pdf: objects nested deeper than %d levels", maxNesting)
	}
	switch v.Kind() {
	case pdflib.Null:
		b.WriteString("null")
	case pdflib.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case pdflib.Integer:
		b.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdflib.Real:
		b.WriteString(Number(v.Float64()))
	case pdflib.String:
		b.WriteString("<" + hex.EncodeToString([]byte(v.RawString())) + ">")
	case pdflib.Name:
		b.WriteString(Name(v.Name()))
	case pdflib.Array:
		b.WriteString("[")
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				b.WriteString(" ")
			}
			if err := w.child(b, v.Index(i), depth+1); err != nil {
				return err
			}
		}
		b.WriteString("]")
	case pdflib.Dict:
		b.WriteString("<<")
		for _, key := range v.Keys() {
			b.WriteString(" " + Name(key) + " ")
			if err := w.child(b, v.Key(key), depth+1); err != nil {
				return err
			}
		}
		b.WriteString(" >>")
	case pdflib.Stream:
		ref := RefOf(v)
		if ref.ID == 0 || depth == 0 {
			return fmt.Errorf("pdf: cannot write stream %s inline", ref)
		}
		b.WriteString(ref.String())
	default:
		return fmt.Errorf("pdf: unsupported value kind %v", v.Kind())
	}
	return nil
}

// Name formats a PDF name, escaping delimiters and non-printable bytes.
func Name(s string) string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x21 || c > 0x7e || strings.IndexByte("#()<>[]{}/%", c) >= 0 {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Number formats a real number without exponent or trailing zeros.
func Number(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
