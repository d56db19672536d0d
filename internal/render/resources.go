package render

import (
	"fmt"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// Resource categories written by this package.
const (
	CategoryFont      = "Font"
	CategoryXObject   = "XObject"
	CategoryExtGState = "ExtGState"
)

var prefixes = map[string]string{
	CategoryFont:      "WmF",
	CategoryXObject:   "WmIm",
	CategoryExtGState: "WmGS",
}

// Resources assigns names to objects added to a resource dictionary,
// avoiding names that are already in use.
type Resources struct {
	taken   map[string]bool
	counter map[string]int
	entries map[string][]pdf.Entry
	order   []string
	byRef   map[string]map[writer.Ref]string
}

// NewResources returns an empty registry. Names in taken are never
// assigned.
func NewResources(taken map[string]bool) *Resources {
	if taken == nil {
		taken = make(map[string]bool)
	}
	return &Resources{
		taken:   taken,
		counter: make(map[string]int),
		entries: make(map[string][]pdf.Entry),
		byRef:   make(map[string]map[writer.Ref]string),
	}
}

// Add registers ref in category and returns its resource name. Adding the
// same object twice returns the same name.
func (r *Resources) Add(category string, ref writer.Ref) string {
	if name, ok := r.byRef[category][ref]; ok {
		return name
	}
	prefix, ok := prefixes[category]
	if !ok {
		prefix = "Wm"
	}
	var name string
	for {
		r.counter[category]++
		name = fmt.Sprintf("%s%d", prefix, r.counter[category])
		if !r.taken[name] {
			break
		}
	}
	return r.Set(category, name, ref)
}

// Set registers ref under a fixed name.
func (r *Resources) Set(category, name string, ref writer.Ref) string {
	r.taken[name] = true
	if _, ok := r.entries[category]; !ok {
		r.order = append(r.order, category)
		r.byRef[category] = make(map[writer.Ref]string)
	}
	r.entries[category] = append(r.entries[category], pdf.Entry{Key: name, Value: []byte(ref.String())})
	r.byRef[category][ref] = name
	return name
}

// Empty reports whether no resources were registered.
func (r *Resources) Empty() bool { return len(r.order) == 0 }

// Dict returns the registered resources as a resource dictionary.
func (r *Resources) Dict() []byte {
	entries := make([]pdf.Entry, 0, len(r.order))
	for _, category := range r.order {
		entries = append(entries, pdf.Entry{Key: category, Value: pdf.Dict(r.entries[category])})
	}
	return pdf.Dict(entries)
}

// Merge returns the resource dictionary original extended with the
// registered resources. Category dictionaries present in both are merged;
// everything else in original is kept as is.
func (r *Resources) Merge(ser *pdf.Serializer, original pdflib.Value) ([]byte, error) {
	if original.IsNull() {
		return r.Dict(), nil
	}
	existing, err := ser.Entries(original)
	if err != nil {
		return nil, fmt.Errorf("failed to read resources: %w", err)
	}

	merged := make(map[string]bool)
	for i, e := range existing {
		added, ok := r.entries[e.Key]
		if !ok {
			continue
		}
		sub, err := ser.Entries(original.Key(e.Key))
		if err != nil {
			return nil, fmt.Errorf("failed to read /%s resources: %w", e.Key, err)
		}
		existing[i].Value = pdf.Dict(append(sub, added...))
		merged[e.Key] = true
	}
	for _, category := range r.order {
		if !merged[category] {
			existing = append(existing, pdf.Entry{Key: category, Value: pdf.Dict(r.entries[category])})
		}
	}
	return pdf.Dict(existing), nil
}
