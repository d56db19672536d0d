package pdf

import (
	pdflib "github.com/digitorus/pdf"
)

// ResourceCategories are the resource dictionary entries that map names to
// objects used by content streams.
var ResourceCategories = []string{"ExtGState", "ColorSpace", "Pattern", "Shading", "XObject", "Font", "Properties"}

// ResourceNames returns all names defined in the resource dictionary res,
// across categories, so that new resources can be added without clashing.
func ResourceNames(res pdflib.Value) (names map[string]bool, err error) {
	defer recoverMalformed(&err)

	names = make(map[string]bool)
	if res.IsNull() {
		return names, nil
	}
	for _, category := range ResourceCategories {
		dict := res.Key(category)
		if dict.IsNull() {
			continue
		}
		for _, name := range dict.Keys() {
			names[name] = true
		}
	}
	return names, nil
}

// FontInfo describes a font resource found in the document.
type FontInfo struct {
	Name string
	ID   uint32
}

// ScanFonts lists the fonts used by the pages of r, each font object once.
func ScanFonts(r *pdflib.Reader) (found []FontInfo, err error) {
	pages, err := Pages(r)
	if err != nil {
		return nil, err
	}
	defer recoverMalformed(&err)

	visited := make(map[uint32]bool)
	for _, p := range pages {
		fonts := p.Resources.Key("Font")
		for _, key := range fonts.Keys() {
			font := fonts.Key(key)
			id := RefOf(font).ID
			if id == 0 || visited[id] {
				continue
			}
			visited[id] = true
			if base := font.Key("BaseFont"); base.Kind() == pdflib.Name {
				found = append(found, FontInfo{Name: base.Name(), ID: id})
			}
		}
	}
	return found, nil
}
