package pdfstamp

import (
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/pdf"
)

// Fonts returns all registered fonts in the document, including the fonts
// already used by its pages.
func (d *Document) Fonts() []*Font {
	fonts := make([]*Font, 0, len(d.fonts))
	for _, f := range d.fonts {
		fonts = append(fonts, f)
	}
	return fonts
}

// Font returns a specific font by name, or nil if not found.
func (d *Document) Font(name string) *Font {
	return d.fonts[name]
}

// AddFont registers a TrueType font with the document. The font is parsed
// for metrics and embedded when a watermark uses it. If a font with the same
// name already exists, the existing font is returned.
func (d *Document) AddFont(name string, data []byte) (*Font, error) {
	if existing, ok := d.fonts[name]; ok && len(existing.Data) > 0 {
		return existing, nil
	}
	font, err := fonts.New(name, data)
	if err != nil {
		return nil, err
	}
	d.fonts[name] = font
	return font, nil
}

// AddImage registers an image with the document.
// If an image with the same name or the same data already exists, the
// existing image is returned.
func (d *Document) AddImage(name string, data []byte) (*Image, error) {
	if existing, ok := d.images[name]; ok {
		return existing, nil
	}
	img, err := images.New(name, data)
	if err != nil {
		return nil, err
	}
	for _, existing := range d.images {
		if existing.Hash == img.Hash {
			d.images[name] = existing
			return existing, nil
		}
	}
	d.images[name] = img
	return img, nil
}

// Image returns a registered image by name.
func (d *Document) Image(name string) *Image {
	return d.images[name]
}

// Images returns all registered images in the document.
func (d *Document) Images() []*Image {
	images := make([]*Image, 0, len(d.images))
	seen := make(map[*Image]bool, len(d.images))
	for _, img := range d.images {
		if !seen[img] {
			seen[img] = true
			images = append(images, img)
		}
	}
	return images
}

// scanExistingFonts iterates through the PDF to find existing font resources.
func (d *Document) scanExistingFonts() error {
	fontsFound, err := pdf.ScanFonts(d.rdr)
	if err != nil {
		return err
	}

	for _, info := range fontsFound {
		if _, ok := d.fonts[info.Name]; !ok {
			d.fonts[info.Name] = &Font{
				Name:     info.Name,
				Embedded: true,
			}
		}
	}

	return nil
}
