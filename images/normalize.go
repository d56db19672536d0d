package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
)

// Normalized is an upright raster image ready for placement. Width and
// Height are the visually correct pixel dimensions.
type Normalized struct {
	Name string
	// Data is the encoded image; Format is "jpeg" or "png". Data may be
	// empty for images created with FromImage.
	Data   []byte
	Format string
	Width  int
	Height int

	img image.Image
}

// Image returns the decoded upright pixels.
func (n *Normalized) Image() (image.Image, error) {
	if n.img != nil {
		return n.img, nil
	}
	img, _, err := decode(n.Name, n.Data)
	if err != nil {
		return nil, err
	}
	n.img = img
	return img, nil
}

// IsJPEG reports whether Data can be embedded as-is with DCTDecode.
func (n *Normalized) IsJPEG() bool {
	return n.Format == "jpeg" && len(n.Data) > 0
}

// Normalize corrects src for its capture orientation and re-encodes it.
//
// A Normal JPEG or PNG at quality 1 passes through untouched. Everything else
// is decoded, transformed and re-encoded: JPEG at quality*100 for opaque
// images, PNG when the image has transparency. quality must be in (0, 1].
func Normalize(src *Source, quality float64) (*Normalized, error) {
	if src == nil {
		return nil, &AssetDecodeError{Err: fmt.Errorf("no source image")}
	}
	if math.IsNaN(quality) || quality <= 0 || quality > 1 {
		return nil, fmt.Errorf("image %s: quality %g outside (0, 1]", src.Name, quality)
	}

	orientation := src.Orientation
	if !orientation.Valid() {
		orientation = Normal
	}

	if orientation == Normal && quality == 1 && (src.Format == "jpeg" || src.Format == "png") {
		return &Normalized{
			Name:   src.Name,
			Data:   src.Data,
			Format: src.Format,
			Width:  src.Width,
			Height: src.Height,
		}, nil
	}

	img, _, err := decode(src.Name, src.Data)
	if err != nil {
		return nil, err
	}
	img = orientation.Apply(img)

	var buf bytes.Buffer
	format := "jpeg"
	if HasAlpha(img) {
		format = "png"
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)})
	}
	if err != nil {
		return nil, fmt.Errorf("image %s: failed to encode %s: %w", src.Name, format, err)
	}

	b := img.Bounds()
	return &Normalized{
		Name:   src.Name,
		Data:   buf.Bytes(),
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		img:    img,
	}, nil
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return max(1, min(100, v))
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
