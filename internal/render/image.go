package render

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"

	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// RegisterImage writes img as an image XObject and returns its object
// number. Opaque JPEG data is embedded as is; anything else is written as
// Flate-compressed RGB samples with a soft mask for transparency.
func RegisterImage(w writer.ObjectWriter, img *images.Normalized) (uint32, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 0, errors.New("invalid image data")
	}

	if img.IsJPEG() && len(img.Data) > 0 {
		entries := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode",
			img.Width, img.Height)
		return w.AddObject(writer.RawStream(entries, img.Data))
	}

	src, err := img.Image()
	if err != nil {
		return 0, err
	}
	rgb, alpha, hasAlpha := samples(src)

	level := w.CompressLevel()
	if level == zlib.NoCompression {
		level = zlib.DefaultCompression
	}

	var smask string
	if hasAlpha {
		stream, err := writer.Stream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8",
			img.Width, img.Height), alpha, level)
		if err != nil {
			return 0, err
		}
		id, err := w.AddObject(stream)
		if err != nil {
			return 0, fmt.Errorf("failed to write soft mask: %w", err)
		}
		smask = fmt.Sprintf(" /SMask %d 0 R", id)
	}

	stream, err := writer.Stream(fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8%s",
		img.Width, img.Height, smask), rgb, level)
	if err != nil {
		return 0, err
	}
	return w.AddObject(stream)
}

// samples returns the 8-bit RGB and alpha samples of img, not
// premultiplied.
func samples(img image.Image) (rgb, alpha []byte, hasAlpha bool) {
	bounds := img.Bounds()
	var rgbBuf, alphaBuf bytes.Buffer
	rgbBuf.Grow(bounds.Dx() * bounds.Dy() * 3)
	alphaBuf.Grow(bounds.Dx() * bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			if a > 0 && a < 0xffff {
				r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
			}
			alphaBuf.WriteByte(a8)
			rgbBuf.Write([]byte{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)})
		}
	}
	return rgbBuf.Bytes(), alphaBuf.Bytes(), hasAlpha
}
