// Package images provides raster image resources for PDF documents.
//
// Sources are registered with their raw bytes and capture orientation. Before
// any placement math runs a Source is turned into a Normalized image whose
// pixels and dimensions are upright.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrAssetDecode is matched by every AssetDecodeError.
var ErrAssetDecode = errors.New("asset decode failed")

// AssetDecodeError reports a raster input that could not be decoded.
type AssetDecodeError struct {
	Name string
	Err  error
}

func (e *AssetDecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v: %v", ErrAssetDecode, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrAssetDecode, e.Name, e.Err)
}

func (e *AssetDecodeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrAssetDecode.
func (e *AssetDecodeError) Is(target error) bool { return target == ErrAssetDecode }

// Source is a raster asset as supplied by the caller.
type Source struct {
	Name string // Identifier for the image
	Data []byte // Raw encoded image data
	Hash string // SHA256 of Data; identical assets share one XObject

	// Format is the codec name reported by the image package ("jpeg", "png", ...).
	Format string
	// Width and Height are the stored pixel dimensions, before orientation
	// correction.
	Width, Height int
	Orientation   Orientation
}

// New registers raw image data. The format, stored dimensions and EXIF
// orientation are read from the header; an unreadable header is an
// AssetDecodeError.
func New(name string, data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, &AssetDecodeError{Name: name, Err: errors.New("empty image data")}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &AssetDecodeError{Name: name, Err: err}
	}
	h := sha256.Sum256(data)
	return &Source{
		Name:        name,
		Data:        data,
		Hash:        hex.EncodeToString(h[:]),
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: DetectOrientation(data),
	}, nil
}

// FromImage wraps already decoded pixels as a Normalized image. The pixels
// are encoded lazily when the image is embedded.
func FromImage(name string, img image.Image) *Normalized {
	b := img.Bounds()
	return &Normalized{Name: name, Width: b.Dx(), Height: b.Dy(), img: img}
}

func decode(name string, data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &AssetDecodeError{Name: name, Err: err}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", &AssetDecodeError{Name: name, Err: errors.New("image has no pixels")}
	}
	return img, format, nil
}
