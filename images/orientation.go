package images

import (
	"bytes"
	"fmt"
	"image"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Orientation is the EXIF capture orientation of a raster image. The value
// describes the transform needed to display the stored pixels upright.
type Orientation int

const (
	Normal Orientation = iota + 1
	FlipHorizontal
	Rotate180
	FlipVertical
	Transpose
	Rotate90
	Transverse
	Rotate270
)

var orientationNames = [...]string{
	Normal:         "normal",
	FlipHorizontal: "flip-horizontal",
	Rotate180:      "rotate-180",
	FlipVertical:   "flip-vertical",
	Transpose:      "transpose",
	Rotate90:       "rotate-90",
	Transverse:     "transverse",
	Rotate270:      "rotate-270",
}

func (o Orientation) String() string {
	if o.Valid() {
		return orientationNames[o]
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Valid reports whether o is one of the eight EXIF orientation codes.
func (o Orientation) Valid() bool {
	return o >= Normal && o <= Rotate270
}

// SwapsDimensions reports whether correcting o exchanges width and height.
func (o Orientation) SwapsDimensions() bool {
	return o >= Transpose && o <= Rotate270
}

// DetectOrientation reads the EXIF orientation tag. Missing or unreadable
// EXIF data yields Normal.
func DetectOrientation(data []byte) Orientation {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Normal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return Normal
	}
	v, err := tag.Int(0)
	if err != nil {
		return Normal
	}
	if o := Orientation(v); o.Valid() {
		return o
	}
	return Normal
}

// transform returns the source-to-destination affine map for o over a
// w x h image whose bounds start at min.
func (o Orientation) transform(w, h float64, min image.Point) f64.Aff3 {
	var m f64.Aff3
	switch o {
	case FlipHorizontal:
		m = f64.Aff3{-1, 0, w, 0, 1, 0}
	case Rotate180:
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	case FlipVertical:
		m = f64.Aff3{1, 0, 0, 0, -1, h}
	case Transpose:
		m = f64.Aff3{0, 1, 0, 1, 0, 0}
	case Rotate90:
		m = f64.Aff3{0, -1, h, 1, 0, 0}
	case Transverse:
		m = f64.Aff3{0, -1, h, -1, 0, w}
	case Rotate270:
		m = f64.Aff3{0, 1, 0, -1, 0, w}
	default:
		m = f64.Aff3{1, 0, 0, 0, 1, 0}
	}
	mx, my := float64(min.X), float64(min.Y)
	m[2] -= m[0]*mx + m[1]*my
	m[5] -= m[3]*mx + m[4]*my
	return m
}

// Apply returns img corrected for orientation o.
func (o Orientation) Apply(img image.Image) image.Image {
	if o == Normal || !o.Valid() {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if o.SwapsDimensions() {
		w, h = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	s2d := o.transform(float64(b.Dx()), float64(b.Dy()), b.Min)
	draw.NearestNeighbor.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}
