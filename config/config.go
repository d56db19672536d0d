// Package config reads watermark and image assembly presets from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/compose"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/internal/render"
	"github.com/digitorus/pdfstamp/layout"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

// DefaultLocation is the default location of the config file.
var DefaultLocation = "./pdfstamp.toml"

// Config is the root of the config.
type Config struct {
	Watermark Watermark `toml:"watermark" valid:"optional"`
	Images    Images    `toml:"images" valid:"optional"`
}

// Watermark configures the watermark command.
type Watermark struct {
	Text  string `toml:"text" valid:"optional"`
	Image string `toml:"image" valid:"optional"`
	// Font is a standard font name such as "Helvetica-Bold", or the path of
	// a TrueType file.
	Font      string  `toml:"font" valid:"optional"`
	Size      float64 `toml:"size" valid:"optional,range(1|1000)"`
	Bold      bool    `toml:"bold" valid:"optional"`
	Italic    bool    `toml:"italic" valid:"optional"`
	Underline bool    `toml:"underline" valid:"optional"`
	Color     string  `toml:"color" valid:"optional,hexcolor"`
	// Opacity 0 means opaque.
	Opacity  float64 `toml:"opacity" valid:"optional,range(0|1)"`
	Rotation float64 `toml:"rotation" valid:"optional"`
	Anchor   string  `toml:"anchor" valid:"optional,in(center|top-left|top-center|top-right|middle-left|middle-right|bottom-left|bottom-center|bottom-right)"`
	ZOrder   string  `toml:"zorder" valid:"optional,in(above|below)"`
	// Width is the display width of an image in points.
	Width float64 `toml:"width" valid:"optional,range(0|100000)"`
	// Tile is the tiling spacing in points. Zero disables tiling.
	Tile float64 `toml:"tile" valid:"optional,range(0|100000)"`
	// Pages is "all", a single page "3", or a range "2-5" or "2-".
	Pages string `toml:"pages" valid:"optional"`
}

// Images configures the images command.
type Images struct {
	PageSize  string  `toml:"page_size" valid:"optional,in(a3|a4|a5|letter|legal)"`
	Landscape bool    `toml:"landscape" valid:"optional"`
	Cells     int     `toml:"cells" valid:"optional,in(1|2|4)"`
	Quality   float64 `toml:"quality" valid:"optional,range(0|1)"`
	Padding   float64 `toml:"padding" valid:"optional,range(0|1000)"`
}

// ValidateFields validates all the fields of the config.
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	return nil
}

// Read decodes and validates the config file.
func Read(configfile string) (*Config, error) {
	if _, err := os.Stat(configfile); err != nil {
		return nil, fmt.Errorf("config file is missing: %w", err)
	}

	var c Config
	if _, err := toml.DecodeFile(configfile, &c); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", configfile, err)
	}
	if err := c.ValidateFields(); err != nil {
		return nil, fmt.Errorf("config is not valid: %w", err)
	}
	return &c, nil
}

// Parse decodes and validates a config from TOML text.
func Parse(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	if err := c.ValidateFields(); err != nil {
		return nil, fmt.Errorf("config is not valid: %w", err)
	}
	return &c, nil
}

// ParsePages parses "all", "N", "N-M" or "N-".
func ParsePages(s string) (pdfstamp.PageRange, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return pdfstamp.AllPages, nil
	}
	from, to, isRange := strings.Cut(s, "-")
	f, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return pdfstamp.PageRange{}, fmt.Errorf("%w: %q", pdfstamp.ErrInvalidPageRange, s)
	}
	if !isRange {
		return pdfstamp.Pages(f, f), nil
	}
	if strings.TrimSpace(to) == "" {
		return pdfstamp.PageRange{From: f}, nil
	}
	t, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return pdfstamp.PageRange{}, fmt.Errorf("%w: %q", pdfstamp.ErrInvalidPageRange, s)
	}
	return pdfstamp.Pages(f, t), nil
}

// Apply stages the configured watermark on doc.
func (w Watermark) Apply(doc *pdfstamp.Document) (*pdfstamp.WatermarkBuilder, error) {
	b := doc.Watermark()
	if w.Image != "" {
		data, err := os.ReadFile(w.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		img, err := doc.AddImage(filepath.Base(w.Image), data)
		if err != nil {
			return nil, err
		}
		b.Image(img).Width(w.Width)
	} else {
		b.Text(w.Text)
	}

	if w.Font != "" {
		font, err := loadFont(doc, w.Font)
		if err != nil {
			return nil, err
		}
		b.Font(font, w.Size)
	} else if w.Size != 0 {
		b.Size(w.Size)
	}
	if w.Bold {
		b.Bold()
	}
	if w.Italic {
		b.Italic()
	}
	if w.Underline {
		b.Underline()
	}

	if w.Color != "" {
		c, err := render.ParseColor(w.Color)
		if err != nil {
			return nil, err
		}
		b.Color(c)
	}
	if w.Opacity != 0 {
		b.Opacity(w.Opacity)
	}
	if w.Anchor != "" {
		a, err := geometry.ParseAnchor(w.Anchor)
		if err != nil {
			return nil, err
		}
		b.Anchor(a)
	}
	z, err := compose.ParseZOrder(w.ZOrder)
	if err != nil {
		return nil, err
	}
	b.ZOrder(z).Rotate(w.Rotation)
	if w.Tile != 0 {
		b.Tile(w.Tile)
	}

	pages, err := ParsePages(w.Pages)
	if err != nil {
		return nil, err
	}
	doc.SetPages(pages)
	return b, nil
}

func loadFont(doc *pdfstamp.Document, name string) (*pdfstamp.Font, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		return doc.AddFont(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), data)
	}
	return fonts.ParseStandard(name)
}

// Spec returns the grid layout for the images command. Unset values
// default to one A4 portrait image per page at quality 0.9.
func (i Images) Spec() (layout.Spec, error) {
	spec := pdfstamp.DefaultLayout
	name := i.PageSize
	if name == "" {
		name = "a4"
	}
	w, h, err := layout.PageSize(name, i.Landscape)
	if err != nil {
		return layout.Spec{}, err
	}
	spec.PageWidth, spec.PageHeight = w, h
	if i.Cells != 0 {
		spec.CellsPerPage = i.Cells
	}
	if i.Quality != 0 {
		spec.Quality = i.Quality
	}
	spec.Padding = i.Padding
	return spec, spec.Validate()
}
