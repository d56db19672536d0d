package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/config"
	"github.com/digitorus/pdfstamp/internal/testpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
[watermark]
text = "CONFIDENTIAL"
font = "Times-Bold"
size = 60
underline = true
color = "#ff0000"
opacity = 0.3
rotation = 45
anchor = "top-right"
zorder = "below"
tile = 150
pages = "2-3"

[images]
page_size = "letter"
landscape = true
cells = 4
quality = 0.8
padding = 12
`

func TestParse(t *testing.T) {
	c, err := config.Parse(fullConfig)
	require.NoError(t, err)

	// Watermark
	assert.Equal(t, "CONFIDENTIAL", c.Watermark.Text)
	assert.Equal(t, "Times-Bold", c.Watermark.Font)
	assert.Equal(t, 60.0, c.Watermark.Size)
	assert.True(t, c.Watermark.Underline)
	assert.False(t, c.Watermark.Bold)
	assert.Equal(t, "#ff0000", c.Watermark.Color)
	assert.Equal(t, 0.3, c.Watermark.Opacity)
	assert.Equal(t, 45.0, c.Watermark.Rotation)
	assert.Equal(t, "top-right", c.Watermark.Anchor)
	assert.Equal(t, "below", c.Watermark.ZOrder)
	assert.Equal(t, 150.0, c.Watermark.Tile)
	assert.Equal(t, "2-3", c.Watermark.Pages)

	// Images
	assert.Equal(t, "letter", c.Images.PageSize)
	assert.True(t, c.Images.Landscape)
	assert.Equal(t, 4, c.Images.Cells)
	assert.Equal(t, 0.8, c.Images.Quality)
	assert.Equal(t, 12.0, c.Images.Padding)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"opacity", "[watermark]\nopacity = 1.5"},
		{"zorder", "[watermark]\nzorder = \"middle\""},
		{"anchor", "[watermark]\nanchor = \"somewhere\""},
		{"color", "[watermark]\ncolor = \"blue\""},
		{"cells", "[images]\ncells = 3"},
		{"page size", "[images]\npage_size = \"b5\""},
		{"quality", "[images]\nquality = 2"},
		{"unknown key", "[watermark]\nfoo = 1"},
		{"syntax", "[watermark\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(tt.content)
			assert.Error(t, err)
		})
	}

	c, err := config.Parse(``)
	require.NoError(t, err)
	assert.NoError(t, c.ValidateFields())
}

func TestRead(t *testing.T) {
	_, err := config.Read(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "pdfstamp.toml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o600))
	c, err := config.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "CONFIDENTIAL", c.Watermark.Text)
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		input   string
		want    pdfstamp.PageRange
		wantErr bool
	}{
		{"", pdfstamp.AllPages, false},
		{"all", pdfstamp.AllPages, false},
		{"3", pdfstamp.Pages(3, 3), false},
		{"2-5", pdfstamp.Pages(2, 5), false},
		{" 2 - 5 ", pdfstamp.Pages(2, 5), false},
		{"4-", pdfstamp.PageRange{From: 4}, false},
		{"x", pdfstamp.PageRange{}, true},
		{"1-y", pdfstamp.PageRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := config.ParsePages(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, pdfstamp.ErrInvalidPageRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImages_Spec(t *testing.T) {
	spec, err := config.Images{}.Spec()
	require.NoError(t, err)
	assert.Equal(t, pdfstamp.DefaultLayout, spec)

	spec, err = config.Images{PageSize: "letter", Landscape: true, Cells: 2, Quality: 0.5, Padding: 10}.Spec()
	require.NoError(t, err)
	assert.Equal(t, 792.0, spec.PageWidth)
	assert.Equal(t, 612.0, spec.PageHeight)
	assert.Equal(t, 2, spec.CellsPerPage)
	assert.Equal(t, 0.5, spec.Quality)
	assert.Equal(t, 10.0, spec.Padding)

	_, err = config.Images{PageSize: "tabloid"}.Spec()
	assert.Error(t, err)
}

func TestWatermark_Apply(t *testing.T) {
	data := testpdf.MustBuild(t, testpdf.Letter(3), testpdf.Options{})
	doc, err := pdfstamp.Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	w := config.Watermark{
		Text:    "CONFIG",
		Font:    "Courier",
		Size:    20,
		Color:   "#00ff00",
		Opacity: 0.5,
		Anchor:  "bottom-left",
		Pages:   "2",
	}
	_, err = w.Apply(doc)
	require.NoError(t, err)

	var out bytes.Buffer
	result, err := doc.Write(&out)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	r := testpdf.Open(t, out.Bytes())
	content := testpdf.Content(t, r, 2)
	assert.True(t, strings.Contains(content, "0 1 0 rg"), "fill color not set: %q", content)
	assert.Equal(t, "Courier", r.Page(2).V.Key("Resources").Key("Font").Key("WmF1").Key("BaseFont").Name())
	assert.NotContains(t, testpdf.Content(t, r, 1), "rg")
}

func TestWatermark_ApplyErrors(t *testing.T) {
	data := testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{})
	tests := []struct {
		name string
		w    config.Watermark
	}{
		{"missing image", config.Watermark{Image: filepath.Join(t.TempDir(), "missing.png")}},
		{"missing font file", config.Watermark{Text: "x", Font: filepath.Join(t.TempDir(), "missing.ttf")}},
		{"unknown font", config.Watermark{Text: "x", Font: "Comic Sans"}},
		{"zorder", config.Watermark{Text: "x", ZOrder: "sideways"}},
		{"pages", config.Watermark{Text: "x", Pages: "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := pdfstamp.Open(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)
			_, err = tt.w.Apply(doc)
			assert.Error(t, err)
		})
	}
}
