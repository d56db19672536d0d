package compose_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"
	"time"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/compose"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/render"
	"github.com/digitorus/pdfstamp/internal/testpdf"
	"github.com/digitorus/pdfstamp/internal/writer"
)

// run applies overlays to every page of data and parses the result.
func run(t *testing.T, data []byte, snapshot bool, overlays ...compose.Overlay) (*pdflib.Reader, error) {
	t.Helper()
	r := testpdf.Open(t, data)

	var snap *pdf.Snapshot
	if snapshot {
		var err error
		if snap, err = pdf.Capture(r); err != nil {
			t.Fatal(err)
		}
	}
	w, err := writer.NewIncremental(bytes.NewReader(data), int64(len(data)), r)
	if err != nil {
		t.Fatal(err)
	}
	c, err := compose.New(w, snap)
	if err != nil {
		t.Fatal(err)
	}
	c.SetDate(time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))

	pages, err := pdf.Pages(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range pages {
		if err := c.Apply(p, overlays); err != nil {
			return nil, err
		}
	}
	if err := w.Finish(); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if _, err := w.WriteTo(&out); err != nil {
		t.Fatal(err)
	}
	return testpdf.Open(t, out.Bytes()), nil
}

func mustRun(t *testing.T, data []byte, snapshot bool, overlays ...compose.Overlay) *pdflib.Reader {
	t.Helper()
	r, err := run(t, data, snapshot, overlays...)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	return r
}

func shown(text string) string {
	return "<" + hex.EncodeToString(fonts.Encode(text)) + "> Tj"
}

func text(content string) compose.Overlay {
	return compose.Overlay{
		Kind:    compose.KindText,
		Text:    &compose.TextRun{Content: content, Size: 36},
		Opacity: 1,
		Color:   render.Gray,
	}
}

func readStream(t *testing.T, v pdflib.Value) string {
	t.Helper()
	rc := v.Reader()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestAbove(t *testing.T) {
	overlay := text("DRAFT")
	overlay.Opacity = 0.5
	r := mustRun(t, testpdf.MustBuild(t, testpdf.Letter(2), testpdf.Options{}), false, overlay)

	if r.NumPage() != 2 {
		t.Fatalf("NumPage = %d", r.NumPage())
	}
	var fontIDs []uint32
	for i := 1; i <= 2; i++ {
		page := r.Page(i).V
		contents := page.Key("Contents")
		if contents.Len() != 3 {
			t.Fatalf("page %d: %d content streams, want 3", i, contents.Len())
		}
		if first := readStream(t, contents.Index(0)); first != "q\n" {
			t.Errorf("page %d: first stream = %q", i, first)
		}
		if orig := readStream(t, contents.Index(1)); !strings.Contains(orig, "(Page ") {
			t.Errorf("page %d: original content changed: %q", i, orig)
		}
		last := readStream(t, contents.Index(2))
		if !strings.HasPrefix(last, "Q\n") || !strings.Contains(last, shown("DRAFT")) || !strings.Contains(last, "/WmGS1 gs") {
			t.Errorf("page %d: overlay stream = %q", i, last)
		}

		res := page.Key("Resources")
		if res.Key("Font").Key("F1").IsNull() {
			t.Errorf("page %d: original font resource lost", i)
		}
		font := res.Key("Font").Key("WmF1")
		if font.Key("BaseFont").Name() != "Helvetica" {
			t.Errorf("page %d: overlay font = %v", i, font)
		}
		fontIDs = append(fontIDs, pdf.RefOf(font).ID)
		if ca := res.Key("ExtGState").Key("WmGS1").Key("ca").Float64(); ca != 0.5 {
			t.Errorf("page %d: /ca = %g", i, ca)
		}
		if got := page.Key("MediaBox").Index(3).Float64(); got != 792 {
			t.Errorf("page %d: MediaBox height = %g", i, got)
		}
	}
	if fontIDs[0] != fontIDs[1] {
		t.Errorf("font written per page: %v", fontIDs)
	}
}

// TestBelow_PreservesContent checks that a page drawn below an overlay
// still carries its original text, unchanged, in front of the overlay.
func TestBelow_PreservesContent(t *testing.T) {
	data := testpdf.MustBuild(t, []testpdf.Page{{Text: "HELLO"}}, testpdf.Options{Compress: true})
	original := testpdf.Content(t, testpdf.Open(t, data), 1)

	overlay := text("BACKGROUND")
	overlay.ZOrder = compose.Below
	r := mustRun(t, data, true, overlay)

	page := r.Page(1).V
	content := testpdf.Content(t, r, 1)
	back := strings.Index(content, shown("BACKGROUND"))
	front := strings.Index(content, "/Orig Do")
	if back < 0 || front < 0 || back > front {
		t.Fatalf("overlay must be drawn before the original page, content = %q", content)
	}
	if strings.Contains(content, "HELLO") {
		t.Error("original operators should only be drawn through the form")
	}

	form := page.Key("Resources").Key("XObject").Key("Orig")
	if form.Key("Subtype").Name() != "Form" {
		t.Fatalf("/Orig is not a form: %v", form)
	}
	formContent := readStream(t, form)
	if !strings.Contains(formContent, "(HELLO) Tj") {
		t.Errorf("form content = %q", formContent)
	}
	if formContent != original {
		t.Errorf("original content altered\ngot:  %q\nwant: %q", formContent, original)
	}
	if form.Key("Resources").Key("Font").Key("F1").Key("BaseFont").Name() != "Helvetica" {
		t.Error("form lost the original font resources")
	}
	bbox := form.Key("BBox")
	if bbox.Index(2).Float64() != 612 || bbox.Index(3).Float64() != 792 {
		t.Errorf("form BBox = %v", bbox)
	}
}

func TestBelow_MixedZOrder(t *testing.T) {
	below := text("UNDER")
	below.ZOrder = compose.Below
	above := text("OVER")
	r := mustRun(t, testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{}), true, above, below)

	content := testpdf.Content(t, r, 1)
	u, o, orig := strings.Index(content, shown("UNDER")), strings.Index(content, shown("OVER")), strings.Index(content, "/Orig Do")
	if !(u >= 0 && u < orig && orig < o) {
		t.Errorf("unexpected drawing order under=%d orig=%d over=%d in %q", u, orig, o, content)
	}
}

func TestBelow_MissingSnapshot(t *testing.T) {
	overlay := text("X")
	overlay.ZOrder = compose.Below
	data := testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{})

	if _, err := run(t, data, false, overlay); !errors.Is(err, compose.ErrMissingOriginalSnapshot) {
		t.Errorf("without snapshot: got %v", err)
	}

	// A snapshot of another reader is stale.
	other, err := pdf.Capture(testpdf.Open(t, data))
	if err != nil {
		t.Fatal(err)
	}
	r := testpdf.Open(t, data)
	w, err := writer.NewIncremental(bytes.NewReader(data), int64(len(data)), r)
	if err != nil {
		t.Fatal(err)
	}
	c, err := compose.New(w, other)
	if err != nil {
		t.Fatal(err)
	}
	pages, err := pdf.Pages(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Apply(pages[0], []compose.Overlay{overlay}); !errors.Is(err, compose.ErrMissingOriginalSnapshot) {
		t.Errorf("stale snapshot: got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *compose.Overlay)
		wantErr error
	}{
		{"empty text", func(o *compose.Overlay) { o.Text.Content = "  " }, compose.ErrEmptyTextRun},
		{"no text run", func(o *compose.Overlay) { o.Text = nil }, compose.ErrEmptyTextRun},
		{"rotation 30", func(o *compose.Overlay) { o.Rotation = 30 }, compose.ErrUnsupportedRotation},
		{"tiny tiling", func(o *compose.Overlay) { o.Tiling = &compose.Tiling{Spacing: 5} }, geometry.ErrTilingSpacingTooSmall},
		{"no image", func(o *compose.Overlay) { o.Kind = compose.KindImage }, geometry.ErrDegenerateAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := text("ok")
			tt.mutate(&o)
			if err := o.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	o := text("ok")
	o.Opacity = 1.5
	if err := o.Validate(); err == nil {
		t.Error("expected error for opacity 1.5")
	}
	o = text("ok")
	o.Rotation = -45
	if err := o.Validate(); err != nil {
		t.Errorf("rotation -45: %v", err)
	}

	// Validation happens before anything is written.
	bad := text("")
	if _, err := run(t, testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{}), false, bad); !errors.Is(err, compose.ErrEmptyTextRun) {
		t.Errorf("Apply() = %v", err)
	}
}

func TestTiling(t *testing.T) {
	overlay := text("X")
	overlay.Text.Size = 12
	overlay.Tiling = &compose.Tiling{Spacing: 150}
	overlay.Rotation = 45
	data := testpdf.MustBuild(t, []testpdf.Page{{MediaBox: [4]float64{0, 0, 600, 800}}}, testpdf.Options{})

	r := mustRun(t, data, false, overlay)
	content := testpdf.Content(t, r, 1)
	if n := strings.Count(content, shown("X")); n != 24 {
		t.Errorf("got %d tiles, want 24", n)
	}
}

func TestImageOverlay(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.NRGBA{200, 0, 0, 255})
		}
	}
	overlay := compose.Overlay{
		Kind:    compose.KindImage,
		Image:   images.FromImage("red", src),
		Opacity: 1,
	}
	data := testpdf.MustBuild(t, []testpdf.Page{{MediaBox: [4]float64{0, 0, 600, 800}}}, testpdf.Options{})

	r := mustRun(t, data, false, overlay)
	content := testpdf.Content(t, r, 1)
	for _, want := range []string{"1 0 0 1 250 375 cm", "100 0 0 50 0 0 cm", "/WmIm1 Do"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q: %q", want, content)
		}
	}
	img := r.Page(1).V.Key("Resources").Key("XObject").Key("WmIm1")
	if img.Key("Subtype").Name() != "Image" || img.Key("Width").Int64() != 100 {
		t.Errorf("image XObject = %v", img)
	}
	if strings.Contains(content, " gs") {
		t.Error("opaque overlay should not set a graphics state")
	}
}

func TestImageOverlay_ShrinksToPage(t *testing.T) {
	overlay := compose.Overlay{
		Kind:    compose.KindImage,
		Image:   images.FromImage("wide", image.NewNRGBA(image.Rect(0, 0, 1000, 100))),
		Anchor:  geometry.BottomLeft,
		Opacity: 1,
	}
	data := testpdf.MustBuild(t, []testpdf.Page{{MediaBox: [4]float64{0, 0, 600, 800}}}, testpdf.Options{})
	content := testpdf.Content(t, mustRun(t, data, false, overlay), 1)
	if !strings.Contains(content, "500 0 0 50 0 0 cm") || !strings.Contains(content, "1 0 0 1 50 50 cm") {
		t.Errorf("image not fitted into the page margins: %q", content)
	}
}

func TestUnderline(t *testing.T) {
	overlay := text("Under")
	overlay.Text.Underline = true
	overlay.Anchor = geometry.At(100, 200)
	content := testpdf.Content(t, mustRun(t, testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{}), false, overlay), 1)

	// 36pt text: the bar sits 4.32pt below the baseline and is 1.8pt thick.
	if !strings.Contains(content, "1 0 0 1 100 195.68 cm") || !strings.Contains(content, " 1.8 re f") {
		t.Errorf("underline not found: %q", content)
	}
}

func TestStyles(t *testing.T) {
	overlay := text("Bold")
	overlay.Text.Bold = true
	overlay.Text.Italic = true
	r := mustRun(t, testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{}), false, overlay)
	font := r.Page(1).V.Key("Resources").Key("Font").Key("WmF1")
	if got := font.Key("BaseFont").Name(); got != "Helvetica-BoldOblique" {
		t.Errorf("BaseFont = %s", got)
	}
	if content := testpdf.Content(t, r, 1); strings.Contains(content, "2 Tr") {
		t.Error("standard fonts should not use synthetic bold")
	}
}

func TestRotatedPage(t *testing.T) {
	data := testpdf.MustBuild(t, []testpdf.Page{{Rotate: 90}}, testpdf.Options{})
	r := mustRun(t, data, false, text("R"))
	content := testpdf.Content(t, r, 1)
	if !strings.Contains(content, "0 1 -1 0 612 0 cm") {
		t.Errorf("visual space not mapped to the rotated page: %q", content)
	}
	if got := r.Page(1).V.Key("Rotate").Int64(); got != 90 {
		t.Errorf("Rotate = %d", got)
	}
}

func TestTemplateVariables(t *testing.T) {
	r := mustRun(t, testpdf.MustBuild(t, testpdf.Letter(3), testpdf.Options{}), false, text("Page {{Page}} of {{Pages}}, {{Date}}"))
	for i := 1; i <= 3; i++ {
		want := shown("Page " + string(rune('0'+i)) + " of 3, 2024-05-17")
		if content := testpdf.Content(t, r, i); !strings.Contains(content, want) {
			t.Errorf("page %d: missing %s", i, want)
		}
	}
}

func TestInheritedResources(t *testing.T) {
	data := testpdf.MustBuild(t, testpdf.Letter(2), testpdf.Options{Inherit: true, XrefStream: true, Compress: true})
	r := mustRun(t, data, false, text("INHERIT"))
	if r.XrefInformation.Type != "stream" {
		t.Errorf("xref type = %s, want stream", r.XrefInformation.Type)
	}
	for i := 1; i <= 2; i++ {
		page := r.Page(i).V
		if page.Key("Resources").Key("Font").Key("F1").IsNull() {
			t.Errorf("page %d: inherited font not carried over", i)
		}
		if page.Key("MediaBox").IsNull() {
			t.Errorf("page %d: MediaBox not made explicit", i)
		}
	}
}
