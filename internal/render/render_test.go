package render_test

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/render"
	"github.com/digitorus/pdfstamp/internal/testpdf"
	"github.com/digitorus/pdfstamp/internal/writer"
	"golang.org/x/image/font/gofont/goregular"
)

// recorder collects objects instead of writing a document.
type recorder struct {
	objects [][]byte
	level   int
}

func (r *recorder) AddObject(data []byte) (uint32, error) {
	r.objects = append(r.objects, data)
	return uint32(len(r.objects)), nil
}

func (r *recorder) CompressLevel() int { return r.level }

func (r *recorder) object(t *testing.T, id uint32) string {
	t.Helper()
	if id == 0 || int(id) > len(r.objects) {
		t.Fatalf("object %d not written", id)
	}
	return string(r.objects[id-1])
}

func TestContent(t *testing.T) {
	var c render.Content
	c.Save().
		Transform(geometry.Identity).
		Transform(geometry.Identity.Translate(10, 20)).
		FillColor(render.Color{R: 255}).
		BeginText().
		Font("WmF1", 12).
		TextMatrix(geometry.Identity.Translate(5, 6.5)).
		TextRenderMode(render.RenderFillStroke).
		ShowText([]byte("Hi")).
		EndText().
		Draw("Orig").
		Restore()

	want := "q\n" +
		"1 0 0 1 10 20 cm\n" +
		"1 0 0 rg\n" +
		"BT\n" +
		"/WmF1 12 Tf\n" +
		"1 0 0 1 5 6.5 Tm\n" +
		"2 Tr\n" +
		"<4869> Tj\n" +
		"ET\n" +
		"/Orig Do\n" +
		"Q\n"
	if got := string(c.Bytes()); got != want {
		t.Errorf("content mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestContent_Shapes(t *testing.T) {
	var c render.Content
	c.StrokeColor(render.Gray).LineWidth(0.6).FillRect(geometry.Rect{X: 1, Y: 2, Width: 30, Height: 0.5}).GState("WmGS1").Raw([]byte("0 0 m"))
	want := "0.502 0.502 0.502 RG\n0.6 w\n1 2 30 0.5 re f\n/WmGS1 gs\n0 0 m\n"
	if got := string(c.Bytes()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResources(t *testing.T) {
	res := render.NewResources(map[string]bool{"WmF1": true})
	if !res.Empty() {
		t.Error("new registry is not empty")
	}

	font := res.Add(render.CategoryFont, writer.Ref{ID: 5})
	if font != "WmF2" {
		t.Errorf("font name = %s, want WmF2", font)
	}
	if again := res.Add(render.CategoryFont, writer.Ref{ID: 5}); again != font {
		t.Errorf("same font registered as %s and %s", font, again)
	}
	if img := res.Add(render.CategoryXObject, writer.Ref{ID: 6}); img != "WmIm1" {
		t.Errorf("image name = %s, want WmIm1", img)
	}
	res.Set(render.CategoryXObject, "Orig", writer.Ref{ID: 7})

	want := "<< /Font << /WmF2 5 0 R >> /XObject << /WmIm1 6 0 R /Orig 7 0 R >> >>"
	if got := string(res.Dict()); got != want {
		t.Errorf("Dict() = %q, want %q", got, want)
	}
}

func TestResources_Merge(t *testing.T) {
	data := testpdf.MustBuild(t, testpdf.Letter(1), testpdf.Options{})
	r := testpdf.Open(t, data)
	pages, err := pdf.Pages(r)
	if err != nil {
		t.Fatal(err)
	}
	names, err := pdf.ResourceNames(pages[0].Resources)
	if err != nil {
		t.Fatal(err)
	}

	res := render.NewResources(names)
	res.Add(render.CategoryFont, writer.Ref{ID: 9})
	res.Add(render.CategoryExtGState, writer.Ref{ID: 10})

	merged, err := res.Merge(pdf.NewSerializer(r), pages[0].Resources)
	if err != nil {
		t.Fatal(err)
	}
	want := "<< /Font << /F1 3 0 R /WmF1 9 0 R >> /ProcSet [/PDF /Text] /ExtGState << /WmGS1 10 0 R >> >>"
	if got := string(merged); got != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}

	empty, err := res.Merge(pdf.NewSerializer(r), r.Page(1).V.Key("Missing"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(empty); got != string(res.Dict()) {
		t.Errorf("Merge(null) = %q", got)
	}
}

func TestRegisterImage(t *testing.T) {
	t.Run("JPEG", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 3))
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, src, nil); err != nil {
			t.Fatalf("Failed to generate test JPEG: %v", err)
		}
		source, err := images.New("test.jpg", buf.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		img, err := images.Normalize(source, 1)
		if err != nil {
			t.Fatal(err)
		}

		w := &recorder{level: zlib.DefaultCompression}
		id, err := render.RegisterImage(w, img)
		if err != nil {
			t.Fatal(err)
		}
		obj := w.object(t, id)
		if !strings.Contains(obj, "/Filter /DCTDecode") || !strings.Contains(obj, "/Width 4 /Height 3") {
			t.Errorf("unexpected image object: %.120s", obj)
		}
		if !bytes.Contains(w.objects[0], buf.Bytes()) {
			t.Error("JPEG data was not embedded as is")
		}
	})

	t.Run("Transparent", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		src.Set(0, 0, color.NRGBA{255, 0, 0, 255})
		src.Set(1, 1, color.NRGBA{0, 0, 255, 128})

		w := &recorder{level: zlib.NoCompression}
		id, err := render.RegisterImage(w, images.FromImage("alpha", src))
		if err != nil {
			t.Fatal(err)
		}
		if id != 2 || len(w.objects) != 2 {
			t.Fatalf("expected soft mask and image, got %d objects", len(w.objects))
		}
		if obj := w.object(t, 1); !strings.Contains(obj, "/ColorSpace /DeviceGray") {
			t.Errorf("soft mask = %.120s", obj)
		}
		obj := w.object(t, 2)
		if !strings.Contains(obj, "/SMask 1 0 R") || !strings.Contains(obj, "/Filter /FlateDecode") {
			t.Errorf("image = %.160s", obj)
		}
	})

	t.Run("Opaque", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
		for x := 0; x < 3; x++ {
			src.Set(x, 0, color.NRGBA{10, 20, 30, 255})
		}
		w := &recorder{}
		if _, err := render.RegisterImage(w, images.FromImage("opaque", src)); err != nil {
			t.Fatal(err)
		}
		if len(w.objects) != 1 || strings.Contains(string(w.objects[0]), "/SMask") {
			t.Errorf("opaque image should not have a soft mask: %d objects", len(w.objects))
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := render.RegisterImage(&recorder{}, nil); err == nil {
			t.Error("expected error for nil image")
		}
		if _, err := render.RegisterImage(&recorder{}, &images.Normalized{Name: "bad", Data: []byte("nope"), Width: 1, Height: 1}); err == nil {
			t.Error("expected error for undecodable image")
		}
	})
}

func TestRegisterFont(t *testing.T) {
	t.Run("Standard", func(t *testing.T) {
		w := &recorder{}
		id, err := render.RegisterFont(w, fonts.Standard(fonts.HelveticaBold))
		if err != nil {
			t.Fatal(err)
		}
		if got, want := w.object(t, id), "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>"; got != want {
			t.Errorf("font = %q, want %q", got, want)
		}
	})

	t.Run("TrueType", func(t *testing.T) {
		f, err := fonts.New("", goregular.TTF)
		if err != nil {
			t.Fatal(err)
		}
		w := &recorder{level: zlib.DefaultCompression}
		id, err := render.RegisterFont(w, f)
		if err != nil {
			t.Fatal(err)
		}
		if id != 3 {
			t.Fatalf("expected font file, descriptor and font, got %d objects", len(w.objects))
		}
		if obj := w.object(t, 1); !strings.Contains(obj, "/Length1 ") || !strings.Contains(obj, "/Filter /FlateDecode") {
			t.Errorf("font file = %.80s", obj)
		}
		if obj := w.object(t, 2); !strings.Contains(obj, "/FontFile2 1 0 R") || !strings.Contains(obj, "/FontName /"+f.BaseFont()) {
			t.Errorf("descriptor = %s", obj)
		}
		obj := w.object(t, 3)
		if !strings.Contains(obj, "/Subtype /TrueType") || !strings.Contains(obj, "/FontDescriptor 2 0 R") {
			t.Errorf("font = %.200s", obj)
		}
		widths := obj[strings.Index(obj, "/Widths [")+len("/Widths [") : strings.LastIndex(obj, "]")]
		if n := len(strings.Fields(widths)); n != 224 {
			t.Errorf("got %d widths, want 224", n)
		}
	})
}

func TestRegisterGState(t *testing.T) {
	w := &recorder{}
	id, err := render.RegisterGState(w, 0.35)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := w.object(t, id), "<< /Type /ExtGState /ca 0.35 /CA 0.35 >>"; got != want {
		t.Errorf("gstate = %q, want %q", got, want)
	}
	for _, bad := range []float64{-0.1, 1.01} {
		if _, err := render.RegisterGState(w, bad); err == nil {
			t.Errorf("expected error for opacity %g", bad)
		}
	}
}

func TestRegisterForm(t *testing.T) {
	w := &recorder{level: zlib.NoCompression}
	id, err := render.RegisterForm(w, [4]float64{0, 0, 612, 792}, []byte("<< /Font << /F1 3 0 R >> >>"), []byte("BT ET"))
	if err != nil {
		t.Fatal(err)
	}
	obj := w.object(t, id)
	for _, want := range []string{"/Subtype /Form", "/BBox [0 0 612 792]", "/Resources << /Font << /F1 3 0 R >> >>", "stream\nBT ET\nendstream"} {
		if !strings.Contains(obj, want) {
			t.Errorf("form missing %q: %s", want, obj)
		}
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	ctx := render.TemplateContext{Page: 2, Pages: 5, Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	tests := []struct {
		in, want string
	}{
		{"CONFIDENTIAL", "CONFIDENTIAL"},
		{"Page {{Page}} of {{Pages}}", "Page 2 of 5"},
		{"{{Date}}", "2024-03-01"},
		{"{{Unknown}} stays", "{{Unknown}} stays"},
	}
	for _, tt := range tests {
		if got := render.ExpandTemplateVariables(tt.in, ctx); got != tt.want {
			t.Errorf("ExpandTemplateVariables(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if render.HasTemplateVariables("plain") || !render.HasTemplateVariables("{{Page}}") {
		t.Error("HasTemplateVariables mismatch")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    render.Color
		wantErr bool
	}{
		{"#ff8000", render.Color{R: 255, G: 128}, false},
		{"00ff00", render.Color{G: 255}, false},
		{" #808080 ", render.Gray, false},
		{"#zzzzzz", render.Color{}, true},
		{"red", render.Color{}, true},
	}
	for _, tt := range tests {
		got, err := render.ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := (render.Color{R: 255, G: 128}).Hex(); got != "#ff8000" {
		t.Errorf("Hex() = %s", got)
	}
}
