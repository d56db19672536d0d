package geometry

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name     string
		box      [4]float64
		rotate   int
		wantW    float64
		wantH    float64
		wantRot  int
		wantOr   Orientation
		wantFail bool
	}{
		{"a4 portrait", [4]float64{0, 0, 595, 842}, 0, 595, 842, 0, Portrait, false},
		{"rotated 90", [4]float64{0, 0, 595, 842}, 90, 842, 595, 90, Landscape, false},
		{"negative rotate", [4]float64{0, 0, 600, 800}, -90, 800, 600, 270, Landscape, false},
		{"offset box", [4]float64{10, 20, 610, 820}, 0, 600, 800, 0, Portrait, false},
		{"square", [4]float64{0, 0, 500, 500}, 180, 500, 500, 180, Portrait, false},
		{"empty box", [4]float64{0, 0, 0, 800}, 0, 0, 0, 0, Portrait, true},
		{"bad rotate", [4]float64{0, 0, 600, 800}, 45, 0, 0, 0, Portrait, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPage(1, tt.box, tt.rotate)
			if tt.wantFail {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPage: %v", err)
			}
			if p.Width != tt.wantW || p.Height != tt.wantH {
				t.Errorf("size = %gx%g, want %gx%g", p.Width, p.Height, tt.wantW, tt.wantH)
			}
			if p.Rotate != tt.wantRot {
				t.Errorf("rotate = %d, want %d", p.Rotate, tt.wantRot)
			}
			if p.Orientation() != tt.wantOr {
				t.Errorf("orientation = %v, want %v", p.Orientation(), tt.wantOr)
			}
		})
	}
}

func TestVisualToUser(t *testing.T) {
	// Visual corners must land on the MediaBox corners for every rotation.
	box := [4]float64{10, 20, 610, 820}
	for _, rot := range []int{0, 90, 180, 270} {
		p, err := NewPage(1, box, rot)
		if err != nil {
			t.Fatal(err)
		}
		m := p.VisualToUser()
		for _, v := range []Point{{0, 0}, {p.Width, 0}, {0, p.Height}, {p.Width, p.Height}} {
			u := m.Apply(v)
			if !(approx(u.X, 10) || approx(u.X, 610)) || !(approx(u.Y, 20) || approx(u.Y, 820)) {
				t.Errorf("rotate %d: visual %v mapped to %v, outside media box corners", rot, v, u)
			}
		}
		c := m.Apply(Point{p.Width / 2, p.Height / 2})
		if !approx(c.X, 310) || !approx(c.Y, 420) {
			t.Errorf("rotate %d: center mapped to %v", rot, c)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name           string
		aw, ah, tw, th float64
		upscale        bool
		wantScale      float64
	}{
		{"downscale wide", 2000, 1000, 500, 500, false, 0.25},
		{"downscale tall", 1000, 4000, 500, 500, false, 0.125},
		{"no upscale", 100, 50, 500, 500, false, 1},
		{"upscale", 100, 50, 500, 500, true, 5},
		{"exact", 500, 500, 500, 500, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Fit(tt.aw, tt.ah, tt.tw, tt.th, tt.upscale)
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if !approx(f.Scale, tt.wantScale) {
				t.Errorf("scale = %g, want %g", f.Scale, tt.wantScale)
			}
			if !tt.upscale && f.Scale > 1 {
				t.Errorf("scale %g > 1 without upscale", f.Scale)
			}
			if f.Width > tt.tw || f.Height > tt.th {
				t.Errorf("box %gx%g overflows %gx%g", f.Width, f.Height, tt.tw, tt.th)
			}
			if !approx(f.Width/f.Height, tt.aw/tt.ah) {
				t.Errorf("aspect changed: %g vs %g", f.Width/f.Height, tt.aw/tt.ah)
			}
			if !approx(f.OffsetX, (tt.tw-f.Width)/2) || !approx(f.OffsetY, (tt.th-f.Height)/2) {
				t.Errorf("box not centered: offset (%g, %g)", f.OffsetX, f.OffsetY)
			}
		})
	}
}

func TestFit_Degenerate(t *testing.T) {
	for _, dims := range [][2]float64{{0, 10}, {10, 0}, {-1, 10}} {
		_, err := Fit(dims[0], dims[1], 100, 100, false)
		if !errors.Is(err, ErrDegenerateAsset) {
			t.Errorf("Fit(%v) error = %v, want ErrDegenerateAsset", dims, err)
		}
	}
}

func TestResolve(t *testing.T) {
	const pw, ph, bw, bh = 600.0, 800.0, 100.0, 40.0
	tests := []struct {
		anchor Anchor
		want   Point
	}{
		{TopLeft, Point{50, 710}},
		{TopCenter, Point{250, 710}},
		{TopRight, Point{450, 710}},
		{MiddleLeft, Point{50, 380}},
		{Center, Point{250, 380}},
		{MiddleRight, Point{450, 380}},
		{BottomLeft, Point{50, 50}},
		{BottomCenter, Point{250, 50}},
		{BottomRight, Point{450, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			got, err := Resolve(pw, ph, bw, bh, tt.anchor, DefaultMargin)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
			if got.X < 0 || got.X > pw || got.Y < 0 || got.Y > ph {
				t.Errorf("Resolve = %v outside page", got)
			}
		})
	}
}

func TestResolve_Oversized(t *testing.T) {
	// Edge anchors stay on the page; centered axes stay centered.
	for _, a := range Anchors {
		got, err := Resolve(100, 100, 400, 400, a, DefaultMargin)
		if err != nil {
			t.Fatalf("%v: %v", a, err)
		}
		h, v, _ := a.axes()
		for _, c := range []struct {
			axis  align
			value float64
		}{{h, got.X}, {v, got.Y}} {
			switch {
			case c.axis == alignMiddle && c.value != -150:
				t.Errorf("%v: centered axis = %v, want -150", a, c.value)
			case c.axis != alignMiddle && (c.value < 0 || c.value > 100):
				t.Errorf("%v: %v outside page", a, got)
			}
		}
	}

	// A 690pt wide watermark on A5 rotated by 45 degrees keeps its center
	// on the page center.
	ll, err := Resolve(420, 595, 690, 100, Center, DefaultMargin)
	if err != nil {
		t.Fatal(err)
	}
	if ll != (Point{-135, 247.5}) {
		t.Errorf("Resolve = %v, want {-135 247.5}", ll)
	}
	origin := RotatedOrigin(ll, 690, 100, 45)
	center := Rotation(45).Apply(Point{345, 50})
	center = Point{origin.X + center.X, origin.Y + center.Y}
	if !approx(center.X, 210) || !approx(center.Y, 297.5) {
		t.Errorf("rotated center = %v, want {210 297.5}", center)
	}
}

func TestResolve_Explicit(t *testing.T) {
	got, err := Resolve(600, 800, 100, 40, At(-20, 900), DefaultMargin)
	if err != nil {
		t.Fatal(err)
	}
	if got != (Point{-20, 900}) {
		t.Errorf("explicit placement changed: %v", got)
	}
	if _, err := Resolve(600, 800, 100, 40, Anchor(99), DefaultMargin); err == nil {
		t.Error("expected error for invalid anchor")
	}
}

func TestParseAnchor(t *testing.T) {
	for _, a := range Anchors {
		got, err := ParseAnchor(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAnchor(%q) = %v, %v", a.String(), got, err)
		}
	}
	if got, err := ParseAnchor(" Middle_Left "); err != nil || got != MiddleLeft {
		t.Errorf("ParseAnchor(Middle_Left) = %v, %v", got, err)
	}
	if _, err := ParseAnchor("somewhere"); err == nil {
		t.Error("expected error for unknown anchor")
	}
}

func TestCenteredOrigin(t *testing.T) {
	c := Point{300, 400}
	for _, deg := range []float64{0, 45, 90, 135, 180, 270, 315} {
		o := CenteredOrigin(c, 200, 20, deg)
		// The element center, in its own frame (100, 10), must land on c.
		got := Rotation(deg).Translate(o.X, o.Y).Apply(Point{100, 10})
		if !approx(got.X, c.X) || !approx(got.Y, c.Y) {
			t.Errorf("%g degrees: center at %v, want %v", deg, got, c)
		}
	}
}

func TestUnderline(t *testing.T) {
	t.Run("horizontal", func(t *testing.T) {
		d := Underline(Point{100, 200}, 80, 10, 0)
		if !approx(d.Origin.X, 100) || !approx(d.Origin.Y, 200-1.2) {
			t.Errorf("origin = %v", d.Origin)
		}
		if d.Width != 80 || !approx(d.Thickness, 0.5) || d.Rotation != 0 {
			t.Errorf("decoration = %+v", d)
		}
	})
	t.Run("vertical", func(t *testing.T) {
		// Text running upward; "below" the baseline is to the right.
		d := Underline(Point{100, 200}, 80, 10, 90)
		if !approx(d.Origin.X, 101.2) || !approx(d.Origin.Y, 200) {
			t.Errorf("origin = %v", d.Origin)
		}
		if d.Rotation != 90 {
			t.Errorf("rotation = %g", d.Rotation)
		}
	})
	t.Run("perpendicular", func(t *testing.T) {
		o := Point{0, 0}
		for _, deg := range []float64{30, 45, 210} {
			d := Underline(o, 50, 20, deg)
			s, c := math.Sincos(deg * math.Pi / 180)
			// Offset vector is orthogonal to the text direction.
			if dot := d.Origin.X*c + d.Origin.Y*s; !approx(dot, 0) {
				t.Errorf("%g degrees: offset not perpendicular (dot %g)", deg, dot)
			}
			if l := math.Hypot(d.Origin.X, d.Origin.Y); !approx(l, 20*UnderlineOffset) {
				t.Errorf("%g degrees: offset length %g", deg, l)
			}
		}
	})
}

func TestValidateRotation(t *testing.T) {
	for _, d := range []float64{0, 45, 90, -45, 315, 720} {
		if err := ValidateRotation(d); err != nil {
			t.Errorf("ValidateRotation(%g) = %v", d, err)
		}
	}
	for _, d := range []float64{30, 1, math.NaN()} {
		if err := ValidateRotation(d); !errors.Is(err, ErrUnsupportedRotation) {
			t.Errorf("ValidateRotation(%g) = %v, want ErrUnsupportedRotation", d, err)
		}
	}
}

func TestTiles(t *testing.T) {
	var pts []Point
	for p := range Tiles(600, 800, 150) {
		pts = append(pts, p)
	}
	if len(pts) != 24 {
		t.Fatalf("got %d tiles, want 24", len(pts))
	}
	if pts[0] != (Point{75, 75}) {
		t.Errorf("first tile = %v, want (75, 75)", pts[0])
	}
	if last := pts[len(pts)-1]; last != (Point{525, 825}) {
		t.Errorf("last tile = %v", last)
	}
	for i := 1; i < len(pts); i++ {
		dx, dy := pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y
		if !(dx == 150 && dy == 0) && !(dy == 150) {
			t.Errorf("tile %d not on the grid: step (%g, %g)", i, dx, dy)
		}
	}
}

func TestTiles_EarlyStop(t *testing.T) {
	n := 0
	for range Tiles(600, 800, 150) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d tiles after break", n)
	}
}

func TestValidateSpacing(t *testing.T) {
	if err := ValidateSpacing(MinTileSpacing); err != nil {
		t.Errorf("ValidateSpacing(min) = %v", err)
	}
	for _, s := range []float64{0, -10, 19.9} {
		if err := ValidateSpacing(s); !errors.Is(err, ErrTilingSpacingTooSmall) {
			t.Errorf("ValidateSpacing(%g) = %v", s, err)
		}
	}
	if cols, rows := TileCount(600, 800, 0); cols != 0 || rows != 0 {
		t.Errorf("TileCount with zero spacing = %d, %d", cols, rows)
	}
}
