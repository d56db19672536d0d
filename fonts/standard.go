package fonts

// Advance widths of the printable ASCII range (32-126) from the Adobe core
// font metrics, in 1/1000 em. Oblique faces share the upright widths.
var (
	helveticaWidths = [95]int{
		278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
		1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
		333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
		556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
	}
	helveticaBoldWidths = [95]int{
		278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
		975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
		333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
		611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
	}
	timesWidths = [95]int{
		250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
		921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
		556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
		333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
		500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
	}
	timesBoldWidths = [95]int{
		250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
		930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
		611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
		333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
		556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
	}
)

var standardMetricsTable = map[StandardType]struct {
	widths   *[95]int
	fallback int
	ascent   int
	descent  int
	bbox     [4]int
}{
	Helvetica:     {&helveticaWidths, 556, 718, -207, [4]int{-166, -225, 1000, 931}},
	HelveticaBold: {&helveticaBoldWidths, 556, 718, -207, [4]int{-170, -228, 1003, 962}},
	TimesRoman:    {&timesWidths, 500, 683, -217, [4]int{-168, -218, 1000, 898}},
	TimesBold:     {&timesBoldWidths, 500, 683, -217, [4]int{-168, -218, 1000, 935}},
	Courier:       {nil, 600, 629, -157, [4]int{-23, -250, 715, 805}},
}

// standardMetrics builds the metrics of a standard font.
func standardMetrics(ft StandardType) *Metrics {
	// Italic faces share the widths of their upright face; Times italic is
	// close enough to Roman for placement.
	key := ft
	switch ft {
	case HelveticaOblique:
		key = Helvetica
	case HelveticaBoldOblique:
		key = HelveticaBold
	case TimesItalic:
		key = TimesRoman
	case TimesBoldItalic:
		key = TimesBold
	case CourierBold, CourierOblique, CourierBoldOblique:
		key = Courier
	}
	t := standardMetricsTable[key]

	m := &Metrics{
		UnitsPerEm:     1000,
		GlyphWidths:    make(map[rune]int, 95),
		Ascent:         t.ascent,
		Descent:        t.descent,
		CapHeight:      t.ascent,
		BBox:           t.bbox,
		PostScriptName: standardNames[ft],
		DefaultWidth:   t.fallback,
	}
	if t.widths != nil {
		for i, w := range t.widths {
			m.GlyphWidths[rune(32+i)] = w
		}
	}
	return m
}
