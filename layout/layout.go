// Package layout packs raster assets into 1-, 2- or 4-up grid pages.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/digitorus/pdfstamp/geometry"
)

// ErrInvalidLayout is returned for a Spec that cannot produce pages.
var ErrInvalidLayout = errors.New("invalid layout")

// Named page sizes in points, portrait.
var PageSizes = map[string][2]float64{
	"a3":     {841.89, 1190.55},
	"a4":     {595.28, 841.89},
	"a5":     {419.53, 595.28},
	"letter": {612, 792},
	"legal":  {612, 1008},
}

// PageSize returns the portrait size of a named page, swapped when
// landscape is set.
func PageSize(name string, landscape bool) (w, h float64, err error) {
	s, ok := PageSizes[strings.ToLower(name)]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown page size %q", ErrInvalidLayout, name)
	}
	w, h = s[0], s[1]
	if landscape {
		w, h = h, w
	}
	return w, h, nil
}

// Spec controls one grid assembly run. It is not modified by Pack.
type Spec struct {
	// CellsPerPage is 1, 2 or 4.
	CellsPerPage int
	PageWidth    float64
	PageHeight   float64
	// Quality is the re-encoding quality of normalized assets, in (0, 1].
	Quality float64
	// Padding insets every cell on all sides.
	Padding float64
	// Upscale allows assets smaller than their cell to grow.
	Upscale bool
}

// Validate reports an ErrInvalidLayout for unusable grid settings.
func (s Spec) Validate() error {
	switch s.CellsPerPage {
	case 1, 2, 4:
	default:
		return fmt.Errorf("%w: %d cells per page, want 1, 2 or 4", ErrInvalidLayout, s.CellsPerPage)
	}
	if !(s.PageWidth > 0) || !(s.PageHeight > 0) {
		return fmt.Errorf("%w: page size %gx%g", ErrInvalidLayout, s.PageWidth, s.PageHeight)
	}
	if math.IsNaN(s.Quality) || s.Quality <= 0 || s.Quality > 1 {
		return fmt.Errorf("%w: quality %g outside (0, 1]", ErrInvalidLayout, s.Quality)
	}
	for _, c := range s.Cells() {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("%w: padding %g leaves no room in a cell", ErrInvalidLayout, s.Padding)
		}
	}
	if s.Padding < 0 {
		return fmt.Errorf("%w: negative padding %g", ErrInvalidLayout, s.Padding)
	}
	return nil
}

// Cells returns the cell rectangles of one page in reading order: the full
// page, top then bottom half, or the four quadrants starting top-left. Each
// cell is inset by Padding.
func (s Spec) Cells() []geometry.Rect {
	w, h := s.PageWidth, s.PageHeight
	var cells []geometry.Rect
	switch s.CellsPerPage {
	case 1:
		cells = []geometry.Rect{{X: 0, Y: 0, Width: w, Height: h}}
	case 2:
		cells = []geometry.Rect{
			{X: 0, Y: h / 2, Width: w, Height: h / 2},
			{X: 0, Y: 0, Width: w, Height: h / 2},
		}
	case 4:
		cells = []geometry.Rect{
			{X: 0, Y: h / 2, Width: w / 2, Height: h / 2},
			{X: w / 2, Y: h / 2, Width: w / 2, Height: h / 2},
			{X: 0, Y: 0, Width: w / 2, Height: h / 2},
			{X: w / 2, Y: 0, Width: w / 2, Height: h / 2},
		}
	}
	p := s.Padding
	for i := range cells {
		cells[i].X += p
		cells[i].Y += p
		cells[i].Width -= 2 * p
		cells[i].Height -= 2 * p
	}
	return cells
}

// Size is the visual size of an asset.
type Size struct {
	Width, Height float64
}

// Placement positions one asset on a page.
type Placement struct {
	// Asset is the index into the sizes passed to Pack.
	Asset int
	// Cell is the padded cell the asset was fitted into.
	Cell geometry.Rect
	// Box is where the asset is drawn.
	Box   geometry.Rect
	Scale float64
}

// PagePlan is the layout of one output page.
type PagePlan struct {
	Page       geometry.Page
	Placements []Placement
}

// Pack partitions assets into pages of spec.CellsPerPage and fits each asset
// centered into its cell. Page order and asset order follow the input.
func Pack(sizes []Size, spec Spec) ([]PagePlan, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cells := spec.Cells()

	var plans []PagePlan
	for start := 0; start < len(sizes); start += spec.CellsPerPage {
		end := min(start+spec.CellsPerPage, len(sizes))
		page, err := geometry.NewPage(len(plans)+1, [4]float64{0, 0, spec.PageWidth, spec.PageHeight}, 0)
		if err != nil {
			return nil, err
		}
		plan := PagePlan{Page: page, Placements: make([]Placement, 0, end-start)}
		for i := start; i < end; i++ {
			cell := cells[i-start]
			fit, err := geometry.Fit(sizes[i].Width, sizes[i].Height, cell.Width, cell.Height, spec.Upscale)
			if err != nil {
				return nil, fmt.Errorf("asset %d: %w", i, err)
			}
			plan.Placements = append(plan.Placements, Placement{
				Asset: i,
				Cell:  cell,
				Box:   fit.Box(geometry.Point{X: cell.X, Y: cell.Y}),
				Scale: fit.Scale,
			})
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
