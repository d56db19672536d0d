package compose

import (
	"errors"
	"fmt"
	"math"
	"time"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/pdfstamp/fonts"
	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/render"
	"github.com/digitorus/pdfstamp/internal/writer"
	"github.com/digitorus/pdfstamp/logging"
	"github.com/sirupsen/logrus"
)

// originalName is the XObject name of the original page in below mode.
const originalName = "Orig"

// italicSkew is the horizontal shear used to slant embedded fonts that
// have no italic face.
const italicSkew = 0.21

// Compositor rewrites pages of a document through an incremental update.
// Fonts, images and graphics states are written once and shared by all
// pages.
type Compositor struct {
	w        *writer.Incremental
	reader   *pdflib.Reader
	ser      *pdf.Serializer
	snapshot *pdf.Snapshot
	pages    int
	date     time.Time

	fonts   map[string]uint32
	images  map[*images.Normalized]uint32
	gstates map[float64]uint32
}

// New returns a compositor writing to w. snapshot must have been captured
// from w's reader before any page was modified; it may be nil when no
// overlay is drawn below the page content.
func New(w *writer.Incremental, snapshot *pdf.Snapshot) (*Compositor, error) {
	if w == nil || w.Reader() == nil {
		return nil, errors.New("compose: no document writer")
	}
	r := w.Reader()
	return &Compositor{
		w:        w,
		reader:   r,
		ser:      pdf.NewSerializer(r),
		snapshot: snapshot,
		pages:    r.NumPage(),
		date:     time.Now(),
		fonts:    make(map[string]uint32),
		images:   make(map[*images.Normalized]uint32),
		gstates:  make(map[float64]uint32),
	}, nil
}

// SetDate sets the date substituted for {{Date}}.
func (c *Compositor) SetDate(t time.Time) { c.date = t }

// Apply draws overlays on page and writes the updated page object. When any
// overlay is drawn below, the original page becomes a Form XObject drawn on
// top of the below overlays and underneath the above ones.
func (c *Compositor) Apply(page pdf.Page, overlays []Overlay) error {
	for i := range overlays {
		if err := overlays[i].Validate(); err != nil {
			return err
		}
	}
	g, err := page.Geometry()
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Number, err)
	}

	var above, below []*Overlay
	for i := range overlays {
		switch overlays[i].ZOrder {
		case Above:
			above = append(above, &overlays[i])
		case Below:
			below = append(below, &overlays[i])
		}
	}

	if len(below) == 0 {
		return c.applyAbove(page, g, above)
	}
	return c.applyBelow(page, g, below, above)
}

func (c *Compositor) applyAbove(page pdf.Page, g geometry.Page, above []*Overlay) error {
	taken, err := pdf.ResourceNames(page.Resources)
	if err != nil {
		return err
	}
	res := render.NewResources(taken)
	ops, err := c.drawAll(res, page, g, above)
	if err != nil {
		return err
	}

	refs, err := page.ContentRefs()
	if err != nil {
		return err
	}
	open, err := render.RegisterContent(c.w, []byte("q\n"))
	if err != nil {
		return err
	}
	overlay, err := render.RegisterContent(c.w, append([]byte("Q\n"), ops...))
	if err != nil {
		return err
	}
	contents := []writer.Ref{{ID: open}}
	contents = append(contents, refs...)
	contents = append(contents, writer.Ref{ID: overlay})

	resources, err := res.Merge(c.ser, page.Resources)
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Number, err)
	}
	return c.updatePage(page, contents, resources)
}

func (c *Compositor) applyBelow(page pdf.Page, g geometry.Page, below, above []*Overlay) error {
	if !c.snapshot.Belongs(c.reader) {
		return ErrMissingOriginalSnapshot
	}
	snap, ok := c.snapshot.Page(page.Number)
	if !ok {
		return fmt.Errorf("%w: page %d not captured", ErrMissingOriginalSnapshot, page.Number)
	}

	form, err := render.RegisterForm(c.w, snap.MediaBox, snap.Resources, snap.Content)
	if err != nil {
		return err
	}

	res := render.NewResources(map[string]bool{originalName: true})
	res.Set(render.CategoryXObject, originalName, writer.Ref{ID: form})

	back, err := c.drawAll(res, page, g, below)
	if err != nil {
		return err
	}
	front, err := c.drawAll(res, page, g, above)
	if err != nil {
		return err
	}

	var ops render.Content
	ops.Raw(back)
	ops.Save().Draw(originalName).Restore()
	ops.Raw(front)
	content, err := render.RegisterContent(c.w, ops.Bytes())
	if err != nil {
		return err
	}
	return c.updatePage(page, []writer.Ref{{ID: content}}, res.Dict())
}

// updatePage writes page with new contents and resources, keeping all other
// entries. Inherited attributes are made explicit because the resources
// no longer match the page tree node they were inherited from.
func (c *Compositor) updatePage(page pdf.Page, contents []writer.Ref, resources []byte) error {
	entries, err := c.ser.Entries(page.V, "Contents", "Resources", "MediaBox", "CropBox", "Rotate")
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Number, err)
	}

	list := []byte("[")
	for i, ref := range contents {
		if i > 0 {
			list = append(list, ' ')
		}
		list = append(list, ref.String()...)
	}
	list = append(list, ']')

	entries = append(entries,
		pdf.Entry{Key: "MediaBox", Value: box(page.MediaBox)},
		pdf.Entry{Key: "Contents", Value: list},
		pdf.Entry{Key: "Resources", Value: resources},
	)
	if page.CropBox != page.MediaBox {
		entries = append(entries, pdf.Entry{Key: "CropBox", Value: box(page.CropBox)})
	}
	if page.Rotate != 0 {
		entries = append(entries, pdf.Entry{Key: "Rotate", Value: []byte(fmt.Sprintf("%d", page.Rotate))})
	}

	if err := c.w.UpdateObject(page.Ref, pdf.Dict(entries)); err != nil {
		return fmt.Errorf("page %d: %w", page.Number, err)
	}
	return nil
}

func box(b [4]float64) []byte {
	return []byte(fmt.Sprintf("[%s %s %s %s]", pdf.Number(b[0]), pdf.Number(b[1]), pdf.Number(b[2]), pdf.Number(b[3])))
}

// drawAll returns the operators for overlays, drawn in visual page
// coordinates and mapped to the page's user space.
func (c *Compositor) drawAll(res *render.Resources, page pdf.Page, g geometry.Page, overlays []*Overlay) ([]byte, error) {
	if len(overlays) == 0 {
		return nil, nil
	}
	var ops render.Content
	ops.Save().Transform(g.VisualToUser())
	for _, o := range overlays {
		logging.Logger().WithFields(logrus.Fields{
			"page":   page.Number,
			"kind":   o.Kind.String(),
			"zorder": o.ZOrder.String(),
		}).Debug("drawing overlay")
		if err := c.draw(&ops, res, page, g, o); err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
	}
	ops.Restore()
	return ops.Bytes(), nil
}

// element is an overlay prepared for one page: its unrotated box size and
// a function drawing it with its lower-left corner at the origin.
type element struct {
	width, height float64
	paint         func(ops *render.Content)
	decorate      func(ops *render.Content, origin geometry.Point)
}

func (c *Compositor) draw(ops *render.Content, res *render.Resources, page pdf.Page, g geometry.Page, o *Overlay) error {
	var el element
	var err error
	switch o.Kind {
	case KindText:
		el, err = c.textElement(res, page, o)
	case KindImage:
		el, err = c.imageElement(res, g, o)
	default:
		err = fmt.Errorf("unsupported overlay kind %v", o.Kind)
	}
	if err != nil {
		return err
	}

	ops.Save()
	if o.Opacity < 1 {
		gs, err := c.gstate(o.Opacity)
		if err != nil {
			return err
		}
		ops.GState(res.Add(render.CategoryExtGState, writer.Ref{ID: gs}))
	}

	drawAt := func(origin geometry.Point) {
		ops.Save().Transform(geometry.Rotation(o.Rotation).Translate(origin.X, origin.Y))
		el.paint(ops)
		ops.Restore()
		if el.decorate != nil {
			el.decorate(ops, origin)
		}
	}

	if o.Tiling != nil {
		for center := range geometry.Tiles(g.Width, g.Height, o.Tiling.Spacing) {
			drawAt(geometry.CenteredOrigin(center, el.width, el.height, o.Rotation))
		}
	} else {
		placement := o.placement()
		ll, err := geometry.Resolve(g.Width, g.Height, el.width, el.height, placement, geometry.DefaultMargin)
		if err != nil {
			return err
		}
		origin := ll
		if _, explicit := placement.(geometry.Explicit); !explicit {
			origin = geometry.RotatedOrigin(ll, el.width, el.height, o.Rotation)
		}
		drawAt(origin)
	}
	ops.Restore()
	return nil
}

func (c *Compositor) textElement(res *render.Resources, page pdf.Page, o *Overlay) (element, error) {
	run := o.Text
	text := render.ExpandTemplateVariables(run.Content, render.TemplateContext{
		Page:  page.Number,
		Pages: c.pages,
		Date:  c.date,
	})
	if text == "" {
		return element{}, ErrEmptyTextRun
	}

	face, synthBold, synthItalic := run.Font.Variant(run.Bold, run.Italic)
	id, err := c.font(face)
	if err != nil {
		return element{}, err
	}
	name := res.Add(render.CategoryFont, writer.Ref{ID: id})
	size := run.size()
	width := face.StringWidth(text, size)
	encoded := fonts.Encode(text)

	el := element{width: width, height: size}
	el.paint = func(ops *render.Content) {
		ops.FillColor(o.Color)
		if synthBold {
			ops.StrokeColor(o.Color).LineWidth(size * 0.03)
		}
		ops.BeginText().Font(name, size)
		if synthBold {
			ops.TextRenderMode(render.RenderFillStroke)
		}
		tm := geometry.Identity
		if synthItalic {
			tm[2] = italicSkew
		}
		ops.TextMatrix(tm).ShowText(encoded).EndText()
	}
	if run.Underline {
		el.decorate = func(ops *render.Content, origin geometry.Point) {
			d := geometry.Underline(origin, width, size, o.Rotation)
			ops.Save().
				Transform(geometry.Rotation(d.Rotation).Translate(d.Origin.X, d.Origin.Y)).
				FillColor(o.Color).
				FillRect(d.Rect()).
				Restore()
		}
	}
	return el, nil
}

func (c *Compositor) imageElement(res *render.Resources, g geometry.Page, o *Overlay) (element, error) {
	img := o.Image
	w, h := float64(img.Width), float64(img.Height)
	if o.Width > 0 {
		w, h = o.Width, o.Width*h/w
	}

	maxW := math.Max(g.Width-2*geometry.DefaultMargin, g.Width/2)
	maxH := math.Max(g.Height-2*geometry.DefaultMargin, g.Height/2)
	fit, err := geometry.Fit(w, h, maxW, maxH, false)
	if err != nil {
		return element{}, err
	}

	id, err := c.image(img)
	if err != nil {
		return element{}, err
	}
	name := res.Add(render.CategoryXObject, writer.Ref{ID: id})
	return element{
		width:  fit.Width,
		height: fit.Height,
		paint: func(ops *render.Content) {
			ops.Transform(geometry.Matrix{fit.Width, 0, 0, fit.Height, 0, 0}).Draw(name)
		},
	}, nil
}

func (c *Compositor) font(f *fonts.Font) (uint32, error) {
	key := f.BaseFont() + "/" + f.Hash
	if id, ok := c.fonts[key]; ok {
		return id, nil
	}
	id, err := render.RegisterFont(c.w, f)
	if err != nil {
		return 0, fmt.Errorf("failed to write font %s: %w", f.Name, err)
	}
	c.fonts[key] = id
	return id, nil
}

func (c *Compositor) image(img *images.Normalized) (uint32, error) {
	if id, ok := c.images[img]; ok {
		return id, nil
	}
	id, err := render.RegisterImage(c.w, img)
	if err != nil {
		return 0, fmt.Errorf("failed to write image %s: %w", img.Name, err)
	}
	c.images[img] = id
	return id, nil
}

func (c *Compositor) gstate(opacity float64) (uint32, error) {
	if id, ok := c.gstates[opacity]; ok {
		return id, nil
	}
	id, err := render.RegisterGState(c.w, opacity)
	if err != nil {
		return 0, err
	}
	c.gstates[opacity] = id
	return id, nil
}
