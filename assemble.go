package pdfstamp

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/digitorus/pdfstamp/geometry"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/render"
	"github.com/digitorus/pdfstamp/internal/writer"
	"github.com/digitorus/pdfstamp/layout"
	"github.com/digitorus/pdfstamp/logging"
	"github.com/sirupsen/logrus"
)

// DefaultLayout is a one-image-per-page A4 portrait layout.
var DefaultLayout = layout.Spec{
	CellsPerPage: 1,
	PageWidth:    layout.PageSizes["a4"][0],
	PageHeight:   layout.PageSizes["a4"][1],
	Quality:      0.9,
}

// ImageDocument assembles raster images into a new document, one grid of
// 1, 2 or 4 images per page.
type ImageDocument struct {
	spec          layout.Spec
	assets        []asset
	compressLevel int
}

type asset struct {
	name string
	data []byte
}

// NewImageDocument starts an image document with the given layout.
func NewImageDocument(spec layout.Spec) *ImageDocument {
	return &ImageDocument{spec: spec, compressLevel: -1}
}

// AddImage appends an image. Images are decoded and normalized by Write.
func (d *ImageDocument) AddImage(name string, data []byte) *ImageDocument {
	d.assets = append(d.assets, asset{name: name, data: data})
	return d
}

// SetCompression configures the zlib compression level for page content.
func (d *ImageDocument) SetCompression(level int) {
	d.compressLevel = level
}

// Len returns the number of added images.
func (d *ImageDocument) Len() int {
	return len(d.assets)
}

// Write is WriteContext with a background context.
func (d *ImageDocument) Write(output io.Writer) (*Result, error) {
	return d.WriteContext(context.Background(), output)
}

// WriteContext normalizes every image for its capture orientation, packs
// them into pages and writes the new document to output. An image that
// cannot be decoded aborts the run with an *images.AssetDecodeError. ctx is
// checked between pages; nothing is written to output on failure.
func (d *ImageDocument) WriteContext(ctx context.Context, output io.Writer) (*Result, error) {
	log := logging.Logger().WithFields(logrus.Fields{
		"images": len(d.assets),
		"cells":  d.spec.CellsPerPage,
	})
	log.Info("starting image assembly")

	result, err := d.write(ctx, output, log)
	if err != nil {
		log.WithError(err).Error("image assembly failed")
		return nil, err
	}
	log.WithField("pages", result.Processed).Info("image assembly finished")
	return result, nil
}

func (d *ImageDocument) write(ctx context.Context, output io.Writer, log *logrus.Entry) (*Result, error) {
	if err := d.spec.Validate(); err != nil {
		return nil, err
	}
	if len(d.assets) == 0 {
		return nil, ErrNoImages
	}

	normalized := make([]*images.Normalized, len(d.assets))
	sizes := make([]layout.Size, len(d.assets))
	byHash := make(map[string]*images.Normalized)
	for i, a := range d.assets {
		src, err := images.New(a.name, a.data)
		if err != nil {
			return nil, err
		}
		// Identical bytes share one normalized image and one XObject.
		if n, ok := byHash[src.Hash]; ok {
			normalized[i] = n
			sizes[i] = layout.Size{Width: float64(n.Width), Height: float64(n.Height)}
			continue
		}
		n, err := images.Normalize(src, d.spec.Quality)
		if err != nil {
			return nil, err
		}
		if src.Orientation != images.Normal {
			log.WithFields(logrus.Fields{
				"image":       a.name,
				"orientation": src.Orientation.String(),
			}).Debug("corrected image orientation")
		}
		byHash[src.Hash] = n
		normalized[i] = n
		// One pixel is drawn as one point before fitting.
		sizes[i] = layout.Size{Width: float64(n.Width), Height: float64(n.Height)}
	}

	plans, err := layout.Pack(sizes, d.spec)
	if err != nil {
		return nil, err
	}

	w := writer.NewFresh()
	w.SetCompressLevel(d.compressLevel)
	catalog := w.ReserveID()
	tree := w.ReserveID()

	result := &Result{Assets: len(normalized)}
	kids := make([]uint32, 0, len(plans))
	xobjects := make(map[*images.Normalized]uint32)
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aborted before page %d: %w", plan.Page.Index, err)
		}
		id, err := d.writePage(w, tree, plan, normalized, xobjects)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", plan.Page.Index, err)
		}
		log.WithFields(logrus.Fields{
			"page":   plan.Page.Index,
			"images": len(plan.Placements),
		}).Debug("wrote page")
		kids = append(kids, id)
		result.Pages = append(result.Pages, plan.Page)
		result.Processed++
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<< /Type /Pages /Count %d /Kids [", len(kids))
	for i, k := range kids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(writer.Ref{ID: k}.String())
	}
	b.WriteString("] >>")
	if err := w.WriteObject(tree, b.Bytes()); err != nil {
		return nil, err
	}
	if err := w.WriteObject(catalog, []byte(fmt.Sprintf("<< /Type /Catalog /Pages %s >>", writer.Ref{ID: tree}))); err != nil {
		return nil, err
	}
	w.SetRoot(catalog)

	info, err := w.AddObject([]byte("<< /Producer (pdfstamp) >>"))
	if err != nil {
		return nil, err
	}
	w.SetInfo(info)

	var staged bytes.Buffer
	if _, err := w.WriteTo(&staged); err != nil {
		return nil, fmt.Errorf("failed to finish document: %w", err)
	}
	if _, err := output.Write(staged.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return result, nil
}

// writePage writes the images of one page plan, each drawn into its box.
// Images already in xobjects are referenced instead of written again.
func (d *ImageDocument) writePage(w *writer.Fresh, tree uint32, plan layout.PagePlan, normalized []*images.Normalized, xobjects map[*images.Normalized]uint32) (uint32, error) {
	res := render.NewResources(nil)
	var ops render.Content
	for _, p := range plan.Placements {
		img := normalized[p.Asset]
		id, ok := xobjects[img]
		if !ok {
			var err error
			if id, err = render.RegisterImage(w, img); err != nil {
				return 0, err
			}
			xobjects[img] = id
		}
		name := res.Add(render.CategoryXObject, writer.Ref{ID: id})
		ops.Save().
			Transform(geometry.Matrix{p.Box.Width, 0, 0, p.Box.Height, p.Box.X, p.Box.Y}).
			Draw(name).
			Restore()
	}
	content, err := render.RegisterContent(w, ops.Bytes())
	if err != nil {
		return 0, err
	}

	g := plan.Page
	box := fmt.Sprintf("[0 0 %s %s]", pdf.Number(g.Width), pdf.Number(g.Height))
	page := pdf.Dict([]pdf.Entry{
		{Key: "Type", Value: []byte("/Page")},
		{Key: "Parent", Value: []byte(writer.Ref{ID: tree}.String())},
		{Key: "MediaBox", Value: []byte(box)},
		{Key: "Resources", Value: res.Dict()},
		{Key: "Contents", Value: []byte(writer.Ref{ID: content}.String())},
	})
	return w.AddObject(page)
}
