package pdfstamp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/digitorus/pdfstamp/compose"
	"github.com/digitorus/pdfstamp/images"
	"github.com/digitorus/pdfstamp/internal/pdf"
	"github.com/digitorus/pdfstamp/internal/writer"
	"github.com/digitorus/pdfstamp/logging"
	"github.com/sirupsen/logrus"
)

// Write applies all staged watermarks and writes the resulting document.
// It is WriteContext with a background context.
func (d *Document) Write(output io.Writer) (*Result, error) {
	return d.WriteContext(context.Background(), output)
}

// WriteContext applies all staged watermarks to the selected pages and
// writes the original document followed by an incremental update to output.
//
// The run is aborted by the first error or when ctx is done; ctx is checked
// between pages. Nothing is written to output unless the whole run
// succeeds. A document can be written once.
func (d *Document) WriteContext(ctx context.Context, output io.Writer) (*Result, error) {
	if !d.state.CompareAndSwap(int32(Idle), int32(Snapshot)) {
		return nil, fmt.Errorf("%w: state %v", ErrAlreadyWritten, d.State())
	}
	log := logging.Logger().WithFields(logrus.Fields{
		"watermarks": len(d.watermarks),
		"pages":      d.pages.String(),
	})
	log.Info("starting watermark run")

	result, err := d.write(ctx, output, log)
	if err != nil {
		d.setState(Failed)
		log.WithError(err).Error("watermark run failed")
		return nil, err
	}
	d.setState(Done)
	log.WithField("processed", result.Processed).Info("watermark run finished")
	return result, nil
}

func (d *Document) write(ctx context.Context, output io.Writer, log *logrus.Entry) (*Result, error) {
	if d.rdr == nil {
		return nil, fmt.Errorf("no document")
	}
	if len(d.watermarks) == 0 {
		return nil, ErrNoWatermark
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	overlays, assets, err := d.overlays()
	if err != nil {
		return nil, err
	}

	pages, err := pdf.Pages(d.rdr)
	if err != nil {
		return nil, err
	}
	from, to, err := d.pages.bounds(len(pages))
	if err != nil {
		return nil, err
	}

	// The snapshot must be taken before the first page is modified.
	snapshot, err := pdf.Capture(d.rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to capture document: %w", err)
	}

	w, err := writer.NewIncremental(d.reader, d.size, d.rdr)
	if err != nil {
		return nil, err
	}
	w.SetCompressLevel(d.compressLevel)

	c, err := compose.New(w, snapshot)
	if err != nil {
		return nil, err
	}
	date := d.date
	if date.IsZero() {
		date = time.Now()
	}
	c.SetDate(date)

	result := &Result{Assets: assets}
	for _, page := range pages[from-1 : to] {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aborted before page %d: %w", page.Number, err)
		}
		d.setState(Processing)
		d.current.Store(int32(page.Number))

		g, err := page.Geometry()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		log.WithFields(logrus.Fields{
			"page":   page.Number,
			"width":  g.Width,
			"height": g.Height,
			"rotate": g.Rotate,
		}).Debug("processing page")

		if err := c.Apply(page, overlays); err != nil {
			return nil, err
		}
		result.Pages = append(result.Pages, g)
		result.Processed++
	}

	if err := w.Finish(); err != nil {
		return nil, fmt.Errorf("failed to finish update: %w", err)
	}
	// Stage the output so that a failure never leaves a partial document.
	var staged bytes.Buffer
	if _, err := w.WriteTo(&staged); err != nil {
		return nil, err
	}
	if _, err := output.Write(staged.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return result, nil
}

// overlays converts the staged watermarks and validates them before any
// page is touched. Images used by several watermarks are normalized once.
func (d *Document) overlays() ([]compose.Overlay, int, error) {
	normalized := make(map[*Image]*images.Normalized)
	overlays := make([]compose.Overlay, 0, len(d.watermarks))
	for i, b := range d.watermarks {
		var img *images.Normalized
		if b.kind == compose.KindImage && b.image != nil {
			var ok bool
			if img, ok = normalized[b.image]; !ok {
				var err error
				if img, err = images.Normalize(b.image, 1); err != nil {
					return nil, 0, fmt.Errorf("watermark %d: %w", i+1, err)
				}
				normalized[b.image] = img
			}
		}
		o := b.overlay(img)
		if err := o.Validate(); err != nil {
			return nil, 0, fmt.Errorf("watermark %d: %w", i+1, err)
		}
		overlays = append(overlays, o)
	}
	return overlays, len(normalized), nil
}
