// Package qa renders quality-assessment plots of processed images.
package qa

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// ErrNoData is returned when an image has no finite pixel to plot.
var ErrNoData = errors.New("qa: no finite pixels")

// Histogram writes a histogram of the finite pixel values of img to path.
// The image format follows the file extension (png, svg, pdf, ...).
func Histogram(img *ccd.Image, title, path string, bins int) error {
	if img == nil {
		return ErrNoData
	}

	if bins < 1 {
		bins = 50
	}

	vals := make(plotter.Values, 0, img.Len())
	for _, v := range img.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}

	if len(vals) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "counts"
	p.Y.Label.Text = "pixels"

	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return fmt.Errorf("qa: histogram: %w", err)
	}

	p.Add(h)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// ColumnProfile writes the median of every column of img against the
// column index to path.
func ColumnProfile(img *ccd.Image, title, path string) error {
	if img == nil || img.Len() == 0 {
		return ErrNoData
	}

	pts := make(plotter.XYs, img.Cols)
	col := make([]float64, img.Rows)

	for c := range img.Cols {
		for r := range img.Rows {
			col[r] = img.At(r, c)
		}

		m, err := stats.Median(col)
		if err != nil {
			return err
		}

		pts[c].X, pts[c].Y = float64(c), m
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "median counts"

	if err := plotutil.AddLines(p, "median", pts); err != nil {
		return fmt.Errorf("qa: profile: %w", err)
	}

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}
