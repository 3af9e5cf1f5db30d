package pixel

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// ErrNoPixels is returned when no usable pixel remains after masking.
var ErrNoPixels = errors.New("pixel: no usable pixels")

// Stats summarises the usable pixels of an image.
type Stats struct {
	Count     int // usable pixels
	Masked    int // pixels excluded by the mask
	NonFinite int // NaN or Inf pixels outside the mask
	Mean      float64
	Variance  float64 // population variance
	Std       float64
	Skewness  float64
	Kurtosis  float64 // excess kurtosis
	Min       float64
	MinRow    int
	MinCol    int
	Max       float64
	MaxRow    int
	MaxCol    int
	Median    float64
	MAD       float64 // median absolute deviation, unscaled
}

// RobustStd returns the MAD scaled to a Gaussian standard deviation.
func (s Stats) RobustStd() float64 { return 1.4826 * s.MAD }

// String formats the headline values on one line.
func (s Stats) String() string {
	return fmt.Sprintf("n=%d mean=%.4g std=%.4g median=%.4g min=%.4g max=%.4g",
		s.Count, s.Mean, s.Std, s.Median, s.Min, s.Max)
}

// moments is a Welford accumulator for the first four central moments.
type moments struct {
	n          int
	mean       float64
	m2, m3, m4 float64
}

func (a *moments) add(x float64) {
	a.n++
	ni := float64(a.n)
	delta := x - a.mean
	deltaN := delta / ni
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * float64(a.n-1)

	// m4 before m3 before m2.
	a.m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*a.m2 - 4*deltaN*a.m3
	a.m3 += term1*deltaN*(float64(a.n-1)-1) - 3*deltaN*a.m2
	a.m2 += term1
	a.mean += deltaN
}

func (a *moments) result() (mean, variance, skewness, kurtosis float64) {
	if a.n == 0 {
		return 0, 0, 0, 0
	}

	nf := float64(a.n)

	variance = a.m2 / nf
	if variance > 0 {
		skewness = (a.m3 / nf) / (variance * math.Sqrt(variance))
		kurtosis = (a.m4/nf)/(variance*variance) - 3
	}

	return a.mean, variance, skewness, kurtosis
}

// Values returns the usable pixels of img in row-major order. A nil mask
// keeps every finite pixel.
func Values(img *ccd.Image, mask *ccd.Mask) ([]float64, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ccd.ErrShapeMismatch)
	}

	if mask != nil && !mask.Matches(img) {
		return nil, fmt.Errorf("%w: mask does not match %s image", ccd.ErrShapeMismatch, img.ShapeString())
	}

	out := make([]float64, 0, img.Len())
	for i, v := range img.Data {
		if mask != nil && mask.Data[i] {
			continue
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		out = append(out, v)
	}

	return out, nil
}

// Calculate computes the statistics of img ignoring pixels set in mask.
func Calculate(img *ccd.Image, mask *ccd.Mask) (Stats, error) {
	values, err := Values(img, mask)
	if err != nil {
		return Stats{}, err
	}

	if len(values) == 0 {
		return Stats{}, ErrNoPixels
	}

	var (
		s    Stats
		acc  moments
		seen bool
	)

	for i, v := range img.Data {
		if mask != nil && mask.Data[i] {
			s.Masked++
			continue
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.NonFinite++
			continue
		}

		acc.add(v)

		r, c := i/img.Cols, i%img.Cols
		if !seen || v > s.Max {
			s.Max, s.MaxRow, s.MaxCol = v, r, c
		}

		if !seen || v < s.Min {
			s.Min, s.MinRow, s.MinCol = v, r, c
		}

		seen = true
	}

	s.Count = acc.n
	s.Mean, s.Variance, s.Skewness, s.Kurtosis = acc.result()
	s.Std = math.Sqrt(s.Variance)

	if s.Median, err = stats.Median(values); err != nil {
		return Stats{}, fmt.Errorf("pixel: median: %w", err)
	}

	if s.MAD, err = stats.MedianAbsoluteDeviationPopulation(values); err != nil {
		return Stats{}, fmt.Errorf("pixel: mad: %w", err)
	}

	return s, nil
}
