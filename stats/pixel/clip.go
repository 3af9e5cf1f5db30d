package pixel

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// ClipResult is the outcome of [Clipped].
type ClipResult struct {
	Mean       float64
	Median     float64
	Std        float64
	Kept       int
	Rejected   int
	Iterations int
}

// Clipped estimates location and scale with iterative sigma clipping around
// the median. Values outside [median-low*std, median+high*std] are dropped
// until nothing changes or maxIter passes have run.
func Clipped(img *ccd.Image, mask *ccd.Mask, low, high float64, maxIter int) (ClipResult, error) {
	if low <= 0 || high <= 0 || maxIter < 1 {
		return ClipResult{}, fmt.Errorf("pixel: invalid clip bounds low=%g high=%g iter=%d", low, high, maxIter)
	}

	values, err := Values(img, mask)
	if err != nil {
		return ClipResult{}, err
	}

	if len(values) == 0 {
		return ClipResult{}, ErrNoPixels
	}

	total := len(values)

	var res ClipResult

	for res.Iterations < maxIter {
		med, err := stats.Median(values)
		if err != nil {
			return ClipResult{}, fmt.Errorf("pixel: median: %w", err)
		}

		std, err := stats.StandardDeviationPopulation(values)
		if err != nil {
			return ClipResult{}, fmt.Errorf("pixel: std: %w", err)
		}

		res.Iterations++

		if std == 0 {
			break
		}

		lo, hi := med-low*std, med+high*std
		kept := values[:0:0]

		for _, v := range values {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}

		if len(kept) == len(values) || len(kept) == 0 {
			break
		}

		values = kept
	}

	var acc moments
	for _, v := range values {
		acc.add(v)
	}

	mean, variance, _, _ := acc.result()

	res.Mean = mean
	res.Std = math.Sqrt(variance)
	res.Kept = len(values)
	res.Rejected = total - len(values)

	if res.Median, err = stats.Median(values); err != nil {
		return ClipResult{}, fmt.Errorf("pixel: median: %w", err)
	}

	return res, nil
}
