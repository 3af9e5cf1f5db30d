package overscan

import (
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

const (
	// minPatternLength is the shortest overscan profile analysed for a pattern.
	minPatternLength = 8

	// patternSNR is how far the peak bin magnitude must exceed the median
	// non-DC bin magnitude to count as a pattern rather than noise.
	patternSNR = 5.0
)

// Pattern describes the sinusoidal readout pattern removed from one
// amplifier. Frequency is in cycles per pixel along the readout axis.
type Pattern struct {
	Amplifier int
	Frequency float64
	Amplitude float64
	Phase     float64
}

// RemovePattern finds the dominant periodic signal in every amplifier's
// overscan profile and subtracts it from that amplifier's data and
// overscan pixels in place. Amplifiers whose profile is shorter than
// eight pixels, or whose strongest frequency does not stand out of the
// noise, are left untouched.
func RemovePattern(img *ccd.Image, geom Geometry) ([]Pattern, error) {
	if len(geom.OscanSec) == 0 {
		return nil, ccd.Errorf(ccd.ErrUnsupportedMethod, "pattern removal requires overscan sections")
	}

	if len(geom.OscanSec) != len(geom.DataSec) {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "%d overscan sections for %d data sections",
			len(geom.OscanSec), len(geom.DataSec))
	}

	var found []Pattern

	for i, oscan := range geom.OscanSec {
		data := geom.DataSec[i]
		axis := ReadoutAxis(data, oscan)

		profile, err := Profile(img, oscan, axis)
		if err != nil {
			return nil, err
		}

		freq, amp, phase, ok, err := dominantMode(profile)
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		start := oscan.Rows.Start
		if axis == 1 {
			start = oscan.Cols.Start
		}

		model := func(pos int) float64 {
			return amp * math.Cos(2*math.Pi*freq*float64(pos-start)+phase)
		}

		for _, sec := range [...]struct{ r0, r1, c0, c1 int }{
			{data.Rows.Start, data.Rows.Stop, data.Cols.Start, data.Cols.Stop},
			{oscan.Rows.Start, oscan.Rows.Stop, oscan.Cols.Start, oscan.Cols.Stop},
		} {
			for r := sec.r0; r < sec.r1; r++ {
				row := img.Row(r)
				for c := sec.c0; c < sec.c1; c++ {
					if axis == 0 {
						row[c] -= model(r)
					} else {
						row[c] -= model(c)
					}
				}
			}
		}

		found = append(found, Pattern{Amplifier: i + 1, Frequency: freq, Amplitude: amp, Phase: phase})
	}

	return found, nil
}

// dominantMode returns the strongest non-DC Fourier component of the
// mean-subtracted profile, using the largest power-of-two prefix. ok is
// false when the peak is below patternSNR times the median bin magnitude.
func dominantMode(profile []float64) (freq, amp, phase float64, ok bool, err error) {
	n := 1
	for n*2 <= len(profile) {
		n *= 2
	}

	if n < minPatternLength {
		return 0, 0, 0, false, nil
	}

	samples := profile[:n]
	mean := stat.Mean(samples, nil)

	in := make([]complex128, n)
	for i, v := range samples {
		in[i] = complex(v-mean, 0)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0, 0, 0, false, err
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return 0, 0, 0, false, err
	}

	mags := make([]float64, 0, n/2-1)
	peak, peakMag := 0, 0.0

	for k := 1; k < n/2; k++ {
		m := cmplx.Abs(out[k])
		mags = append(mags, m)

		if m > peakMag {
			peak, peakMag = k, m
		}
	}

	if peak == 0 || peakMag == 0 {
		return 0, 0, 0, false, nil
	}

	floor, err := stats.Median(mags)
	if err != nil {
		return 0, 0, 0, false, err
	}

	if peakMag <= patternSNR*floor {
		return 0, 0, 0, false, nil
	}

	return float64(peak) / float64(n), 2 * peakMag / float64(n), cmplx.Phase(out[peak]), true, nil
}
