package noise

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// ReadNoise2 returns the read-noise-squared map of a detector. Pixels
// outside every data section are zero. exptime must be a finite,
// non-negative number of seconds.
func ReadNoise2(amp *ccd.AmpMap, det ccd.Detector, exptime float64) (*ccd.Image, error) {
	if math.IsNaN(exptime) || math.IsInf(exptime, 0) || exptime < 0 {
		return nil, ccd.Errorf(ccd.ErrMissingExposureTime, "exposure time %v is not usable", exptime)
	}

	if amp == nil {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "nil amplifier map")
	}

	n := det.NumAmplifiers
	if len(det.Gain) < n || len(det.ReadNoise) < n {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "detector %d has %d gains and %d read noises for %d amplifiers",
			det.Index, len(det.Gain), len(det.ReadNoise), n)
	}

	dark := det.DarkCurrent * exptime / 3600

	perAmp := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		g := 0.5 * det.Gain[i-1]
		perAmp[i] = det.ReadNoise[i-1]*det.ReadNoise[i-1] + g*g + dark
	}

	out := ccd.NewImage(amp.Rows, amp.Cols)
	for i, a := range amp.Data {
		if a < 0 || a > n {
			return nil, ccd.Errorf(ccd.ErrShapeMismatch, "amplifier %d outside 1..%d", a, n)
		}

		out.Data[i] = perAmp[a]
	}

	return out, nil
}

// RawVariance returns max(stack, 0) + rn2.
func RawVariance(stack, rn2 *ccd.Image) (*ccd.Image, error) {
	if stack == nil {
		return nil, ccd.Errorf(ccd.ErrNoStack, "variance needs a combined stack")
	}

	if !stack.SameShape(rn2) {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "read-noise map %s does not match stack %s",
			rn2.ShapeString(), stack.ShapeString())
	}

	out := stack.Clone()
	for i, v := range out.Data {
		if !(v > 0) {
			out.Data[i] = 0
		}
	}

	floats.Add(out.Data, rn2.Data)

	return out, nil
}
