package gain

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Map expands per-amplifier gains to a per-pixel multiplier. Pixels of
// amplifier i get gains[i-1]; pixels outside any data section get 1.
func Map(amp *ccd.AmpMap, gains []float64) (*ccd.Image, error) {
	if amp == nil {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "gain: nil amplifier map")
	}

	out := ccd.NewImage(amp.Rows, amp.Cols)

	for i, a := range amp.Data {
		switch {
		case a == 0:
			out.Data[i] = 1
		case a > len(gains):
			return nil, ccd.Errorf(ccd.ErrShapeMismatch, "gain: amplifier %d has no gain (%d given)", a, len(gains))
		default:
			out.Data[i] = gains[a-1]
		}
	}

	return out, nil
}

// Apply multiplies img in place by the gain map built from amp and gains.
func Apply(img *ccd.Image, amp *ccd.AmpMap, gains []float64) error {
	if img == nil {
		return ccd.Errorf(ccd.ErrShapeMismatch, "gain: nil image")
	}

	if amp == nil || !amp.Matches(img) {
		return ccd.Errorf(ccd.ErrShapeMismatch, "gain: amplifier map does not match image %s", img.ShapeString())
	}

	g, err := Map(amp, gains)
	if err != nil {
		return err
	}

	vecmath.MulBlockInPlace(img.Data, g.Data)

	return nil
}
