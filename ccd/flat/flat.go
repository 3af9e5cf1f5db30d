package flat

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Field returns stack divided by pixelFlat and, when non-nil, by illum.
// Pixels flagged in bpm or whose combined flat is not a positive finite
// number keep their input value; they are set in the returned mask.
func Field(stack, pixelFlat *ccd.Image, bpm *ccd.Mask, illum *ccd.Image) (*ccd.Image, *ccd.Mask, error) {
	if bpm == nil {
		return nil, nil, ccd.Errorf(ccd.ErrMissingBadPixelMask, "flat fielding refuses to run without a bad-pixel mask")
	}

	if stack == nil || pixelFlat == nil {
		return nil, nil, ccd.Errorf(ccd.ErrShapeMismatch, "flat fielding needs a stack and a pixel flat")
	}

	if !stack.SameShape(pixelFlat) {
		return nil, nil, ccd.Errorf(ccd.ErrShapeMismatch, "pixel flat %s does not match stack %s",
			pixelFlat.ShapeString(), stack.ShapeString())
	}

	if !bpm.Matches(stack) {
		return nil, nil, ccd.Errorf(ccd.ErrShapeMismatch, "bad-pixel mask %dx%d does not match stack %s",
			bpm.Rows, bpm.Cols, stack.ShapeString())
	}

	flat := pixelFlat.Clone()
	if illum != nil {
		if !illum.SameShape(stack) {
			return nil, nil, ccd.Errorf(ccd.ErrShapeMismatch, "illumination flat %s does not match stack %s",
				illum.ShapeString(), stack.ShapeString())
		}

		vecmath.MulBlockInPlace(flat.Data, illum.Data)
	}

	skipped := ccd.NewMask(stack.Rows, stack.Cols)

	for i, f := range flat.Data {
		if bpm.Data[i] || !(f > 0) || math.IsInf(f, 0) {
			flat.Data[i] = 1
			skipped.Data[i] = true
			continue
		}

		flat.Data[i] = 1 / f
	}

	out := stack.Clone()
	vecmath.MulBlockInPlace(out.Data, flat.Data)

	return out, skipped, nil
}
