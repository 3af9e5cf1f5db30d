package process

import (
	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/overscan"
)

// Request selects the optional stages of Process.
type Request struct {
	// Bias is the bias source; nil or overscan.None skips subtraction.
	Bias overscan.Source

	ApplyGain bool

	// PixelFlat enables flat fielding; BPM is then required.
	PixelFlat *ccd.Image
	BPM       *ccd.Mask
	IllumFlat *ccd.Image

	// Overwrite reprocesses a run that already holds a stack.
	Overwrite bool
}

// Process drives the run from loading to the final stack: load if
// needed, optional pattern removal, bias subtraction (or a trim when no
// bias is given), combination unless there is a single frame, then the
// optional gain and flat-field corrections.
//
// A run that already holds a stack is left untouched, with a warning,
// unless req.Overwrite is set. On failure no stack is kept.
func (r *Run) Process(req Request) (*Stack, error) {
	if r.stack != nil && !req.Overwrite {
		r.warn(ccd.ErrDuplicateStep, StepCombine, "run already processed, set Overwrite to reprocess")
		return r.Stack()
	}

	if req.PixelFlat != nil && req.BPM == nil {
		return nil, &ccd.Error{Kind: ccd.ErrMissingBadPixelMask, Step: StepFlat.String(), Det: r.det,
			Msg: "no bad-pixel mask for " + r.instrument()}
	}

	if err := r.opts.Validate(); err != nil {
		return nil, ccd.Attribute(err, "", r.det, "")
	}

	if err := r.process(req); err != nil {
		r.dropStack()
		return nil, err
	}

	return r.Stack()
}

func (r *Run) process(req Request) error {
	if req.Overwrite {
		r.resetTo(StepLoad, StepPattern)
	}

	if !r.steps.Has(StepLoad) {
		if err := r.Load(false); err != nil {
			return err
		}
	}

	if r.opts.RemovePattern && !r.steps.Has(StepPattern) {
		if err := r.RemovePattern(false); err != nil {
			return err
		}
	}

	switch {
	case !overscan.IsNone(req.Bias):
		if err := r.SubtractBias(req.Bias, false); err != nil {
			return err
		}
	case !r.steps.Has(StepBias):
		r.warn(ErrNoBias, StepBias, "no bias subtraction applied")
	}

	if r.opts.Trim && !r.steps.Has(StepTrim) && !r.steps.Has(StepBias) {
		if err := r.Trim(false); err != nil {
			return err
		}
	}

	if len(r.images) == 1 {
		r.useSingleFrame()
	} else if err := r.Combine(false); err != nil {
		return err
	}

	if req.ApplyGain {
		if err := r.ApplyGain(false); err != nil {
			return err
		}
	}

	if req.PixelFlat != nil {
		if err := r.FlatField(req.PixelFlat, req.BPM, req.IllumFlat, false); err != nil {
			return err
		}
	}

	return nil
}
