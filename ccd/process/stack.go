package process

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Stack is the combined image of a run together with its provenance.
type Stack struct {
	Image *ccd.Image

	// Mask flags pixels where combination excluded a saturated, extreme
	// or clipped value, or filled the output.
	Mask *ccd.Mask

	// Replaced flags the subset of Mask filled by the replacement policy
	// or forced to the saturation level.
	Replaced *ccd.Mask

	// FlatMask flags pixels left unflattened; nil without flat fielding.
	FlatMask *ccd.Mask

	Files      []string
	Steps      Steps
	Method     string // combination statistic, "none" for a single frame
	Options    Options
	Instrument string
	Det        int
	Header     ccd.Header // header of the first frame
}

// Stack returns the current stack with its provenance, or an error of
// kind ccd.ErrNoStack before one was produced.
func (r *Run) Stack() (*Stack, error) {
	if r.stack == nil {
		return nil, &ccd.Error{Kind: ccd.ErrNoStack, Det: r.det, Msg: "run has not produced a stack"}
	}

	method := r.combineBy
	if method == "" {
		method = "none"
	}

	var hdr ccd.Header
	if len(r.raws) > 0 {
		hdr = r.raws[0].Header.Clone()
	}

	return &Stack{
		Image:      r.stack,
		Mask:       r.mask,
		Replaced:   r.replaced,
		FlatMask:   r.flatMask,
		Files:      append([]string(nil), r.files...),
		Steps:      r.steps,
		Method:     method,
		Options:    r.opts,
		Instrument: r.instrument(),
		Det:        r.det,
		Header:     hdr,
	}, nil
}

// Cards returns the provenance header cards of s: one FRAMEnnn card per
// source file, the instrument, detector and steps, then the options.
func (s *Stack) Cards() []ccd.Card {
	cards := make([]ccd.Card, 0, len(s.Files)+14)

	for i, f := range s.Files {
		cards = append(cards, ccd.Card{Name: fmt.Sprintf("FRAME%03d", i+1), Value: f, Comment: "source file"})
	}

	cards = append(cards,
		ccd.Card{Name: "INSTRUME", Value: s.Instrument, Comment: "instrument"},
		ccd.Card{Name: "DET", Value: s.Det, Comment: "detector"},
		ccd.Card{Name: "STEPS", Value: strings.Join(s.Steps.Names(), ","), Comment: "processing steps"},
		ccd.Card{Name: "NFRAMES", Value: len(s.Files), Comment: "frames combined"},
	)

	return append(cards, s.Options.Cards()...)
}
