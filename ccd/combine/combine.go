package combine

import (
	"fmt"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Result is the outcome of a combination.
type Result struct {
	Image *ccd.Image

	// Mask flags pixels where at least one frame value was excluded
	// (saturated, trimmed as an extreme or clipped) or the output was filled.
	Mask *ccd.Mask

	// Replaced flags pixels filled by the replacement policy or forced to
	// the saturation level.
	Replaced *ccd.Mask

	// Rejected counts, per pixel, the values excluded by saturation,
	// extreme trimming or clipping.
	Rejected []int
}

// Combine reduces frames to a single image with the default config
// modified by opts.
func Combine(frames []*ccd.Image, opts ...Option) (*Result, error) {
	return ApplyOptions(opts...).Combine(frames)
}

// Validate checks cfg for a stack of n frames.
func (cfg Config) Validate(n int) error {
	switch {
	case n < 1:
		return ccd.Errorf(ccd.ErrCombine, "no frames to combine")
	case !cfg.Method.Valid():
		return unsupported("combine method %s", cfg.Method)
	case !cfg.SatPolicy.Valid():
		return unsupported("saturation policy %s", cfg.SatPolicy)
	case !cfg.Replace.Valid():
		return unsupported("replace policy %s", cfg.Replace)
	case cfg.SigmaLow < 0 || cfg.SigmaHigh < 0 || math.IsNaN(cfg.SigmaLow) || math.IsNaN(cfg.SigmaHigh):
		return ccd.Errorf(ccd.ErrCombine, "clip thresholds must be non-negative, got %v/%v", cfg.SigmaLow, cfg.SigmaHigh)
	case cfg.NLow < 0 || cfg.NHigh < 0:
		return ccd.Errorf(ccd.ErrCombine, "n_low/n_high must be non-negative, got %d/%d", cfg.NLow, cfg.NHigh)
	case cfg.Weights != nil && len(cfg.Weights) != n:
		return ccd.Errorf(ccd.ErrCombine, "%d weights for %d frames", len(cfg.Weights), n)
	}

	for i, w := range cfg.Weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return ccd.Errorf(ccd.ErrCombine, "weight %d is %v, must be positive", i, w)
		}
	}

	return nil
}

func unsupported(format string, args ...any) error {
	return &ccd.Error{
		Kind: fmt.Errorf("%w: %w", ccd.ErrCombine, ccd.ErrUnsupportedMethod),
		Msg:  fmt.Sprintf(format, args...),
	}
}

// sample is one frame's value at a pixel.
type sample struct {
	v, w float64
}

// Combine reduces frames to a single image. All frames must share one shape.
func (cfg Config) Combine(frames []*ccd.Image) (*Result, error) {
	if err := cfg.Validate(len(frames)); err != nil {
		return nil, err
	}

	first := frames[0]
	for i, f := range frames {
		if f == nil || !f.SameShape(first) {
			return nil, ccd.Errorf(ccd.ErrShapeMismatch, "frame %d has shape %s, frame 0 has %s",
				i, f.ShapeString(), first.ShapeString())
		}
	}

	res := &Result{
		Image:    ccd.NewImage(first.Rows, first.Cols),
		Mask:     ccd.NewMask(first.Rows, first.Cols),
		Replaced: ccd.NewMask(first.Rows, first.Cols),
		Rejected: make([]int, first.Len()),
	}

	if len(frames) == 1 {
		copy(res.Image.Data, first.Data)
		return res, nil
	}

	p := newPixelCombiner(cfg, len(frames))

	for i := range res.Image.Data {
		p.reset()
		for k, f := range frames {
			p.add(f.Data[i], k)
		}

		res.Image.Data[i], res.Replaced.Data[i] = p.reduce()
		res.Rejected[i] = len(frames) - len(p.kept)
		res.Mask.Data[i] = res.Replaced.Data[i] || res.Rejected[i] > 0
	}

	return res, nil
}

// pixelCombiner holds the per-pixel scratch buffers of one combination.
type pixelCombiner struct {
	cfg    Config
	all    []sample
	kept   []sample
	vals   []float64
	ws     []float64
	anySat bool
}

func newPixelCombiner(cfg Config, n int) *pixelCombiner {
	return &pixelCombiner{
		cfg:  cfg,
		all:  make([]sample, 0, n),
		kept: make([]sample, 0, n),
		vals: make([]float64, 0, n),
		ws:   make([]float64, 0, n),
	}
}

func (p *pixelCombiner) reset() {
	p.all = p.all[:0]
	p.kept = p.kept[:0]
	p.anySat = false
}

func (p *pixelCombiner) saturated(v float64) bool {
	return p.cfg.Saturation > 0 && v >= p.cfg.Saturation
}

func (p *pixelCombiner) add(v float64, frame int) {
	w := 1.0
	if p.cfg.Weights != nil {
		w = p.cfg.Weights[frame]
	}

	s := sample{v: v, w: w}
	p.all = append(p.all, s)

	sat := p.saturated(v)
	p.anySat = p.anySat || sat

	if sat && p.cfg.SatPolicy == SatReject {
		return
	}

	p.kept = append(p.kept, s)
}

// reduce returns the combined value and whether it was filled instead
// of computed from surviving values.
func (p *pixelCombiner) reduce() (float64, bool) {
	if p.anySat && p.cfg.SatPolicy == SatForce {
		p.kept = p.kept[:0]
		return p.cfg.Saturation, true
	}

	p.dropExtremes()
	p.clip()

	if len(p.kept) == 0 {
		return p.replace(), true
	}

	return p.statistic(p.cfg.Method, p.kept), false
}

func (p *pixelCombiner) dropExtremes() {
	lo, hi := p.cfg.NLow, p.cfg.NHigh
	if lo == 0 && hi == 0 {
		return
	}

	if lo+hi >= len(p.kept) {
		p.kept = p.kept[:0]
		return
	}

	slices.SortStableFunc(p.kept, func(a, b sample) int {
		switch {
		case a.v < b.v:
			return -1
		case a.v > b.v:
			return 1
		default:
			return 0
		}
	})

	n := copy(p.kept, p.kept[lo:len(p.kept)-hi])
	p.kept = p.kept[:n]
}

// clip iteratively removes values outside
// [median - SigmaLow*std, median + SigmaHigh*std].
func (p *pixelCombiner) clip() {
	lo, hi := p.cfg.SigmaLow, p.cfg.SigmaHigh
	if lo == 0 && hi == 0 {
		return
	}

	for range MaxClipIterations {
		if len(p.kept) < 3 {
			return
		}

		vals := p.values(p.kept)
		med, _ := stats.Median(vals)
		std, _ := stats.StandardDeviationPopulation(vals)

		if std == 0 || math.IsNaN(std) {
			return
		}

		n := 0
		for _, s := range p.kept {
			if (lo > 0 && s.v < med-lo*std) || (hi > 0 && s.v > med+hi*std) {
				continue
			}

			p.kept[n] = s
			n++
		}

		if n == len(p.kept) {
			return
		}

		p.kept = p.kept[:n]
	}
}

func (p *pixelCombiner) values(s []sample) []float64 {
	p.vals = p.vals[:0]
	for _, x := range s {
		p.vals = append(p.vals, x.v)
	}
	return p.vals
}

// statistic evaluates m over s, which must not be empty. Means are taken
// relative to the first value so that identical inputs are reproduced
// exactly.
func (p *pixelCombiner) statistic(m Method, s []sample) float64 {
	switch m {
	case MethodMedian:
		med, _ := stats.Median(p.values(s))
		return med
	case MethodWeightMean:
		if p.cfg.Weights != nil {
			ref := s[0].v
			p.vals = p.vals[:0]
			p.ws = p.ws[:0]

			for _, x := range s {
				p.vals = append(p.vals, x.v-ref)
				p.ws = append(p.ws, x.w)
			}

			return ref + stat.Mean(p.vals, p.ws)
		}

		fallthrough
	default:
		ref := s[0].v
		sum := 0.0
		for _, x := range s[1:] {
			sum += x.v - ref
		}
		return ref + sum/float64(len(s))
	}
}

func (p *pixelCombiner) replace() float64 {
	switch p.cfg.Replace {
	case ReplaceMin:
		return slices.Min(p.values(p.all))
	case ReplaceMax:
		return slices.Max(p.values(p.all))
	case ReplaceMean:
		return p.statistic(MethodMean, p.all)
	case ReplaceMedian:
		return p.statistic(MethodMedian, p.all)
	case ReplaceWeightMean:
		return p.statistic(MethodWeightMean, p.all)
	case ReplaceSentinel:
		return p.cfg.Sentinel
	default:
		best, found := 0.0, false
		for _, s := range p.all {
			if !p.saturated(s.v) && (!found || s.v > best) {
				best, found = s.v, true
			}
		}

		if !found {
			return p.cfg.Saturation
		}

		return best
	}
}
