package process

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/flat"
	"github.com/cwbudde/algo-ccdproc/ccd/gain"
	"github.com/cwbudde/algo-ccdproc/ccd/load"
	"github.com/cwbudde/algo-ccdproc/ccd/noise"
	"github.com/cwbudde/algo-ccdproc/ccd/overscan"
	"github.com/cwbudde/algo-ccdproc/ccd/section"
)

// ErrNoBias is the kind of the warning issued when frames are combined
// without any bias subtraction.
var ErrNoBias = errors.New("process: no bias subtraction applied")

// Run processes the frames of one detector. A Run exclusively owns the
// images it creates and is not safe for concurrent use; independent
// runs may execute in parallel.
type Run struct {
	provider ccd.Provider
	files    []string
	det      int
	binning  string
	opts     Options
	logger   *slog.Logger
	exptime  float64

	detector ccd.Detector
	raws     []*load.Raw
	base     []*ccd.Image // raw-shaped frames after optional pattern removal
	rawAmp   *ccd.AmpMap  // amplifier map of the raw frames
	amp      *ccd.AmpMap  // amplifier map matching images
	images   []*ccd.Image // processed frames
	patterns [][]overscan.Pattern

	stack     *ccd.Image
	combined  *ccd.Image // stack before gain and flat
	preFlat   *ccd.Image // stack before flat
	flatIn    *flatInputs
	mask      *ccd.Mask
	replaced  *ccd.Mask
	flatMask  *ccd.Mask
	rn2       *ccd.Image
	variance  *ccd.Image
	steps     Steps
	warnings  []error
	combineBy string
}

type flatInputs struct {
	pixel *ccd.Image
	bpm   *ccd.Mask
	illum *ccd.Image
}

// RunOption configures a Run.
type RunOption func(*Run)

// WithOptions sets the processing configuration.
func WithOptions(o Options) RunOption {
	return func(r *Run) { r.opts = o }
}

// WithLogger sets the logger receiving stage and warning messages.
func WithLogger(l *slog.Logger) RunOption {
	return func(r *Run) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithExposureTime sets the exposure time in seconds used by the noise model.
func WithExposureTime(seconds float64) RunOption {
	return func(r *Run) { r.exptime = seconds }
}

// WithBinning overrides the header binning of every frame ("spatial,spectral").
func WithBinning(binning string) RunOption {
	return func(r *Run) { r.binning = binning }
}

// New returns a Run over files for the 1-based detector det. Nothing is
// read until Load or Process is called.
func New(p ccd.Provider, files []string, det int, opts ...RunOption) *Run {
	r := &Run{
		provider: p,
		files:    append([]string(nil), files...),
		det:      det,
		opts:     DefaultOptions(),
		logger:   slog.Default(),
		exptime:  math.NaN(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Steps returns the record of executed steps.
func (r *Run) Steps() Steps { return r.steps }

// Warnings returns the non-fatal conditions met so far. Each wraps a
// kind such as ccd.ErrDuplicateStep or ErrNoBias.
func (r *Run) Warnings() []error { return append([]error(nil), r.warnings...) }

// Options returns the processing configuration.
func (r *Run) Options() Options { return r.opts }

// Images returns the processed per-file frames.
func (r *Run) Images() []*ccd.Image { return r.images }

// AmpMap returns the amplifier map matching the processed frames.
func (r *Run) AmpMap() *ccd.AmpMap { return r.amp }

// Detector returns the properties of the processed detector. It is the
// zero value before Load.
func (r *Run) Detector() ccd.Detector { return r.detector }

// Patterns returns the readout patterns removed per file.
func (r *Run) Patterns() [][]overscan.Pattern { return r.patterns }

// ReadNoise2 returns the read-noise-squared map, nil before BuildReadNoise2.
func (r *Run) ReadNoise2() *ccd.Image { return r.rn2 }

// Variance returns the raw variance map, nil before BuildVariance.
func (r *Run) Variance() *ccd.Image { return r.variance }

func (r *Run) String() string {
	return fmt.Sprintf("<Run: nimg=%d steps: %s>", len(r.files), r.steps)
}

func (r *Run) warn(kind error, step Step, format string, args ...any) {
	w := &ccd.Error{Kind: kind, Step: step.String(), Det: r.det, Msg: fmt.Sprintf(format, args...)}
	r.warnings = append(r.warnings, w)
	r.logger.Warn(w.Msg, "step", step.String(), "det", r.det, "kind", kind.Error())
}

// skip reports whether step already ran and force is unset, issuing
// the duplicate-step warning in that case.
func (r *Run) skip(step Step, force bool) bool {
	if !r.steps.Has(step) || force {
		return false
	}

	r.warn(ccd.ErrDuplicateStep, step, "%s already applied, pass force to repeat", step)

	return true
}

func (r *Run) fail(step Step, file string, err error) error {
	return ccd.Attribute(err, step.String(), r.det, file)
}

// Load reads every file. Loading again with force discards all
// processing done so far.
func (r *Run) Load(force bool) error {
	if r.skip(StepLoad, force) {
		return nil
	}

	raws, err := load.New(r.provider).Load(r.files, r.det, r.binning)
	if err != nil {
		return err
	}

	detector, err := r.provider.Detector(r.det)
	if err != nil {
		return r.fail(StepLoad, "", fmt.Errorf("%w: %w", ccd.ErrLoad, err))
	}

	first := raws[0]

	amp, err := section.AmplifierMap(first.Image.Rows, first.Image.Cols, first.DataSec)
	if err != nil {
		return r.fail(StepLoad, first.Path, err)
	}

	*r = Run{
		provider: r.provider,
		files:    r.files,
		det:      r.det,
		binning:  r.binning,
		opts:     r.opts,
		logger:   r.logger,
		exptime:  r.exptime,
		warnings: r.warnings,
		detector: detector,
		raws:     raws,
		rawAmp:   amp,
		amp:      amp,
	}

	r.base = make([]*ccd.Image, len(raws))
	for i, raw := range raws {
		r.base[i] = raw.Image.Clone()
	}
	r.images = r.base

	r.steps = r.steps.With(StepLoad)
	r.logger.Info("frames loaded", "det", r.det, "files", len(raws), "binning", first.Binning.String())

	return nil
}

func (r *Run) requireLoaded(step Step) error {
	if !r.steps.Has(StepLoad) {
		return &ccd.Error{Kind: ccd.ErrLoad, Step: step.String(), Det: r.det, Msg: "frames not loaded"}
	}
	return nil
}

// geometry returns the sections of raw frame i.
func (r *Run) geometry(i int) overscan.Geometry {
	return overscan.Geometry{DataSec: r.raws[i].DataSec, OscanSec: r.raws[i].OscanSec}
}

// RemovePattern subtracts the periodic readout pattern found in the
// overscan of every raw frame. It must precede bias subtraction and trimming.
func (r *Run) RemovePattern(force bool) error {
	if err := r.requireLoaded(StepPattern); err != nil {
		return err
	}

	if r.skip(StepPattern, force) {
		return nil
	}

	if r.steps.Has(StepBias) || r.steps.Has(StepTrim) {
		return &ccd.Error{Kind: ccd.ErrShapeMismatch, Step: StepPattern.String(), Det: r.det,
			Msg: "pattern removal needs untrimmed, unsubtracted frames"}
	}

	patterns := make([][]overscan.Pattern, len(r.raws))
	base := make([]*ccd.Image, len(r.raws))

	for i, raw := range r.raws {
		img := raw.Image.Clone()

		p, err := overscan.RemovePattern(img, r.geometry(i))
		if err != nil {
			return r.fail(StepPattern, raw.Path, err)
		}

		base[i], patterns[i] = img, p
		for _, x := range p {
			r.logger.Debug("readout pattern removed", "file", raw.Path, "amp", x.Amplifier,
				"frequency", x.Frequency, "amplitude", x.Amplitude)
		}
	}

	r.base, r.images, r.patterns = base, base, patterns
	r.steps = r.steps.With(StepPattern)

	return nil
}

// SubtractBias removes the bias given by src from every frame, trimming
// to the data sections when the run's Trim option is set. It always
// starts from the loaded frames, so repeating it with force replaces the
// earlier subtraction and discards every later step. [overscan.None] is
// rejected with ccd.ErrUnsupportedMethod.
func (r *Run) SubtractBias(src overscan.Source, force bool) error {
	if err := r.requireLoaded(StepBias); err != nil {
		return err
	}

	if r.skip(StepBias, force) {
		return nil
	}

	out := make([]*ccd.Image, len(r.base))

	for i, img := range r.base {
		sub, err := overscan.Subtract(img, r.geometry(i), r.rawAmp, src, r.opts.Trim)
		if err != nil {
			return r.fail(StepBias, r.raws[i].Path, err)
		}

		out[i] = sub
	}

	r.resetTo(StepLoad, StepPattern)
	r.images = out
	r.steps = r.steps.With(StepBias)

	if r.opts.Trim {
		r.amp = r.rawAmp.Trimmed()
		r.steps = r.steps.With(StepTrim)
	}

	r.logger.Info("bias subtracted", "det", r.det, "source", src.Describe(), "trim", r.opts.Trim)

	return nil
}

// Trim crops every frame to its data sections. Frames already bias
// subtracted keep the subtraction; repeating a trim with force starts
// again from the loaded frames.
func (r *Run) Trim(force bool) error {
	if err := r.requireLoaded(StepTrim); err != nil {
		return err
	}

	if r.skip(StepTrim, force) {
		return nil
	}

	src, keep := r.images, []Step{StepLoad, StepPattern, StepBias}
	if r.steps.Has(StepTrim) {
		src, keep = r.base, []Step{StepLoad, StepPattern}
	}

	out := make([]*ccd.Image, len(src))

	for i, img := range src {
		t, err := r.rawAmp.Trim(img)
		if err != nil {
			return r.fail(StepTrim, r.raws[i].Path, err)
		}

		out[i] = t
	}

	r.dropStack()
	r.steps = r.steps.Keep(keep...).With(StepTrim)
	r.images = out
	r.amp = r.rawAmp.Trimmed()

	return nil
}

// resetTo drops every product and step recorded after the given ones.
func (r *Run) resetTo(keep ...Step) {
	r.images = r.base
	r.amp = r.rawAmp
	r.dropStack()
	r.steps = r.steps.Keep(keep...)
}

func (r *Run) dropStack() {
	r.stack, r.combined, r.preFlat, r.flatIn = nil, nil, nil, nil
	r.mask, r.replaced, r.flatMask = nil, nil, nil
	r.rn2, r.variance, r.combineBy = nil, nil, ""
	r.steps = r.steps.Keep(StepLoad, StepPattern, StepBias, StepTrim)
}

// setStack installs a freshly combined stack.
func (r *Run) setStack(img *ccd.Image, mask, replaced *ccd.Mask) {
	r.dropStack()
	r.stack, r.combined, r.preFlat = img, img, img
	r.mask, r.replaced = mask, replaced
}

// dropVariance discards the variance, which depends on the stack values.
func (r *Run) dropVariance() {
	r.variance = nil
	r.steps = r.steps.Without(StepVariance)
}

// Combine stacks the processed frames. A single frame becomes the
// stack unchanged.
func (r *Run) Combine(force bool) error {
	if err := r.requireLoaded(StepCombine); err != nil {
		return err
	}

	if r.skip(StepCombine, force) {
		return nil
	}

	cfg, err := r.opts.CombineConfig(r.detector.Saturation)
	if err != nil {
		return r.fail(StepCombine, "", err)
	}

	res, err := cfg.Combine(r.images)
	if err != nil {
		return r.fail(StepCombine, "", err)
	}

	r.setStack(res.Image, res.Mask, res.Replaced)
	r.combineBy = cfg.Method.String()
	r.steps = r.steps.With(StepCombine)

	r.logger.Info("frames combined", "det", r.det, "frames", len(r.images), "method", r.combineBy,
		"flagged", res.Mask.Count(), "replaced", res.Replaced.Count())

	return nil
}

// useSingleFrame makes the only processed frame the stack.
func (r *Run) useSingleFrame() {
	img := r.images[0].Clone()
	r.setStack(img, ccd.NewMask(img.Rows, img.Cols), ccd.NewMask(img.Rows, img.Cols))
}

func (r *Run) requireStack(step Step) error {
	if r.stack == nil {
		return &ccd.Error{Kind: ccd.ErrNoStack, Step: step.String(), Det: r.det, Msg: "no combined stack"}
	}
	return nil
}

// ApplyGain converts the stack from ADU to electrons. It always starts
// from the combined stack, so repeating it with force converts once; a
// flat field applied earlier is applied again on top.
func (r *Run) ApplyGain(force bool) error {
	if err := r.requireStack(StepGain); err != nil {
		return err
	}

	if r.skip(StepGain, force) {
		return nil
	}

	out := r.combined.Clone()
	if err := gain.Apply(out, r.amp, r.detector.Gain); err != nil {
		return r.fail(StepGain, "", err)
	}

	stack, flatMask := out, r.flatMask
	if r.flatIn != nil {
		var err error
		if stack, flatMask, err = flat.Field(out, r.flatIn.pixel, r.flatIn.bpm, r.flatIn.illum); err != nil {
			return r.fail(StepFlat, "", err)
		}
	}

	r.preFlat, r.stack, r.flatMask = out, stack, flatMask
	r.dropVariance()
	if !r.steps.Has(StepGain) {
		r.steps = r.steps.With(StepGain)
	}
	r.logger.Info("gain applied", "det", r.det, "gain", r.detector.Gain)

	return nil
}

// FlatField divides the stack by the pixel flat and, if non-nil, the
// illumination flat. bpm is required. Repeating it with force replaces
// the earlier division instead of dividing twice.
func (r *Run) FlatField(pixelFlat *ccd.Image, bpm *ccd.Mask, illum *ccd.Image, force bool) error {
	if bpm == nil {
		return &ccd.Error{Kind: ccd.ErrMissingBadPixelMask, Step: StepFlat.String(), Det: r.det,
			Msg: "no bad-pixel mask for " + r.instrument()}
	}

	if err := r.requireStack(StepFlat); err != nil {
		return err
	}

	if r.skip(StepFlat, force) {
		return nil
	}

	out, skipped, err := flat.Field(r.preFlat, pixelFlat, bpm, illum)
	if err != nil {
		return r.fail(StepFlat, "", err)
	}

	r.stack, r.flatMask = out, skipped
	r.flatIn = &flatInputs{pixel: pixelFlat, bpm: bpm, illum: illum}
	r.dropVariance()
	if !r.steps.Has(StepFlat) {
		r.steps = r.steps.With(StepFlat)
	}

	if n := skipped.Count(); n > 0 {
		r.logger.Debug("pixels left unflattened", "det", r.det, "count", n)
	}

	return nil
}

func (r *Run) exposureTime(step Step) (float64, error) {
	if math.IsNaN(r.exptime) {
		return 0, &ccd.Error{Kind: ccd.ErrMissingExposureTime, Step: step.String(), Det: r.det,
			Msg: "set the exposure time before building noise models"}
	}
	return r.exptime, nil
}

// BuildReadNoise2 computes the read-noise-squared map of the stack.
func (r *Run) BuildReadNoise2(force bool) (*ccd.Image, error) {
	if err := r.requireStack(StepRN2); err != nil {
		return nil, err
	}

	if r.skip(StepRN2, force) {
		return r.rn2, nil
	}

	exptime, err := r.exposureTime(StepRN2)
	if err != nil {
		return nil, err
	}

	rn2, err := noise.ReadNoise2(r.amp, r.detector, exptime)
	if err != nil {
		return nil, r.fail(StepRN2, "", err)
	}

	r.rn2 = rn2
	r.steps = r.steps.With(StepRN2)

	return rn2, nil
}

// BuildVariance computes the raw variance of the stack, building the
// read-noise map first if needed.
func (r *Run) BuildVariance(force bool) (*ccd.Image, error) {
	if err := r.requireStack(StepVariance); err != nil {
		return nil, err
	}

	if r.skip(StepVariance, force) {
		return r.variance, nil
	}

	rn2 := r.rn2
	if rn2 == nil {
		var err error
		if rn2, err = r.BuildReadNoise2(false); err != nil {
			return nil, err
		}
	}

	v, err := noise.RawVariance(r.stack, rn2)
	if err != nil {
		return nil, r.fail(StepVariance, "", err)
	}

	r.variance = v
	r.steps = r.steps.With(StepVariance)

	return v, nil
}

func (r *Run) instrument() string {
	if r.provider == nil {
		return ""
	}
	return r.provider.Name()
}
