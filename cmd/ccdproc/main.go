// Command ccdproc reduces a set of raw CCD frames of one detector into a
// single calibrated stack and writes it as a FITS file.
//
// Usage:
//
//	ccdproc -instrument inst.json [flags] raw.fits ...
//
// The instrument file describes the detectors (gain, read noise,
// saturation) and the header keywords holding the data and overscan
// sections. Processing options may be read from a JSON file with -config;
// flags given on the command line override it.
//
// Examples:
//
//	ccdproc -instrument lris.json -o bias.fits b1.fits b2.fits b3.fits
//	ccdproc -instrument lris.json -bias overscan -oscan median -gain -o sci.fits r1.fits
//	ccdproc -instrument lris.json -bias mbias.fits -pixflat flat.fits -bpm bpm.fits -o sci.fits r1.fits
//	ccdproc -methods
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/combine"
	"github.com/cwbudde/algo-ccdproc/ccd/fitsfile"
	"github.com/cwbudde/algo-ccdproc/ccd/instrument"
	"github.com/cwbudde/algo-ccdproc/ccd/overscan"
	"github.com/cwbudde/algo-ccdproc/ccd/process"
	"github.com/cwbudde/algo-ccdproc/ccd/qa"
	"github.com/cwbudde/algo-ccdproc/stats/pixel"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		os.Exit(1)
	}
}

type config struct {
	instrument string
	det        int
	binning    string
	bias       string
	oscan      string
	oscanPar   string
	combine    string
	satPolicy  string
	sigLow     float64
	sigHigh    float64
	nLow       int
	nHigh      int
	replace    string
	trim       bool
	pattern    bool
	gain       bool
	pixFlat    string
	bpm        string
	illumFlat  string
	exptime    float64
	options    string
	out        string
	variance   string
	qaPrefix   string
	verbose    bool
	methods    bool
}

func newFlagSet(cfg *config, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("ccdproc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	def := process.DefaultOptions()

	fs.StringVar(&cfg.instrument, "instrument", "", "instrument description (JSON)")
	fs.IntVar(&cfg.det, "det", 1, "1-based detector number")
	fs.StringVar(&cfg.binning, "binning", "", "override header binning (\"spatial,spectral\")")
	fs.StringVar(&cfg.bias, "bias", "none", "bias source: none, overscan or a master bias FITS file")
	fs.StringVar(&cfg.oscan, "oscan", def.OverscanMethod, "overscan method (see -methods)")
	fs.StringVar(&cfg.oscanPar, "oscan-params", joinFloats(def.OverscanParams), "comma-separated overscan method parameters")
	fs.StringVar(&cfg.combine, "combine", def.CombineMethod, "combination statistic")
	fs.StringVar(&cfg.satPolicy, "satpolicy", def.SaturationPolicy, "saturated pixel policy")
	fs.Float64Var(&cfg.sigLow, "siglo", def.SigmaLow, "lower clipping threshold in sigma (0 disables)")
	fs.Float64Var(&cfg.sigHigh, "sighi", def.SigmaHigh, "upper clipping threshold in sigma (0 disables)")
	fs.IntVar(&cfg.nLow, "nlo", def.NLow, "number of lowest values rejected per pixel")
	fs.IntVar(&cfg.nHigh, "nhi", def.NHigh, "number of highest values rejected per pixel")
	fs.StringVar(&cfg.replace, "replace", def.ReplacePolicy, "value used where every frame was rejected")
	fs.BoolVar(&cfg.trim, "trim", def.Trim, "trim to the data sections")
	fs.BoolVar(&cfg.pattern, "pattern", def.RemovePattern, "remove periodic readout pattern before bias subtraction")
	fs.BoolVar(&cfg.gain, "gain", false, "convert the stack to electrons")
	fs.StringVar(&cfg.pixFlat, "pixflat", "", "pixel flat FITS file")
	fs.StringVar(&cfg.bpm, "bpm", "", "bad pixel mask FITS file (non-zero is bad), required with -pixflat")
	fs.StringVar(&cfg.illumFlat, "illumflat", "", "illumination flat FITS file")
	fs.Float64Var(&cfg.exptime, "exptime", math.NaN(), "exposure time in seconds (default: EXPTIME card of the first frame)")
	fs.StringVar(&cfg.options, "config", "", "processing options (JSON)")
	fs.StringVar(&cfg.out, "o", "stack.fits", "output stack FITS file")
	fs.StringVar(&cfg.variance, "variance", "", "also write the variance model to this FITS file")
	fs.StringVar(&cfg.qaPrefix, "qa", "", "write QA plots as <prefix>_hist.png and <prefix>_cols.png")
	fs.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	fs.BoolVar(&cfg.methods, "methods", false, "list available methods and policies")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ccdproc -instrument inst.json [flags] raw.fits ...\n\n")
		fmt.Fprintf(stderr, "Combines raw frames of one detector into a calibrated stack.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	return fs
}

func run(args []string, stdout, stderr io.Writer) error {
	var cfg config

	fs := newFlagSet(&cfg, stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.methods {
		return printMethods(stdout)
	}

	files := fs.Args()
	if cfg.instrument == "" || len(files) == 0 {
		fs.Usage()
		return errUsage
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	inst, err := readInstrument(cfg.instrument)
	if err != nil {
		return err
	}

	opts, err := buildOptions(fs, &cfg)
	if err != nil {
		return err
	}

	exptime := cfg.exptime
	if math.IsNaN(exptime) {
		exptime = headerExposure(inst, files[0], cfg.det, logger)
	}

	runOpts := []process.RunOption{
		process.WithOptions(opts),
		process.WithLogger(logger),
		process.WithExposureTime(exptime),
	}
	if cfg.binning != "" {
		runOpts = append(runOpts, process.WithBinning(cfg.binning))
	}

	r := process.New(inst, files, cfg.det, runOpts...)

	req, err := buildRequest(&cfg, opts)
	if err != nil {
		return err
	}

	st, err := r.Process(req)
	if err != nil {
		return err
	}

	if err := fitsfile.WriteFile(cfg.out, st.Image, st.Cards()); err != nil {
		return fmt.Errorf("write stack: %w", err)
	}

	logger.Info("stack written", "path", cfg.out, "steps", st.Steps.String())

	if cfg.variance != "" {
		if err := writeVariance(r, cfg.variance, st); err != nil {
			return err
		}
	}

	if cfg.qaPrefix != "" {
		if err := writeQA(st, cfg.qaPrefix); err != nil {
			return err
		}
	}

	return printSummary(stdout, r, st)
}

func readInstrument(path string) (*instrument.Generic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("instrument: %w", err)
	}
	defer f.Close()

	return instrument.Decode(f)
}

// buildOptions starts from the -config file, or the defaults, and applies
// the flags that were set explicitly.
func buildOptions(fs *flag.FlagSet, cfg *config) (process.Options, error) {
	opts := process.DefaultOptions()

	if cfg.options != "" {
		f, err := os.Open(cfg.options)
		if err != nil {
			return opts, fmt.Errorf("config: %w", err)
		}

		opts, err = process.DecodeOptions(f)
		f.Close()

		if err != nil {
			return opts, fmt.Errorf("config %s: %w", cfg.options, err)
		}
	}

	var parseErr error

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "oscan":
			opts.OverscanMethod = cfg.oscan
		case "oscan-params":
			params, err := parseFloats(cfg.oscanPar)
			if err != nil {
				parseErr = fmt.Errorf("-oscan-params: %w", err)
				return
			}

			opts.OverscanParams = params
		case "combine":
			opts.CombineMethod = cfg.combine
		case "satpolicy":
			opts.SaturationPolicy = cfg.satPolicy
		case "siglo":
			opts.SigmaLow = cfg.sigLow
		case "sighi":
			opts.SigmaHigh = cfg.sigHigh
		case "nlo":
			opts.NLow = cfg.nLow
		case "nhi":
			opts.NHigh = cfg.nHigh
		case "replace":
			opts.ReplacePolicy = cfg.replace
		case "trim":
			opts.Trim = cfg.trim
		case "pattern":
			opts.RemovePattern = cfg.pattern
		}
	})

	if parseErr != nil {
		return opts, parseErr
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

func buildRequest(cfg *config, opts process.Options) (process.Request, error) {
	req := process.Request{ApplyGain: cfg.gain}

	switch strings.ToLower(cfg.bias) {
	case "", "none":
	case "overscan":
		src, err := opts.Overscan()
		if err != nil {
			return req, err
		}

		req.Bias = src
	default:
		img, _, err := fitsfile.Read(cfg.bias, 0)
		if err != nil {
			return req, fmt.Errorf("master bias: %w", err)
		}

		req.Bias = overscan.MasterFrame{Bias: img}
	}

	if cfg.pixFlat != "" {
		img, _, err := fitsfile.Read(cfg.pixFlat, 0)
		if err != nil {
			return req, fmt.Errorf("pixel flat: %w", err)
		}

		req.PixelFlat = img
	}

	if cfg.bpm != "" {
		img, _, err := fitsfile.Read(cfg.bpm, 0)
		if err != nil {
			return req, fmt.Errorf("bad pixel mask: %w", err)
		}

		req.BPM = maskFromImage(img)
	}

	if cfg.illumFlat != "" {
		img, _, err := fitsfile.Read(cfg.illumFlat, 0)
		if err != nil {
			return req, fmt.Errorf("illumination flat: %w", err)
		}

		req.IllumFlat = img
	}

	return req, nil
}

// headerExposure reads EXPTIME from the first frame. NaN is returned when
// the card is absent so that the noise stages report it.
func headerExposure(p ccd.Provider, path string, det int, logger *slog.Logger) float64 {
	_, hdr, err := p.ReadRaw(path, det)
	if err != nil {
		return math.NaN()
	}

	e, ok := hdr.Float("EXPTIME")
	if !ok {
		logger.Debug("no EXPTIME card", "file", path)
		return math.NaN()
	}

	return e
}

func maskFromImage(img *ccd.Image) *ccd.Mask {
	m := ccd.NewMask(img.Rows, img.Cols)
	for i, v := range img.Data {
		m.Data[i] = v != 0
	}

	return m
}

func writeVariance(r *process.Run, path string, st *process.Stack) error {
	v, err := r.BuildVariance(false)
	if err != nil {
		return fmt.Errorf("variance: %w", err)
	}

	cards := append(st.Cards(), ccd.Card{Name: "BUNIT", Value: "variance", Comment: "raw variance model"})
	if err := fitsfile.WriteFile(path, v, cards); err != nil {
		return fmt.Errorf("write variance: %w", err)
	}

	return nil
}

func writeQA(st *process.Stack, prefix string) error {
	title := fmt.Sprintf("%s det %d", st.Instrument, st.Det)

	if err := qa.Histogram(st.Image, title, prefix+"_hist.png", 100); err != nil {
		return fmt.Errorf("qa histogram: %w", err)
	}

	if err := qa.ColumnProfile(st.Image, title, prefix+"_cols.png"); err != nil {
		return fmt.Errorf("qa column profile: %w", err)
	}

	return nil
}

func printMethods(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	var overscans, combines, sats, replaces []string
	for m := overscan.Method(0); m.Valid(); m++ {
		overscans = append(overscans, m.String())
	}

	for m := combine.Method(0); m.Valid(); m++ {
		combines = append(combines, m.String())
	}

	for p := combine.SaturationPolicy(0); p.Valid(); p++ {
		sats = append(sats, p.String())
	}

	for p := combine.ReplacePolicy(0); p.Valid(); p++ {
		replaces = append(replaces, p.String())
	}

	fmt.Fprintf(tw, "-oscan\t%s\n", strings.Join(overscans, ", "))
	fmt.Fprintf(tw, "-combine\t%s\n", strings.Join(combines, ", "))
	fmt.Fprintf(tw, "-satpolicy\t%s\n", strings.Join(sats, ", "))
	fmt.Fprintf(tw, "-replace\t%s\n", strings.Join(replaces, ", "))

	return tw.Flush()
}

func printSummary(w io.Writer, r *process.Run, st *process.Stack) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Frame\tShape\tMean\tMedian\tStd\tMin\tMax\n")
	fmt.Fprintf(tw, "-----\t-----\t----\t------\t---\t---\t---\n")

	for i, img := range r.Images() {
		writeRow(tw, st.Files[i], img, nil)
	}

	writeRow(tw, "stack", st.Image, st.Replaced)

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nsteps: %s\nmethod: %s\n", st.Steps, st.Method)
	fmt.Fprintf(w, "flagged pixels: %d (%d replaced)\n", st.Mask.Count(), st.Replaced.Count())

	if sky, err := pixel.Clipped(st.Image, st.Replaced, 3, 3, 5); err == nil {
		fmt.Fprintf(w, "clipped level: %.4g +/- %.4g (%d rejected)\n", sky.Median, sky.Std, sky.Rejected)
	}

	for _, warn := range r.Warnings() {
		fmt.Fprintf(w, "warning: %v\n", warn)
	}

	return nil
}

func writeRow(w io.Writer, label string, img *ccd.Image, mask *ccd.Mask) {
	s, err := pixel.Calculate(img, mask)
	if err != nil {
		fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\t-\n", label, img.ShapeString())
		return
	}

	fmt.Fprintf(w, "%s\t%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
		label, img.ShapeString(), s.Mean, s.Median, s.Std, s.Min, s.Max)
}

func parseFloats(s string) ([]float64, error) {
	var out []float64

	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}

		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return strings.Join(parts, ",")
}
