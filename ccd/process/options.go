package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/combine"
	"github.com/cwbudde/algo-ccdproc/ccd/overscan"
)

// Options is the configuration surface of a processing run. The JSON
// names are the keys accepted in configuration files.
type Options struct {
	OverscanMethod   string    `json:"overscan_method"`
	OverscanParams   []float64 `json:"overscan_params"`
	CombineMethod    string    `json:"combine_method"`
	SaturationPolicy string    `json:"saturation_pixel_policy"`
	SigmaLow         float64   `json:"sigma_low"`
	SigmaHigh        float64   `json:"sigma_high"`
	NLow             int       `json:"n_low"`
	NHigh            int       `json:"n_high"`
	ReplacePolicy    string    `json:"replace_policy"`
	ReplaceValue     float64   `json:"replace_value"` // fill value of the "sentinel" policy
	Trim             bool      `json:"trim"`
	RemovePattern    bool      `json:"remove_pattern"`
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the configuration used when nothing is set.
func DefaultOptions() Options {
	return Options{
		OverscanMethod:   overscan.MethodPolynomial.String(),
		OverscanParams:   overscan.DefaultParams(overscan.MethodPolynomial).Slice(overscan.MethodPolynomial),
		CombineMethod:    combine.MethodWeightMean.String(),
		SaturationPolicy: combine.SatReject.String(),
		SigmaLow:         3,
		SigmaHigh:        3,
		ReplacePolicy:    combine.ReplaceMaxNonSat.String(),
		Trim:             true,
	}
}

// WithOverscan selects the overscan method and its parameters.
func WithOverscan(method string, params ...float64) Option {
	return func(o *Options) {
		o.OverscanMethod = method
		o.OverscanParams = params
	}
}

// WithCombineMethod selects the combination statistic.
func WithCombineMethod(method string) Option {
	return func(o *Options) { o.CombineMethod = method }
}

// WithSaturationPolicy selects how saturated pixels are combined.
func WithSaturationPolicy(policy string) Option {
	return func(o *Options) { o.SaturationPolicy = policy }
}

// WithSigma sets the low and high clip thresholds.
func WithSigma(low, high float64) Option {
	return func(o *Options) {
		o.SigmaLow = low
		o.SigmaHigh = high
	}
}

// WithNLoHi sets the number of extremes dropped per pixel.
func WithNLoHi(low, high int) Option {
	return func(o *Options) {
		o.NLow = low
		o.NHigh = high
	}
}

// WithReplacePolicy selects the fill for fully rejected pixels.
func WithReplacePolicy(policy string) Option {
	return func(o *Options) { o.ReplacePolicy = policy }
}

// WithTrim controls whether frames are cropped to their data sections.
func WithTrim(trim bool) Option {
	return func(o *Options) { o.Trim = trim }
}

// WithPatternRemoval enables FFT pattern removal before bias subtraction.
func WithPatternRemoval(on bool) Option {
	return func(o *Options) { o.RemovePattern = on }
}

// ApplyOptions applies zero or more options to the default configuration.
func ApplyOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// DecodeOptions reads a JSON configuration on top of the defaults.
// Unknown keys are rejected.
func DecodeOptions(r io.Reader) (Options, error) {
	o := DefaultOptions()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("process: decode options: %w", err)
	}

	return o, o.Validate()
}

// Validate checks every method name and parameter.
func (o Options) Validate() error {
	if _, err := o.Overscan(); err != nil {
		return err
	}

	_, err := o.CombineConfig(0)
	return err
}

// Overscan returns the overscan bias source described by o.
func (o Options) Overscan() (overscan.Overscan, error) {
	m, err := overscan.ParseMethod(o.OverscanMethod)
	if err != nil {
		return overscan.Overscan{}, err
	}

	p, err := overscan.ParamsFromSlice(m, o.OverscanParams)
	if err != nil {
		return overscan.Overscan{}, &ccd.Error{Kind: ccd.ErrUnsupportedMethod, Msg: err.Error()}
	}

	return overscan.Overscan{Method: m, Params: p}, nil
}

// CombineConfig returns the combination settings described by o for a
// detector saturating at saturation ADU.
func (o Options) CombineConfig(saturation float64) (combine.Config, error) {
	m, err := combine.ParseMethod(o.CombineMethod)
	if err != nil {
		return combine.Config{}, err
	}

	sat, err := combine.ParseSaturationPolicy(o.SaturationPolicy)
	if err != nil {
		return combine.Config{}, err
	}

	rep, err := combine.ParseReplacePolicy(o.ReplacePolicy)
	if err != nil {
		return combine.Config{}, err
	}

	cfg := combine.ApplyOptions(
		combine.WithMethod(m),
		combine.WithSaturation(saturation, sat),
		combine.WithSigma(o.SigmaLow, o.SigmaHigh),
		combine.WithNLoHi(o.NLow, o.NHigh),
		combine.WithReplace(rep),
	)
	cfg.Sentinel = o.ReplaceValue

	// Frame count is not known here; 1 only checks thresholds and names.
	if err := cfg.Validate(1); err != nil {
		return combine.Config{}, err
	}

	return cfg, nil
}

// Cards returns o as FITS header cards for the stack writer.
func (o Options) Cards() []ccd.Card {
	params := make([]string, len(o.OverscanParams))
	for i, p := range o.OverscanParams {
		params[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}

	return []ccd.Card{
		{Name: "OSCANMTH", Value: o.OverscanMethod, Comment: "overscan method"},
		{Name: "OSCANPAR", Value: strings.Join(params, ","), Comment: "overscan parameters"},
		{Name: "COMBMTH", Value: o.CombineMethod, Comment: "combine method"},
		{Name: "SATPIX", Value: o.SaturationPolicy, Comment: "saturation pixel policy"},
		{Name: "SIGLO", Value: o.SigmaLow, Comment: "low clip threshold"},
		{Name: "SIGHI", Value: o.SigmaHigh, Comment: "high clip threshold"},
		{Name: "NLOW", Value: o.NLow, Comment: "lowest values dropped"},
		{Name: "NHIGH", Value: o.NHigh, Comment: "highest values dropped"},
		{Name: "REPLACE", Value: o.ReplacePolicy, Comment: "replacement policy"},
		{Name: "TRIM", Value: o.Trim, Comment: "trimmed to data sections"},
	}
}
