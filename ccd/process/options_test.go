package process

import (
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/combine"
	"github.com/cwbudde/algo-ccdproc/ccd/overscan"
)

func TestDecodeOptions(t *testing.T) {
	in := `{"combine_method": "median", "sigma_low": 2, "n_high": 1,
		"overscan_method": "savgol", "overscan_params": [3, 31], "trim": false}`

	o, err := DecodeOptions(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeOptions: %v", err)
	}

	if o.CombineMethod != "median" || o.SigmaLow != 2 || o.SigmaHigh != 3 || o.NHigh != 1 || o.Trim {
		t.Fatalf("options = %+v", o)
	}

	src, err := o.Overscan()
	if err != nil {
		t.Fatalf("Overscan: %v", err)
	}

	if src.Method != overscan.MethodSavGol || src.Params != (overscan.Params{Order: 3, Window: 31}) {
		t.Fatalf("source = %+v", src)
	}

	cfg, err := o.CombineConfig(60000)
	if err != nil {
		t.Fatalf("CombineConfig: %v", err)
	}

	if cfg.Method != combine.MethodMedian || cfg.Saturation != 60000 || cfg.NHigh != 1 || cfg.Replace != combine.ReplaceMaxNonSat {
		t.Fatalf("combine config = %+v", cfg)
	}
}

func TestDecodeOptionsEmpty(t *testing.T) {
	o, err := DecodeOptions(strings.NewReader(""))
	if err != nil {
		t.Fatalf("DecodeOptions: %v", err)
	}

	def := DefaultOptions()
	if o.CombineMethod != def.CombineMethod || o.OverscanMethod != def.OverscanMethod || o.Trim != def.Trim {
		t.Fatalf("options = %+v, want defaults", o)
	}
}

func TestDecodeOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind error
	}{
		{name: "unknown key", in: `{"combine": "mean"}`},
		{name: "combine method", in: `{"combine_method": "mode"}`, kind: ccd.ErrUnsupportedMethod},
		{name: "overscan method", in: `{"overscan_method": "spline"}`, kind: ccd.ErrUnsupportedMethod},
		{name: "overscan params", in: `{"overscan_method": "savgol", "overscan_params": [5, 3]}`, kind: ccd.ErrUnsupportedMethod},
		{name: "saturation policy", in: `{"saturation_pixel_policy": "clip"}`, kind: ccd.ErrUnsupportedMethod},
		{name: "replace policy", in: `{"replace_policy": "zero"}`, kind: ccd.ErrUnsupportedMethod},
		{name: "sigma", in: `{"sigma_high": -1}`, kind: ccd.ErrCombine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOptions(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions(
		WithCombineMethod("mean"),
		WithSigma(4, 5),
		WithNLoHi(1, 1),
		WithSaturationPolicy("force"),
		WithReplacePolicy("median"),
		WithTrim(false),
		WithOverscan("polynomial", 3),
		nil,
	)

	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if o.CombineMethod != "mean" || o.SigmaLow != 4 || o.SigmaHigh != 5 || o.NLow != 1 || o.Trim {
		t.Fatalf("options = %+v", o)
	}

	cards := o.Cards()
	if cards[1].Name != "OSCANPAR" || cards[1].Value != "3" {
		t.Fatalf("overscan parameter card = %+v", cards[1])
	}
}

func TestSteps(t *testing.T) {
	var s Steps
	a := s.With(StepLoad)
	b := a.With(StepBias)

	if s.Len() != 0 || a.Len() != 1 || b.Len() != 2 {
		t.Fatalf("With must not modify its receiver: %d %d %d", s.Len(), a.Len(), b.Len())
	}

	if !b.Has(StepBias) || a.Has(StepBias) {
		t.Fatal("Has")
	}

	c := b.With(StepTrim).With(StepCombine).Keep(StepLoad, StepTrim)
	if got := c.String(); got != "[load, trim]" {
		t.Fatalf("Keep = %s", got)
	}

	if got := Step(42).String(); got != "Step(42)" {
		t.Fatalf("String = %q", got)
	}

	l := b.List()
	l[0] = StepFlat
	if b.List()[0] != StepLoad {
		t.Fatal("List must return a copy")
	}
}
