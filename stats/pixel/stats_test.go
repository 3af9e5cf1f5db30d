package pixel

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/internal/testutil"
)

const tolerance = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalculateRamp(t *testing.T) {
	s, err := Calculate(testutil.Ramp(3, 4, 0), nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"mean", s.Mean, 5.5},
		{"variance", s.Variance, 143.0 / 12},
		{"std", s.Std, math.Sqrt(143.0 / 12)},
		{"skewness", s.Skewness, 0},
		{"median", s.Median, 5.5},
		{"mad", s.MAD, 3},
		{"min", s.Min, 0},
		{"max", s.Max, 11},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want, tolerance) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if s.Count != 12 || s.Masked != 0 || s.NonFinite != 0 {
		t.Errorf("counts = %d/%d/%d, want 12/0/0", s.Count, s.Masked, s.NonFinite)
	}

	if s.MinRow != 0 || s.MinCol != 0 || s.MaxRow != 2 || s.MaxCol != 3 {
		t.Errorf("positions min=(%d,%d) max=(%d,%d)", s.MinRow, s.MinCol, s.MaxRow, s.MaxCol)
	}
}

func TestCalculateExcludesMaskedAndNonFinite(t *testing.T) {
	img := testutil.Ramp(3, 4, 0)
	img.Set(0, 0, math.NaN())

	mask := ccd.NewMask(3, 4)
	mask.Set(2, 3, true)

	s, err := Calculate(img, mask)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if s.Count != 10 || s.Masked != 1 || s.NonFinite != 1 {
		t.Fatalf("counts = %d/%d/%d, want 10/1/1", s.Count, s.Masked, s.NonFinite)
	}

	if s.Min != 1 || s.MinRow != 0 || s.MinCol != 1 {
		t.Errorf("min = %v at (%d,%d), want 1 at (0,1)", s.Min, s.MinRow, s.MinCol)
	}

	if s.Max != 10 || s.MaxRow != 2 || s.MaxCol != 2 {
		t.Errorf("max = %v at (%d,%d), want 10 at (2,2)", s.Max, s.MaxRow, s.MaxCol)
	}

	if !almostEqual(s.Mean, 5.5, tolerance) {
		t.Errorf("mean = %v, want 5.5", s.Mean)
	}
}

func TestCalculateUniform(t *testing.T) {
	s, err := Calculate(testutil.Uniform(5, 5, 1000), nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if s.Mean != 1000 || s.Std != 0 || s.MAD != 0 || s.Skewness != 0 || s.Kurtosis != 0 {
		t.Errorf("uniform stats = %+v", s)
	}

	if s.RobustStd() != 0 {
		t.Errorf("RobustStd = %v, want 0", s.RobustStd())
	}
}

func TestCalculateErrors(t *testing.T) {
	full := ccd.NewMask(2, 2)
	for i := range full.Data {
		full.Data[i] = true
	}

	tests := []struct {
		name string
		img  *ccd.Image
		mask *ccd.Mask
		want error
	}{
		{"nil image", nil, nil, ccd.ErrShapeMismatch},
		{"mask shape", testutil.Uniform(2, 2, 1), ccd.NewMask(3, 2), ccd.ErrShapeMismatch},
		{"fully masked", testutil.Uniform(2, 2, 1), full, ErrNoPixels},
		{"empty image", ccd.NewImage(0, 0), nil, ErrNoPixels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Calculate(tt.img, tt.mask); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClippedRejectsOutlier(t *testing.T) {
	img := testutil.DeterministicNoise(7, 10, 10, 100, 1)
	img.Set(4, 4, 1e4)

	res, err := Clipped(img, nil, 3, 3, 5)
	if err != nil {
		t.Fatalf("Clipped: %v", err)
	}

	if res.Rejected != 1 || res.Kept != 99 {
		t.Errorf("kept/rejected = %d/%d, want 99/1", res.Kept, res.Rejected)
	}

	if res.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", res.Iterations)
	}

	if math.Abs(res.Mean-100) > 0.2 || math.Abs(res.Median-100) > 0.2 {
		t.Errorf("mean=%v median=%v, want near 100", res.Mean, res.Median)
	}

	if res.Std <= 0 || res.Std > 1 {
		t.Errorf("std = %v, want in (0,1]", res.Std)
	}
}

func TestClippedUniformStopsImmediately(t *testing.T) {
	res, err := Clipped(testutil.Uniform(4, 4, 50), nil, 3, 3, 5)
	if err != nil {
		t.Fatalf("Clipped: %v", err)
	}

	if res.Iterations != 1 || res.Kept != 16 || res.Mean != 50 || res.Std != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestClippedInvalidBounds(t *testing.T) {
	img := testutil.Uniform(2, 2, 1)

	tests := []struct {
		low, high float64
		iter      int
	}{
		{0, 3, 5},
		{3, -1, 5},
		{3, 3, 0},
	}

	for _, tc := range tests {
		if _, err := Clipped(img, nil, tc.low, tc.high, tc.iter); err == nil {
			t.Errorf("Clipped(%v, %v, %d): expected error", tc.low, tc.high, tc.iter)
		}
	}
}
