package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// RequireImageNearlyEqual fails t if got and want differ in shape or if
// any pixel pair differs by more than eps (absolute tolerance).
func RequireImageNearlyEqual(t *testing.T, got, want *ccd.Image, eps float64) {
	t.Helper()
	if !got.SameShape(want) {
		t.Fatalf("shape mismatch: got %s, want %s", got.ShapeString(), want.ShapeString())
	}
	for i := range got.Data {
		diff := math.Abs(got.Data[i] - want.Data[i])
		if diff > eps {
			t.Fatalf("pixel (%d,%d): got %v, want %v (diff %v > eps %v)",
				i/got.Cols, i%got.Cols, got.Data[i], want.Data[i], diff, eps)
		}
	}
}

// RequireUniform fails t if any pixel of img differs from value by more than eps.
func RequireUniform(t *testing.T, img *ccd.Image, value, eps float64) {
	t.Helper()
	for i, v := range img.Data {
		if math.Abs(v-value) > eps {
			t.Fatalf("pixel (%d,%d): got %v, want %v", i/img.Cols, i%img.Cols, v, value)
		}
	}
}

// RequireFinite fails t if any pixel is NaN or Inf.
func RequireFinite(t *testing.T, img *ccd.Image) {
	t.Helper()
	for i, v := range img.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("pixel (%d,%d): non-finite value %v", i/img.Cols, i%img.Cols, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute pixel difference between two images.
// Returns an error if the shapes differ.
func MaxAbsDiff(a, b *ccd.Image) (float64, error) {
	if !a.SameShape(b) {
		return 0, fmt.Errorf("shape mismatch: %s vs %s", a.ShapeString(), b.ShapeString())
	}
	maxDiff := 0.0
	for i := range a.Data {
		d := math.Abs(a.Data[i] - b.Data[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
