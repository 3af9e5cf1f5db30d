package flat

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/internal/testutil"
)

func TestFieldRequiresBadPixelMask(t *testing.T) {
	stack := testutil.Uniform(4, 4, 100)
	flat := testutil.Uniform(4, 4, 1)

	_, _, err := Field(stack, flat, nil, nil)
	if !errors.Is(err, ccd.ErrMissingBadPixelMask) {
		t.Fatalf("err = %v, want ErrMissingBadPixelMask", err)
	}

	_, _, err = Field(nil, nil, nil, nil)
	if !errors.Is(err, ccd.ErrMissingBadPixelMask) {
		t.Fatalf("nil inputs: err = %v, want ErrMissingBadPixelMask", err)
	}
}

func TestFieldDivides(t *testing.T) {
	stack := testutil.Uniform(2, 3, 100)
	pixel, _ := ccd.ImageFromSlice(2, 3, []float64{1, 2, 0.5, 0, -1, 1})
	illum := testutil.Uniform(2, 3, 0.5)

	bpm := ccd.NewMask(2, 3)
	bpm.Set(1, 2, true)

	got, skipped, err := Field(stack, pixel, bpm, illum)
	if err != nil {
		t.Fatalf("Field: %v", err)
	}

	want := []float64{200, 100, 400, 100, 100, 100}
	for i, w := range want {
		if math.Abs(got.Data[i]-w) > 1e-12 {
			t.Fatalf("pixel %d = %v, want %v", i, got.Data[i], w)
		}
	}

	wantSkipped := []bool{false, false, false, true, true, true}
	for i, w := range wantSkipped {
		if skipped.Data[i] != w {
			t.Fatalf("skipped[%d] = %v, want %v", i, skipped.Data[i], w)
		}
	}

	if stack.Data[0] != 100 || pixel.Data[1] != 2 {
		t.Fatal("inputs modified")
	}
}

func TestFieldShapeMismatch(t *testing.T) {
	stack := testutil.Uniform(4, 4, 100)
	bpm := ccd.NewMask(4, 4)

	cases := []struct {
		name  string
		flat  *ccd.Image
		bpm   *ccd.Mask
		illum *ccd.Image
	}{
		{"flat", testutil.Uniform(4, 5, 1), bpm, nil},
		{"mask", testutil.Uniform(4, 4, 1), ccd.NewMask(3, 4), nil},
		{"illum", testutil.Uniform(4, 4, 1), bpm, testutil.Uniform(5, 4, 1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Field(stack, tc.flat, tc.bpm, tc.illum); !errors.Is(err, ccd.ErrShapeMismatch) {
				t.Fatalf("err = %v, want ErrShapeMismatch", err)
			}
		})
	}
}
