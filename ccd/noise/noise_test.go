package noise

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/internal/testutil"
)

func twoAmpDetector() ccd.Detector {
	return ccd.Detector{
		Index:         1,
		NumAmplifiers: 2,
		Gain:          []float64{2, 4},
		ReadNoise:     []float64{3, 5},
		DarkCurrent:   7.2,
	}
}

func TestReadNoise2(t *testing.T) {
	amp := ccd.NewAmpMap(1, 3)
	copy(amp.Data, []int{1, 2, 0})

	rn2, err := ReadNoise2(amp, twoAmpDetector(), 1000)
	if err != nil {
		t.Fatalf("ReadNoise2: %v", err)
	}

	// dark: 7.2 * 1000 / 3600 = 2
	want := []float64{9 + 1 + 2, 25 + 4 + 2, 0}
	for i, w := range want {
		if math.Abs(rn2.Data[i]-w) > 1e-12 {
			t.Fatalf("rn2[%d] = %v, want %v", i, rn2.Data[i], w)
		}
	}
}

func TestReadNoise2Errors(t *testing.T) {
	amp := ccd.NewAmpMap(2, 2)

	for _, exptime := range []float64{math.NaN(), -1, math.Inf(1)} {
		if _, err := ReadNoise2(amp, twoAmpDetector(), exptime); !errors.Is(err, ccd.ErrMissingExposureTime) {
			t.Fatalf("exptime %v: err = %v, want ErrMissingExposureTime", exptime, err)
		}
	}

	det := twoAmpDetector()
	det.Gain = det.Gain[:1]
	if _, err := ReadNoise2(amp, det, 1); !errors.Is(err, ccd.ErrShapeMismatch) {
		t.Fatalf("short gain list: err = %v", err)
	}

	amp.Data[0] = 3
	if _, err := ReadNoise2(amp, twoAmpDetector(), 1); !errors.Is(err, ccd.ErrShapeMismatch) {
		t.Fatalf("unknown amplifier: err = %v", err)
	}
}

func TestRawVariance(t *testing.T) {
	stack, _ := ccd.ImageFromSlice(1, 3, []float64{100, -50, math.NaN()})
	rn2 := testutil.Uniform(1, 3, 10)

	v, err := RawVariance(stack, rn2)
	if err != nil {
		t.Fatalf("RawVariance: %v", err)
	}

	want := []float64{110, 10, 10}
	for i, w := range want {
		if v.Data[i] != w {
			t.Fatalf("var[%d] = %v, want %v", i, v.Data[i], w)
		}
	}

	if _, err := RawVariance(nil, rn2); !errors.Is(err, ccd.ErrNoStack) {
		t.Fatalf("nil stack: err = %v", err)
	}

	if _, err := RawVariance(stack, testutil.Uniform(3, 1, 1)); !errors.Is(err, ccd.ErrShapeMismatch) {
		t.Fatalf("shape: err = %v", err)
	}
}
