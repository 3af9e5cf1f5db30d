package pixel_test

import (
	"fmt"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/stats/pixel"
)

func ExampleCalculate() {
	img := ccd.NewImage(2, 3)
	copy(img.Data, []float64{4, 8, 6, 5, 100, 7})

	mask := ccd.NewMask(2, 3)
	mask.Set(1, 1, true)

	s, err := pixel.Calculate(img, mask)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("n=%d mean=%.1f median=%.1f max=%.0f at (%d,%d)\n",
		s.Count, s.Mean, s.Median, s.Max, s.MaxRow, s.MaxCol)

	// Output:
	// n=5 mean=6.0 median=6.0 max=8 at (0,1)
}
