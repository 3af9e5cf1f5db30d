package testutil

import (
	"math/rand"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Uniform returns a rows x cols image filled with value.
func Uniform(rows, cols int, value float64) *ccd.Image {
	return ccd.NewImageFilled(rows, cols, value)
}

// Ramp returns an image whose pixel (r, c) holds base + r*cols + c.
func Ramp(rows, cols int, base float64) *ccd.Image {
	img := ccd.NewImage(rows, cols)
	for i := range img.Data {
		img.Data[i] = base + float64(i)
	}
	return img
}

// DeterministicNoise returns level plus uniform noise in [-amplitude, amplitude)
// drawn from a fixed seed for reproducibility.
func DeterministicNoise(seed int64, rows, cols int, level, amplitude float64) *ccd.Image {
	img := ccd.NewImage(rows, cols)
	rng := rand.New(rand.NewSource(seed))
	for i := range img.Data {
		img.Data[i] = level + (rng.Float64()*2-1)*amplitude
	}
	return img
}

// Fill sets every pixel of img inside rows [r0,r1) and columns [c0,c1) to value.
func Fill(img *ccd.Image, r0, r1, c0, c1 int, value float64) {
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			img.Set(r, c, value)
		}
	}
}

// Copies returns n deep copies of img.
func Copies(img *ccd.Image, n int) []*ccd.Image {
	out := make([]*ccd.Image, n)
	for i := range out {
		out[i] = img.Clone()
	}
	return out
}
