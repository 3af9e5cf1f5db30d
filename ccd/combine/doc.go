// Package combine stacks bias-corrected frames into a single image.
//
// Every pixel is reduced independently: the N per-frame values are
// screened for saturation, the n_low/n_high extremes are dropped,
// outliers are removed by iterative sigma clipping around the median and
// the survivors are reduced with the configured statistic. Pixels where
// nothing survives are filled according to a replacement policy. The
// result mask flags every pixel that lost a value or was filled.
//
// A single frame is passed through unchanged.
package combine
