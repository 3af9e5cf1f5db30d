// Package pixel computes summary statistics over CCD images.
//
// [Calculate] gathers moments, extrema with their pixel positions, and
// robust location/scale estimates in one call. Masked and non-finite pixels
// are excluded and counted separately. [Clipped] repeats the robust estimate
// with iterative sigma clipping, which is the usual way to characterise the
// sky or bias level of a frame with cosmic rays or hot pixels present.
package pixel
