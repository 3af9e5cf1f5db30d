// Package fitsfile reads raw detector frames from FITS files and writes
// combined stacks with their provenance cards.
//
// Pixel (r, c) of a [ccd.Image] is FITS pixel (NAXIS1 = c+1, NAXIS2 = r+1),
// so NAXIS1 is the column count. Integer data is scaled with BSCALE and
// BZERO on read; stacks are written as 64-bit floats.
package fitsfile
