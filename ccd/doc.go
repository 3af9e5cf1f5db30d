// Package ccd defines the data model shared by the CCD frame-processing
// packages: two-dimensional images and masks, amplifier maps, header
// metadata, detector properties, and the error kinds used across the
// processing stages.
//
// The packages below ccd implement the individual stages:
//
//   - [github.com/cwbudde/algo-ccdproc/ccd/section]: header section descriptors to index ranges
//   - [github.com/cwbudde/algo-ccdproc/ccd/load]: raw frame loading through a [Provider]
//   - [github.com/cwbudde/algo-ccdproc/ccd/overscan]: master-bias and overscan subtraction
//   - [github.com/cwbudde/algo-ccdproc/ccd/gain]: ADU to electron conversion per amplifier
//   - [github.com/cwbudde/algo-ccdproc/ccd/combine]: statistical frame combination with rejection
//   - [github.com/cwbudde/algo-ccdproc/ccd/flat]: pixel and illumination flat-fielding
//   - [github.com/cwbudde/algo-ccdproc/ccd/noise]: read-noise and variance models
//   - [github.com/cwbudde/algo-ccdproc/ccd/process]: the run driver that chains the stages
//
// # Conventions
//
// Images are stored row-major. Row r, column c lives at Data[r*Cols+c].
// Index ranges are zero-based with an exclusive end, the same convention
// as Go slicing.
//
// Instrument specifics (header keywords, detector constants, file layout)
// are supplied by a [Provider]. Nothing in this module parses
// instrument-specific headers itself.
package ccd
