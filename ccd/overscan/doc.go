// Package overscan removes the additive bias level from raw frames.
//
// The bias source is a tagged variant ([Source]):
//
//   - [MasterFrame]: a precomputed master bias, subtracted pixel by pixel
//   - [Overscan]: a model fitted to each amplifier's overscan region
//   - [None]: no bias removal
//
// # Overscan fitting
//
// Each amplifier is handled independently because amplifiers drift
// independently; steps in the corrected frame at amplifier boundaries are
// expected. The overscan region is first collapsed with the median across
// its short axis into a profile along the readout direction, then one of
// the following models is fitted:
//
//   - [MethodPolynomial]: least-squares polynomial (params: order)
//   - [MethodSavGol]:     Savitzky-Golay smoothed profile (params: order, window)
//   - [MethodMedian]:     median of the whole overscan region
//   - [MethodMean]:       mean of the whole overscan region
//
// The model is evaluated along the readout direction of the amplifier's
// data section and subtracted from every pixel of that section.
//
// # Pattern noise
//
// [RemovePattern] estimates a periodic bias pattern from the overscan
// profile with an FFT and subtracts the dominant sinusoid from the
// amplifier's data and overscan pixels before the level is fitted. A
// peak that does not clear the median spectral magnitude by a fixed
// factor is treated as noise and nothing is subtracted.
package overscan
