// Package noise models per-pixel read noise and raw variance of a
// combined stack in electrons.
//
// The read-noise term of amplifier i is
//
//	ronoise_i² + (0.5·gain_i)² + darkcurr·exptime/3600
//
// with the dark current in electrons per hour, so exptime is in seconds.
// The raw variance adds the Poisson term max(stack, 0).
package noise
