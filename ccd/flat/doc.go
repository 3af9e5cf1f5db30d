// Package flat divides a combined image by pixel-response and
// illumination flats. A bad-pixel mask is mandatory: masked pixels and
// pixels with a non-positive flat are left unmodified and reported.
package flat
