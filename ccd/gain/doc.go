// Package gain converts detector counts (ADU) to electrons by multiplying
// every data pixel with the gain of the amplifier that read it out.
package gain
