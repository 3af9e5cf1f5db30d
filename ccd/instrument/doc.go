// Package instrument provides a header-driven [ccd.Provider] for
// detectors that describe their geometry with IRAF-style keywords.
//
// Sections are read from DATASEC and BIASSEC (or DATASECn/BIASSECn per
// amplifier), interpreted as one-indexed, end-inclusive and in FITS
// (x, y) order. Binning comes from CCDSUM. The detector constants are
// supplied as a table, typically decoded from JSON with [Decode].
package instrument
