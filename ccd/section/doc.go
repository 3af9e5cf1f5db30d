// Package section converts instrument header section descriptors into
// zero-based, end-exclusive index ranges.
//
// Detector headers describe data and overscan regions with strings such as
//
//	[1:2048,5:2044]
//
// whose meaning depends on the instrument: bounds may count from 0 or 1,
// the end bound may or may not be part of the section, the first axis may
// be the row or the column axis, and the numbers refer to unbinned pixels
// while the stored frame may be binned. [Parse] resolves all of that into
// a [Section] whose ranges can be used directly as slice bounds.
//
// # Usage
//
//	sec, err := section.Parse("[1:2048,5:2044]",
//	    section.WithOneIndexed(), section.WithIncludeEnd(), section.WithTranspose(),
//	    section.WithBinning(2, 1), section.WithShape(rows, cols))
//
// Descriptors listing one region per amplifier are handled by [ParseAll]
// and [ParseSpec]. [AmplifierMap] turns the data sections of all
// amplifiers into a per-pixel amplifier map.
//
// # Conversion order
//
// Each axis is converted in a fixed order: one-indexed bounds are
// decremented, flipped bounds (start > end) are swapped, an inclusive end
// is incremented, and both bounds are divided by the binning factor of
// that axis. Open bounds (":" or "*") expand to the full axis and need
// the frame shape.
package section
