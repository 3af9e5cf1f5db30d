// Package process orchestrates the processing of the raw frames of one
// detector into a combined stack.
//
// A [Run] keeps an ordered [Steps] record of the stages it executed:
//
//	load → [pattern] → bias | trim → combine → [gain] → [flat] → [rn2, variance]
//
// Requesting a stage that already ran is a no-op that records a
// ccd.ErrDuplicateStep warning unless force is passed, so a frame is
// never bias subtracted or gain corrected twice by accident. Fatal
// errors are [*ccd.Error] values naming the step, detector and file.
package process
