package ccd

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by the processing stages. Use errors.Is to test for
// a kind; the concrete error usually is an [*Error] carrying the offending
// step, detector and file.
var (
	ErrFileNotFound        = errors.New("ccd: file not found")
	ErrLoad                = errors.New("ccd: cannot load frame")
	ErrParse               = errors.New("ccd: malformed section")
	ErrShapeMismatch       = errors.New("ccd: shape mismatch")
	ErrUnsupportedMethod   = errors.New("ccd: unsupported method")
	ErrCombine             = errors.New("ccd: cannot combine frames")
	ErrMissingBadPixelMask = errors.New("ccd: bad-pixel mask required")
	ErrNoStack             = errors.New("ccd: no combined stack")
	ErrMissingExposureTime = errors.New("ccd: exposure time not set")

	// ErrDuplicateStep is the kind of the warning issued when a step is
	// requested again without force. It is never returned as a failure.
	ErrDuplicateStep = errors.New("ccd: step already applied")
)

// Error attributes a failure to the step, detector and file it occurred in.
type Error struct {
	Kind error
	Step string
	Det  int
	File string
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var ctx []string
	if e.Step != "" {
		ctx = append(ctx, "step="+e.Step)
	}

	if e.Det > 0 {
		ctx = append(ctx, fmt.Sprintf("det=%d", e.Det))
	}

	if e.File != "" {
		ctx = append(ctx, "file="+e.File)
	}

	msg := e.Kind.Error()
	if len(ctx) > 0 {
		msg += " [" + strings.Join(ctx, " ") + "]"
	}

	if e.Msg != "" {
		msg += ": " + e.Msg
	}

	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an [*Error] of the given kind.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Attribute returns err annotated with step, detector and file. Fields
// already set on an [*Error] in the chain are kept. A nil err stays nil.
func Attribute(err error, step string, det int, file string) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		return &Error{Kind: err, Step: step, Det: det, File: file}
	}

	out := *e
	if out.Step == "" {
		out.Step = step
	}

	if out.Det == 0 {
		out.Det = det
	}

	if out.File == "" {
		out.File = file
	}

	return &out
}

// Annotate prefixes the message of err with the formatted context. An
// [*Error] in the chain is copied so its kind and attribution survive;
// other errors are wrapped.
func Annotate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	prefix := fmt.Sprintf(format, args...)

	var e *Error
	if !errors.As(err, &e) {
		return fmt.Errorf("%s: %w", prefix, err)
	}

	out := *e
	if out.Msg == "" {
		out.Msg = prefix
	} else {
		out.Msg = prefix + ": " + out.Msg
	}

	return &out
}
