package overscan

import "github.com/cwbudde/algo-ccdproc/ccd"

// Source is the bias source handed to [Subtract]: one of [MasterFrame],
// [Overscan] or [None].
type Source interface {
	// Describe returns a short label for logs and provenance.
	Describe() string

	isSource()
}

// MasterFrame subtracts a precomputed master bias image. The image has the
// raw frame shape, or the trimmed shape when subtracting with trim.
type MasterFrame struct {
	Bias *ccd.Image
}

// Overscan fits and subtracts an overscan model per amplifier.
type Overscan struct {
	Method Method
	Params Params
}

// None applies no bias correction.
type None struct{}

func (MasterFrame) isSource() {}
func (Overscan) isSource()    {}
func (None) isSource()        {}

func (MasterFrame) Describe() string { return "master" }
func (o Overscan) Describe() string  { return "overscan:" + o.Method.String() }
func (None) Describe() string        { return "none" }

// IsNone reports whether src applies no bias correction.
func IsNone(src Source) bool {
	if src == nil {
		return true
	}

	_, ok := src.(None)
	return ok
}
