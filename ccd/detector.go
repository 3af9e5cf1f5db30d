package ccd

import "fmt"

// Detector holds the constant properties of one detector of a
// spectrograph. It is read-only input to the processing stages and safe
// for concurrent use.
type Detector struct {
	Index         int       // 1-based detector number
	DataExt       int       // file extension (HDU) holding this detector
	SpecAxis      int       // 0: spectra run along rows, 1: along columns
	NumAmplifiers int       // number of readout amplifiers
	Gain          []float64 // e-/ADU, one per amplifier
	ReadNoise     []float64 // e-, one per amplifier
	DarkCurrent   float64   // e-/pixel/hour
	Saturation    float64   // ADU
	NonLinear     float64   // fraction of Saturation where the response turns non-linear
}

// Validate checks that the per-amplifier slices agree with NumAmplifiers.
// A single-amplifier detector may carry its gain and read noise as
// one-element slices.
func (d Detector) Validate() error {
	if d.NumAmplifiers < 1 {
		return fmt.Errorf("ccd: detector %d: number of amplifiers must be >= 1, got %d", d.Index, d.NumAmplifiers)
	}

	if len(d.Gain) != d.NumAmplifiers {
		return fmt.Errorf("%w: detector %d: %d gain values for %d amplifiers",
			ErrShapeMismatch, d.Index, len(d.Gain), d.NumAmplifiers)
	}

	if len(d.ReadNoise) != d.NumAmplifiers {
		return fmt.Errorf("%w: detector %d: %d read-noise values for %d amplifiers",
			ErrShapeMismatch, d.Index, len(d.ReadNoise), d.NumAmplifiers)
	}

	return nil
}

// NonLinearCounts returns the count level above which the detector
// response is non-linear.
func (d Detector) NonLinearCounts() float64 {
	return d.NonLinear * d.Saturation
}

// SectionKind selects which image sections a [Provider] reports.
type SectionKind int

const (
	DataSection SectionKind = iota
	OverscanSection
)

// String returns the header-style name of the section kind.
func (k SectionKind) String() string {
	switch k {
	case DataSection:
		return "datasec"
	case OverscanSection:
		return "oscansec"
	default:
		return fmt.Sprintf("SectionKind(%d)", int(k))
	}
}

// SectionSpec carries section descriptors as they appear in a header
// together with the convention needed to interpret them.
type SectionSpec struct {
	Descriptors []string // one per amplifier, e.g. "[1:2048,5:2044]"
	OneIndexed  bool     // bounds count from 1
	IncludeEnd  bool     // the end bound is part of the section
	Transpose   bool     // the first axis of the descriptor is the column axis
}

// Provider is the capability the processing core needs from an
// instrument description. Implementations read raw frames and report
// per-detector geometry and constants.
type Provider interface {
	// Name identifies the instrument in provenance records.
	Name() string

	// Detector returns the properties of the 1-based detector det.
	Detector(det int) (Detector, error)

	// ReadRaw reads the pixel data and header of detector det from path.
	ReadRaw(path string, det int) (*Image, Header, error)

	// Binning returns the on-chip binning recorded in hdr as
	// "spatial,spectral".
	Binning(hdr Header) (string, error)

	// Sections returns the data or overscan section descriptors of
	// detector det as recorded in hdr.
	Sections(hdr Header, det int, kind SectionKind) (SectionSpec, error)
}
