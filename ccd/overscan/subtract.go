package overscan

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/section"
	"github.com/cwbudde/algo-ccdproc/internal/polyfit"
)

// Geometry holds the per-amplifier sections of one raw frame.
type Geometry struct {
	DataSec  []section.Section
	OscanSec []section.Section
}

// Subtract removes the bias given by src from raw and returns a new image.
// With trim the result is cropped to the data area described by amp;
// amp may be nil when trim is false.
//
// A [MasterFrame] must match the raw shape; with trim it is trimmed
// together with the frame, and an already trimmed master is also accepted. An [Overscan] source fits every amplifier separately and
// only modifies data-section pixels. Any other source, including [None],
// fails with ccd.ErrUnsupportedMethod.
func Subtract(raw *ccd.Image, geom Geometry, amp *ccd.AmpMap, src Source, trim bool) (*ccd.Image, error) {
	if raw == nil {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "nil raw image")
	}

	if trim && amp == nil {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "trim requested without an amplifier map")
	}

	switch s := src.(type) {
	case MasterFrame:
		return subtractMaster(raw, amp, s.Bias, trim)
	case Overscan:
		return subtractOverscan(raw, geom, amp, s, trim)
	default:
		return nil, ccd.Errorf(ccd.ErrUnsupportedMethod, "bias source %T is neither a master frame nor an overscan method", src)
	}
}

func subtractMaster(raw *ccd.Image, amp *ccd.AmpMap, bias *ccd.Image, trim bool) (*ccd.Image, error) {
	if bias == nil {
		return nil, ccd.Errorf(ccd.ErrUnsupportedMethod, "master bias frame is nil")
	}

	img := raw
	if trim {
		var err error
		if img, err = amp.Trim(raw); err != nil {
			return nil, err
		}

		// A raw-shaped master is trimmed by the same data sections.
		if bias.SameShape(raw) {
			if bias, err = amp.Trim(bias); err != nil {
				return nil, err
			}
		}
	} else {
		img = raw.Clone()
	}

	if !img.SameShape(bias) {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "master bias %s does not match frame %s",
			bias.ShapeString(), img.ShapeString())
	}

	for i, b := range bias.Data {
		img.Data[i] -= b
	}

	return img, nil
}

func subtractOverscan(raw *ccd.Image, geom Geometry, amp *ccd.AmpMap, o Overscan, trim bool) (*ccd.Image, error) {
	if !o.Method.Valid() {
		return nil, ccd.Errorf(ccd.ErrUnsupportedMethod, "overscan method %s", o.Method)
	}

	if len(geom.OscanSec) == 0 {
		return nil, ccd.Errorf(ccd.ErrUnsupportedMethod, "overscan subtraction requested but the detector has no overscan sections")
	}

	if len(geom.OscanSec) != len(geom.DataSec) {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "%d overscan sections for %d data sections",
			len(geom.OscanSec), len(geom.DataSec))
	}

	out := raw.Clone()

	for i, data := range geom.DataSec {
		level, axis, err := Level(raw, data, geom.OscanSec[i], o.Method, o.Params)
		if err != nil {
			return nil, ccd.Annotate(err, "amplifier %d", i+1)
		}

		for r := data.Rows.Start; r < data.Rows.Stop; r++ {
			row := out.Row(r)
			for c := data.Cols.Start; c < data.Cols.Stop; c++ {
				if axis == 0 {
					row[c] -= level[r-data.Rows.Start]
				} else {
					row[c] -= level[c-data.Cols.Start]
				}
			}
		}
	}

	if trim {
		return amp.Trim(out)
	}

	return out, nil
}

// ReadoutAxis returns the axis along which the bias level is modelled:
// 0 when the overscan runs alongside the data rows (level varies with
// row), 1 when it runs alongside the data columns.
func ReadoutAxis(data, oscan section.Section) int {
	switch {
	case oscan.Rows == data.Rows:
		return 0
	case oscan.Cols == data.Cols:
		return 1
	case oscan.Rows.Len() >= oscan.Cols.Len():
		return 0
	default:
		return 1
	}
}

// Profile collapses the overscan region of raw with the median across
// the axis perpendicular to axis. Element i corresponds to row (or
// column) oscan.Rows.Start+i (oscan.Cols.Start+i).
func Profile(raw *ccd.Image, oscan section.Section, axis int) ([]float64, error) {
	region, err := oscan.Extract(raw)
	if err != nil {
		return nil, err
	}

	if axis == 0 {
		out := make([]float64, region.Rows)
		for r := range region.Rows {
			if out[r], err = stats.Median(region.Row(r)); err != nil {
				return nil, err
			}
		}

		return out, nil
	}

	out := make([]float64, region.Cols)
	col := make([]float64, region.Rows)

	for c := range region.Cols {
		for r := range region.Rows {
			col[r] = region.At(r, c)
		}

		if out[c], err = stats.Median(col); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Level fits the overscan model of one amplifier and evaluates it along
// the readout axis of its data section. It returns one level per data
// row (axis 0) or data column (axis 1).
func Level(raw *ccd.Image, data, oscan section.Section, m Method, p Params) ([]float64, int, error) {
	axis := ReadoutAxis(data, oscan)

	dataRange, oscanRange := data.Rows, oscan.Rows
	if axis == 1 {
		dataRange, oscanRange = data.Cols, oscan.Cols
	}

	level := make([]float64, dataRange.Len())

	switch m {
	case MethodMedian, MethodMean:
		region, err := oscan.Extract(raw)
		if err != nil {
			return nil, axis, err
		}

		var v float64
		if m == MethodMedian {
			if v, err = stats.Median(region.Data); err != nil {
				return nil, axis, err
			}
		} else {
			v = stat.Mean(region.Data, nil)
		}

		for i := range level {
			level[i] = v
		}

	case MethodPolynomial:
		profile, err := Profile(raw, oscan, axis)
		if err != nil {
			return nil, axis, err
		}

		poly, err := polyfit.FitIndex(profile, oscanRange.Start, p.Order)
		if err != nil {
			return nil, axis, fmt.Errorf("%w: polynomial order %d: %w", ccd.ErrShapeMismatch, p.Order, err)
		}

		for i := range level {
			level[i] = poly.Eval(float64(dataRange.Start + i))
		}

	case MethodSavGol:
		profile, err := Profile(raw, oscan, axis)
		if err != nil {
			return nil, axis, err
		}

		if dataRange.Start < oscanRange.Start || dataRange.Stop > oscanRange.Stop {
			return nil, axis, ccd.Errorf(ccd.ErrShapeMismatch,
				"savgol overscan %s does not cover data range %s", oscanRange, dataRange)
		}

		smooth, err := polyfit.SavGol(profile, p.Order, p.Window)
		if err != nil {
			return nil, axis, fmt.Errorf("%w: savgol order %d window %d: %w", ccd.ErrShapeMismatch, p.Order, p.Window, err)
		}

		for i := range level {
			level[i] = smooth[dataRange.Start+i-oscanRange.Start]
		}

	default:
		return nil, axis, ccd.Errorf(ccd.ErrUnsupportedMethod, "overscan method %s", m)
	}

	return level, axis, nil
}
