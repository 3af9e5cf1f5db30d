package overscan

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Method selects the overscan model.
type Method int

const (
	MethodPolynomial Method = iota
	MethodSavGol
	MethodMedian
	MethodMean

	methodCount // sentinel
)

var methodNames = [methodCount]string{"polynomial", "savgol", "median", "mean"}

// String returns the configuration name of the method.
func (m Method) String() string {
	if m.Valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m >= 0 && m < methodCount
}

// ParseMethod returns the method with the given configuration name.
func ParseMethod(name string) (Method, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range methodNames {
		if s == n {
			return Method(i), nil
		}
	}

	return 0, ccd.Errorf(ccd.ErrUnsupportedMethod, "overscan method %q", name)
}

// Params holds the fitting parameters of an overscan method.
type Params struct {
	Order  int // polynomial order (polynomial, savgol)
	Window int // smoothing window in pixels (savgol)
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams(m Method) Params {
	switch m {
	case MethodPolynomial:
		return Params{Order: 1}
	case MethodSavGol:
		return Params{Order: 2, Window: 65}
	default:
		return Params{}
	}
}

// ParamsFromSlice converts a numeric parameter list as found in
// configuration files: [order] for polynomial, [order, window] for
// savgol. Missing entries keep their defaults.
func ParamsFromSlice(m Method, values []float64) (Params, error) {
	p := DefaultParams(m)

	for _, v := range values {
		if v != math.Trunc(v) || v < 0 {
			return Params{}, fmt.Errorf("overscan: %s parameters must be non-negative integers, got %v", m, values)
		}
	}

	switch m {
	case MethodPolynomial:
		if len(values) > 0 {
			p.Order = int(values[0])
		}
	case MethodSavGol:
		if len(values) > 0 {
			p.Order = int(values[0])
		}

		if len(values) > 1 {
			p.Window = int(values[1])
		}

		if p.Window <= p.Order {
			return Params{}, fmt.Errorf("overscan: savgol window %d must exceed order %d", p.Window, p.Order)
		}
	}

	return p, nil
}

// Slice returns p in the configuration-file form accepted by ParamsFromSlice.
func (p Params) Slice(m Method) []float64 {
	switch m {
	case MethodPolynomial:
		return []float64{float64(p.Order)}
	case MethodSavGol:
		return []float64{float64(p.Order), float64(p.Window)}
	default:
		return nil
	}
}
