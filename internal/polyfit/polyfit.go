// Package polyfit provides least-squares polynomial fitting and
// Savitzky-Golay smoothing for one-dimensional profiles.
package polyfit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidOrder is returned for a negative polynomial order.
	ErrInvalidOrder = errors.New("polyfit: invalid order")
	// ErrTooFewPoints is returned when there are not more points than coefficients.
	ErrTooFewPoints = errors.New("polyfit: too few points for order")
	// ErrDegenerate is returned when the normal system cannot be solved.
	ErrDegenerate = errors.New("polyfit: degenerate fit")
	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("polyfit: x and y length mismatch")
)

// Poly is a polynomial in the normalised variable t = (x - Center) / Scale.
// Coeffs are in ascending power order.
type Poly struct {
	Coeffs []float64
	Center float64
	Scale  float64
}

// Eval evaluates p at x using Horner's scheme.
func (p Poly) Eval(x float64) float64 {
	if len(p.Coeffs) == 0 {
		return 0
	}

	scale := p.Scale
	if scale == 0 {
		scale = 1
	}

	t := (x - p.Center) / scale
	y := p.Coeffs[len(p.Coeffs)-1]

	for i := len(p.Coeffs) - 2; i >= 0; i-- {
		y = y*t + p.Coeffs[i]
	}

	return y
}

// Order returns the polynomial order.
func (p Poly) Order() int { return len(p.Coeffs) - 1 }

// Fit returns the least-squares polynomial of the given order through
// (x[i], y[i]). The abscissa is normalised to [-1, 1] before the solve to
// keep the Vandermonde system well conditioned.
func Fit(x, y []float64, order int) (Poly, error) {
	if order < 0 {
		return Poly{}, ErrInvalidOrder
	}

	if len(x) != len(y) {
		return Poly{}, ErrLengthMismatch
	}

	n := len(x)
	if n <= order {
		return Poly{}, ErrTooFewPoints
	}

	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	center := (lo + hi) / 2
	scale := (hi - lo) / 2

	if scale == 0 {
		if order > 0 {
			return Poly{}, ErrDegenerate
		}

		scale = 1
	}

	cols := order + 1
	a := mat.NewDense(n, cols, nil)

	for i, xi := range x {
		t := (xi - center) / scale
		p := 1.0

		for j := range cols {
			a.Set(i, j, p)
			p *= t
		}
	}

	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return Poly{}, ErrDegenerate
		}
	}

	coeffs := make([]float64, cols)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
		if math.IsNaN(coeffs[j]) || math.IsInf(coeffs[j], 0) {
			return Poly{}, ErrDegenerate
		}
	}

	return Poly{Coeffs: coeffs, Center: center, Scale: scale}, nil
}

// FitIndex fits y against its own indices offset by start, i.e. the
// abscissa of y[i] is start+i.
func FitIndex(y []float64, start, order int) (Poly, error) {
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(start + i)
	}

	return Fit(x, y, order)
}

// SavGol smooths y with a Savitzky-Golay filter: every output sample is
// the value at that position of the polynomial of the given order fitted
// over a window of the given odd length. Near the ends the window is
// shifted inward instead of padded. A window longer than y is reduced to
// the longest odd length that fits.
func SavGol(y []float64, order, window int) ([]float64, error) {
	if order < 0 {
		return nil, ErrInvalidOrder
	}

	n := len(y)
	if window > n {
		window = n
	}

	if window%2 == 0 {
		window--
	}

	if window <= order {
		return nil, ErrTooFewPoints
	}

	out := make([]float64, n)
	x := make([]float64, window)

	for i := range n {
		start := min(max(i-window/2, 0), n-window)
		for k := range x {
			x[k] = float64(start + k)
		}

		p, err := Fit(x, y[start:start+window], order)
		if err != nil {
			return nil, err
		}

		out[i] = p.Eval(float64(i))
	}

	return out, nil
}
