package polyfit

import (
	"errors"
	"math"
	"testing"
)

func TestFitRecoversPolynomial(t *testing.T) {
	x := make([]float64, 50)
	y := make([]float64, 50)

	for i := range x {
		x[i] = float64(i * 40)
		y[i] = 3 - 0.5*x[i] + 2e-4*x[i]*x[i]
	}

	p, err := Fit(x, y, 2)
	if err != nil {
		t.Fatal(err)
	}

	for _, xv := range []float64{0, 123, 1960} {
		want := 3 - 0.5*xv + 2e-4*xv*xv
		if got := p.Eval(xv); math.Abs(got-want) > 1e-7 {
			t.Fatalf("Eval(%v) = %v, want %v", xv, got, want)
		}
	}
}

func TestFitConstant(t *testing.T) {
	p, err := FitIndex([]float64{50, 50, 50, 50}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}

	if got := p.Eval(1000); math.Abs(got-50) > 1e-12 {
		t.Fatalf("constant fit = %v, want 50", got)
	}

	if p.Order() != 0 {
		t.Fatalf("Order = %d, want 0", p.Order())
	}
}

func TestFitErrors(t *testing.T) {
	if _, err := Fit([]float64{1, 2}, []float64{1, 2}, -1); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}

	if _, err := Fit([]float64{1, 2}, []float64{1, 2}, 2); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}

	if _, err := Fit([]float64{1, 2}, []float64{1}, 0); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}

	if _, err := Fit([]float64{3, 3, 3}, []float64{1, 2, 3}, 1); !errors.Is(err, ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestSavGolPreservesPolynomial(t *testing.T) {
	y := make([]float64, 40)
	for i := range y {
		fi := float64(i)
		y[i] = 1 + 0.3*fi - 0.01*fi*fi
	}

	out, err := SavGol(y, 2, 7)
	if err != nil {
		t.Fatal(err)
	}

	for i := range y {
		if math.Abs(out[i]-y[i]) > 1e-9 {
			t.Fatalf("index %d: got %v, want %v", i, out[i], y[i])
		}
	}
}

func TestSavGolSmoothsSpike(t *testing.T) {
	y := make([]float64, 21)
	y[10] = 21

	out, err := SavGol(y, 0, 7)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(out[10]-3) > 1e-12 {
		t.Fatalf("smoothed spike = %v, want 3", out[10])
	}
}

func TestSavGolWindowTooShort(t *testing.T) {
	if _, err := SavGol([]float64{1, 2, 3}, 3, 5); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}
