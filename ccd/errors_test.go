package ccd

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAttributeKeepsKind(t *testing.T) {
	base := fmt.Errorf("%w: frame b is 10x10", ErrShapeMismatch)
	err := Attribute(base, "combine", 2, "b.fits")

	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("errors.Is lost the kind: %v", err)
	}

	msg := err.Error()
	for _, part := range []string{"step=combine", "det=2", "file=b.fits"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q does not contain %q", msg, part)
		}
	}
}

func TestAttributeDoesNotOverwrite(t *testing.T) {
	inner := &Error{Kind: ErrParse, File: "a.fits", Msg: "bad bracket"}
	err := Attribute(inner, "load", 1, "other.fits")

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	if e.File != "a.fits" || e.Step != "load" || e.Det != 1 {
		t.Fatalf("unexpected attribution: %+v", e)
	}

	if inner.Step != "" {
		t.Fatal("Attribute mutated the input error")
	}
}

func TestAttributeNil(t *testing.T) {
	if Attribute(nil, "load", 1, "") != nil {
		t.Fatal("nil error must stay nil")
	}
}

func TestHeaderAccessors(t *testing.T) {
	h := Header{"EXPTIME": 30, "CCDSUM": " 2 2 ", "GAIN": "1.5"}

	if v, ok := h.Float("exptime"); !ok || v != 30 {
		t.Fatalf("Float(EXPTIME) = %v, %v", v, ok)
	}

	if v, ok := h.Float("GAIN"); !ok || v != 1.5 {
		t.Fatalf("Float(GAIN) = %v, %v", v, ok)
	}

	if v, ok := h.String("CCDSUM"); !ok || v != "2 2" {
		t.Fatalf("String(CCDSUM) = %q, %v", v, ok)
	}

	if _, ok := h.Int("MISSING"); ok {
		t.Fatal("missing key reported as present")
	}

	c := h.Clone()
	c["EXPTIME"] = 1
	if v, _ := h.Int("EXPTIME"); v != 30 {
		t.Fatal("Clone aliases the source header")
	}
}
