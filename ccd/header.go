package ccd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qdm12/reprint"
)

// Header holds the key/value metadata of a raw frame. Keys are upper-case
// card names; values are the decoded card values (string, bool, int or
// float64 for FITS input).
type Header map[string]any

// Card is one header record handed to a stack writer.
type Card struct {
	Name    string
	Value   any
	Comment string
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}

	out, ok := reprint.This(h).(Header)
	if !ok {
		out = make(Header, len(h))
		for k, v := range h {
			out[k] = v
		}
	}

	return out
}

// String returns the value of key formatted as a trimmed string.
func (h Header) String(key string) (string, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok || v == nil {
		return "", false
	}

	if s, isString := v.(string); isString {
		return strings.TrimSpace(s), true
	}

	return fmt.Sprint(v), true
}

// Float returns the value of key as float64. Integer and numeric string
// values are converted.
func (h Header) Float(key string) (float64, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}

	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns the value of key as int. Float values are truncated.
func (h Header) Int(key string) (int, bool) {
	f, ok := h.Float(key)
	if !ok {
		return 0, false
	}

	return int(f), true
}
