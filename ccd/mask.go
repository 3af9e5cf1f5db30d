package ccd

import "fmt"

// Mask is a boolean pixel map aligned with an [Image]. A true value marks a
// flagged pixel (bad, saturated, rejected).
type Mask struct {
	Rows int
	Cols int
	Data []bool
}

// NewMask returns an all-false mask with the given shape.
func NewMask(rows, cols int) *Mask {
	rows = max(rows, 0)
	cols = max(cols, 0)

	return &Mask{Rows: rows, Cols: cols, Data: make([]bool, rows*cols)}
}

// At returns the flag at row r, column c.
func (m *Mask) At(r, c int) bool { return m.Data[r*m.Cols+c] }

// Set stores the flag at row r, column c.
func (m *Mask) Set(r, c int, v bool) { m.Data[r*m.Cols+c] = v }

// Count returns the number of flagged pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}

	return n
}

// Matches reports whether the mask has the same shape as img.
func (m *Mask) Matches(img *Image) bool {
	return m != nil && img != nil && m.Rows == img.Rows && m.Cols == img.Cols
}

// Clone returns a deep copy of m.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}

	out := &Mask{Rows: m.Rows, Cols: m.Cols, Data: make([]bool, len(m.Data))}
	copy(out.Data, m.Data)

	return out
}

// AmpMap assigns every pixel of a raw frame to an amplifier. Values are
// 1-based amplifier numbers; 0 marks pixels outside every data section
// (overscan, prescan, gaps).
type AmpMap struct {
	Rows int
	Cols int
	Data []int
}

// NewAmpMap returns an amplifier map with every pixel set to 0.
func NewAmpMap(rows, cols int) *AmpMap {
	rows = max(rows, 0)
	cols = max(cols, 0)

	return &AmpMap{Rows: rows, Cols: cols, Data: make([]int, rows*cols)}
}

// At returns the amplifier number at row r, column c.
func (a *AmpMap) At(r, c int) int { return a.Data[r*a.Cols+c] }

// Set stores the amplifier number at row r, column c.
func (a *AmpMap) Set(r, c, amp int) { a.Data[r*a.Cols+c] = amp }

// Matches reports whether the map has the same shape as img.
func (a *AmpMap) Matches(img *Image) bool {
	return a != nil && img != nil && a.Rows == img.Rows && a.Cols == img.Cols
}

// kept returns the rows and columns that contain at least one data pixel.
func (a *AmpMap) kept() (rows, cols []int) {
	rowHas := make([]bool, a.Rows)
	colHas := make([]bool, a.Cols)

	for r := range a.Rows {
		for c := range a.Cols {
			if a.Data[r*a.Cols+c] > 0 {
				rowHas[r] = true
				colHas[c] = true
			}
		}
	}

	for r, ok := range rowHas {
		if ok {
			rows = append(rows, r)
		}
	}

	for c, ok := range colHas {
		if ok {
			cols = append(cols, c)
		}
	}

	return rows, cols
}

// Trimmed returns the amplifier map with every row and column that holds
// no data pixel removed.
func (a *AmpMap) Trimmed() *AmpMap {
	rows, cols := a.kept()
	out := NewAmpMap(len(rows), len(cols))

	for i, r := range rows {
		for j, c := range cols {
			out.Data[i*out.Cols+j] = a.Data[r*a.Cols+c]
		}
	}

	return out
}

// Trim crops img to the data area described by the map: rows and columns
// that contain no data pixel are removed.
func (a *AmpMap) Trim(img *Image) (*Image, error) {
	if !a.Matches(img) {
		return nil, fmt.Errorf("%w: image %s does not match amplifier map %dx%d",
			ErrShapeMismatch, img.ShapeString(), a.Rows, a.Cols)
	}

	rows, cols := a.kept()
	out := NewImage(len(rows), len(cols))

	for i, r := range rows {
		src := img.Row(r)
		dst := out.Row(i)

		for j, c := range cols {
			dst[j] = src[c]
		}
	}

	return out, nil
}
