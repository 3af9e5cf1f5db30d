package ccd

import "fmt"

// Image is a two-dimensional float64 pixel array stored row-major.
type Image struct {
	Rows int
	Cols int
	Data []float64
}

// NewImage returns a zero-filled image with the given shape.
// Negative dimensions are treated as zero.
func NewImage(rows, cols int) *Image {
	rows = max(rows, 0)
	cols = max(cols, 0)

	return &Image{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NewImageFilled returns an image with every pixel set to value.
func NewImageFilled(rows, cols int, value float64) *Image {
	img := NewImage(rows, cols)
	for i := range img.Data {
		img.Data[i] = value
	}

	return img
}

// ImageFromSlice wraps data as a rows x cols image without copying.
func ImageFromSlice(rows, cols int, data []float64) (*Image, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d image", ErrShapeMismatch, len(data), rows, cols)
	}

	return &Image{Rows: rows, Cols: cols, Data: data}, nil
}

// Len returns the number of pixels.
func (m *Image) Len() int { return len(m.Data) }

// Shape returns the image dimensions.
func (m *Image) Shape() (rows, cols int) { return m.Rows, m.Cols }

// ShapeString formats the shape as "rows x cols" for messages.
func (m *Image) ShapeString() string {
	if m == nil {
		return "nil"
	}

	return fmt.Sprintf("%dx%d", m.Rows, m.Cols)
}

// At returns the pixel at row r, column c.
func (m *Image) At(r, c int) float64 { return m.Data[r*m.Cols+c] }

// Set stores value at row r, column c.
func (m *Image) Set(r, c int, value float64) { m.Data[r*m.Cols+c] = value }

// Row returns row r as a slice aliasing the image data.
func (m *Image) Row(r int) []float64 { return m.Data[r*m.Cols : (r+1)*m.Cols] }

// SameShape reports whether m and o have identical dimensions.
func (m *Image) SameShape(o *Image) bool {
	return m != nil && o != nil && m.Rows == o.Rows && m.Cols == o.Cols
}

// Clone returns a deep copy of m.
func (m *Image) Clone() *Image {
	if m == nil {
		return nil
	}

	out := &Image{Rows: m.Rows, Cols: m.Cols, Data: make([]float64, len(m.Data))}
	copy(out.Data, m.Data)

	return out
}

// Equal reports whether both images have the same shape and bit-identical pixels.
func (m *Image) Equal(o *Image) bool {
	if !m.SameShape(o) {
		return false
	}

	for i, v := range m.Data {
		if v != o.Data[i] {
			return false
		}
	}

	return true
}

// Region copies rows [r0,r1) and columns [c0,c1) into a new image.
func (m *Image) Region(r0, r1, c0, c1 int) (*Image, error) {
	if r0 < 0 || c0 < 0 || r1 > m.Rows || c1 > m.Cols || r0 > r1 || c0 > c1 {
		return nil, fmt.Errorf("%w: region [%d:%d,%d:%d] outside %s image",
			ErrShapeMismatch, r0, r1, c0, c1, m.ShapeString())
	}

	out := NewImage(r1-r0, c1-c0)
	for r := r0; r < r1; r++ {
		copy(out.Row(r-r0), m.Data[r*m.Cols+c0:r*m.Cols+c1])
	}

	return out, nil
}
