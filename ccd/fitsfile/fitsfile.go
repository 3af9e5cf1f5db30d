package fitsfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// maxStringValue is the longest string a single header card can hold.
const maxStringValue = 68

var (
	ErrNotImage = errors.New("fitsfile: HDU is not an image")
	ErrNoHDU    = errors.New("fitsfile: HDU index out of range")
	ErrAxes     = errors.New("fitsfile: image is not two-dimensional")
	ErrBitpix   = errors.New("fitsfile: unsupported BITPIX")
	ErrNilImage = errors.New("fitsfile: nil image")
)

// Read returns the pixels and header of HDU hdu (0 is the primary HDU) of
// the FITS file at path.
func Read(path string, hdu int) (*ccd.Image, ccd.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return Decode(f, hdu)
}

// Decode reads HDU hdu from a FITS stream.
func Decode(r io.Reader, hdu int) (*ccd.Image, ccd.Header, error) {
	ff, err := fitsio.Open(r)
	if err != nil {
		return nil, nil, fmt.Errorf("fitsfile: open: %w", err)
	}
	defer ff.Close()

	if hdu < 0 || hdu >= len(ff.HDUs()) {
		return nil, nil, fmt.Errorf("%w: %d of %d", ErrNoHDU, hdu, len(ff.HDUs()))
	}

	img, ok := ff.HDU(hdu).(fitsio.Image)
	if !ok {
		return nil, nil, fmt.Errorf("%w: HDU %d", ErrNotImage, hdu)
	}

	hdr := header(img.Header())

	axes := img.Header().Axes()
	if len(axes) != 2 {
		return nil, nil, fmt.Errorf("%w: HDU %d has %d axes", ErrAxes, hdu, len(axes))
	}

	cols, rows := axes[0], axes[1]

	data, err := pixels(img, rows*cols)
	if err != nil {
		return nil, nil, fmt.Errorf("HDU %d: %w", hdu, err)
	}

	bscale, ok := hdr.Float("BSCALE")
	if !ok {
		bscale = 1
	}

	bzero, _ := hdr.Float("BZERO")
	if bscale != 1 || bzero != 0 {
		for i, v := range data {
			data[i] = v*bscale + bzero
		}
	}

	out, err := ccd.ImageFromSlice(rows, cols, data)
	if err != nil {
		return nil, nil, err
	}

	return out, hdr, nil
}

func header(h *fitsio.Header) ccd.Header {
	out := make(ccd.Header, len(h.Keys()))
	for _, k := range h.Keys() {
		if c := h.Get(k); c != nil {
			out[strings.ToUpper(k)] = c.Value
		}
	}
	return out
}

// pixels decodes the image data as float64 whatever its BITPIX.
func pixels(img fitsio.Image, n int) ([]float64, error) {
	out := make([]float64, n)

	switch bitpix := img.Header().Bitpix(); bitpix {
	case 8:
		var buf []byte
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf[:n] {
			out[i] = float64(v)
		}
	case 16:
		var buf []int16
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf[:n] {
			out[i] = float64(v)
		}
	case 32:
		var buf []int32
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf[:n] {
			out[i] = float64(v)
		}
	case 64:
		var buf []int64
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf[:n] {
			out[i] = float64(v)
		}
	case -32:
		var buf []float32
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf[:n] {
			out[i] = float64(v)
		}
	case -64:
		var buf []float64
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		copy(out, buf)
	default:
		return nil, fmt.Errorf("%w: %d", ErrBitpix, bitpix)
	}

	return out, nil
}

// Write encodes img as a 64-bit float primary HDU with the given cards.
// String values longer than a card can hold are truncated.
func Write(w io.Writer, img *ccd.Image, cards []ccd.Card) error {
	if img == nil {
		return ErrNilImage
	}

	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	im := fitsio.NewImage(-64, []int{img.Cols, img.Rows})
	defer im.Close()

	fc := make([]fitsio.Card, 0, len(cards))
	for _, c := range cards {
		v := c.Value
		if s, ok := v.(string); ok && len(s) > maxStringValue {
			v = s[:maxStringValue]
		}

		fc = append(fc, fitsio.Card{Name: c.Name, Value: v, Comment: c.Comment})
	}

	if err := im.Header().Append(fc...); err != nil {
		return fmt.Errorf("fitsfile: header: %w", err)
	}

	if err := im.Write(img.Data); err != nil {
		return fmt.Errorf("fitsfile: pixels: %w", err)
	}

	return f.Write(im)
}

// WriteFile creates path and writes img with cards to it.
func WriteFile(path string, img *ccd.Image, cards []ccd.Card) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, img, cards); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
