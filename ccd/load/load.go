// Package load reads raw detector frames through a [ccd.Provider] and
// resolves their binning and per-amplifier data and overscan sections.
package load

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/section"
)

// Step is the name recorded for a load in provenance and error messages.
const Step = "load"

// Raw is one raw frame as read from disk. It is not modified after Load
// returns.
type Raw struct {
	Path     string
	Image    *ccd.Image
	Header   ccd.Header
	Binning  section.Binning
	DataSec  []section.Section // one per amplifier
	OscanSec []section.Section // one per amplifier, empty if the detector has no overscan
}

// CheckFiles verifies that every path names an existing regular file. It
// reports the first missing path with ccd.ErrFileNotFound.
func CheckFiles(paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return &ccd.Error{Kind: ccd.ErrFileNotFound, Step: Step, File: p, Msg: "does not exist"}
		}
	}

	return nil
}

// Loader reads raw frames of one instrument.
type Loader struct {
	provider ccd.Provider
}

// New returns a Loader backed by p.
func New(p ccd.Provider) *Loader {
	return &Loader{provider: p}
}

// Load reads detector det (1-based) from every path. If binning is empty
// the binning of each frame is taken from its own header; otherwise the
// given "spatial,spectral" binning is used for all frames. Sections are
// resolved per file because binning may differ between files.
//
// All files are checked for existence before the first read. All frames
// must share the same raw shape.
func (l *Loader) Load(paths []string, det int, binning string) ([]*Raw, error) {
	if len(paths) == 0 {
		return nil, &ccd.Error{Kind: ccd.ErrLoad, Step: Step, Det: det, Msg: "no files given"}
	}

	if err := CheckFiles(paths); err != nil {
		return nil, err
	}

	if l.provider == nil {
		return nil, &ccd.Error{Kind: ccd.ErrLoad, Step: Step, Det: det, Msg: "no instrument provider"}
	}

	detector, err := l.provider.Detector(det)
	if err != nil {
		return nil, ccd.Attribute(fmt.Errorf("%w: %w", ccd.ErrLoad, err), Step, det, "")
	}

	if err := detector.Validate(); err != nil {
		return nil, ccd.Attribute(err, Step, det, "")
	}

	var override *section.Binning
	if binning != "" {
		b, err := section.ParseBinning(binning)
		if err != nil {
			return nil, ccd.Attribute(err, Step, det, "")
		}

		override = &b
	}

	raws := make([]*Raw, 0, len(paths))
	for _, p := range paths {
		raw, err := l.loadOne(p, detector, override)
		if err != nil {
			return nil, ccd.Attribute(err, Step, det, p)
		}

		if len(raws) > 0 && !raws[0].Image.SameShape(raw.Image) {
			return nil, &ccd.Error{
				Kind: ccd.ErrShapeMismatch, Step: Step, Det: det, File: p,
				Msg: fmt.Sprintf("raw shape %s differs from %s (%s)",
					raw.Image.ShapeString(), raws[0].Image.ShapeString(), raws[0].Path),
			}
		}

		raws = append(raws, raw)
	}

	return raws, nil
}

func (l *Loader) loadOne(path string, det ccd.Detector, override *section.Binning) (*Raw, error) {
	img, hdr, err := l.provider.ReadRaw(path, det.Index)
	if err != nil {
		return nil, loadError(err)
	}

	if img == nil || img.Len() == 0 {
		return nil, &ccd.Error{Kind: ccd.ErrLoad, Msg: "empty pixel array"}
	}

	raw := &Raw{Path: path, Image: img, Header: hdr}

	if override != nil {
		raw.Binning = *override
	} else {
		s, err := l.provider.Binning(hdr)
		if err != nil {
			return nil, loadError(err)
		}

		if raw.Binning, err = section.ParseBinning(s); err != nil {
			return nil, err
		}
	}

	rowBin, colBin := raw.Binning.Native(det.SpecAxis)
	opts := []section.Option{
		section.WithBinning(rowBin, colBin),
		section.WithShape(img.Rows, img.Cols),
	}

	if raw.DataSec, err = l.sections(hdr, det, ccd.DataSection, opts); err != nil {
		return nil, err
	}

	if len(raw.DataSec) != det.NumAmplifiers {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "%d data sections for %d amplifiers",
			len(raw.DataSec), det.NumAmplifiers)
	}

	if raw.OscanSec, err = l.sections(hdr, det, ccd.OverscanSection, opts); err != nil {
		return nil, err
	}

	if len(raw.OscanSec) != 0 && len(raw.OscanSec) != det.NumAmplifiers {
		return nil, ccd.Errorf(ccd.ErrShapeMismatch, "%d overscan sections for %d amplifiers",
			len(raw.OscanSec), det.NumAmplifiers)
	}

	return raw, nil
}

func (l *Loader) sections(hdr ccd.Header, det ccd.Detector, kind ccd.SectionKind, opts []section.Option) ([]section.Section, error) {
	spec, err := l.provider.Sections(hdr, det.Index, kind)
	if err != nil {
		return nil, loadError(err)
	}

	secs, err := section.ParseSpec(spec, opts...)
	if err != nil {
		return nil, ccd.Annotate(err, "%s", kind)
	}

	return secs, nil
}

// loadError tags provider failures with ccd.ErrLoad unless they already
// carry a ccd kind.
func loadError(err error) error {
	var e *ccd.Error
	if errors.As(err, &e) {
		return err
	}

	return fmt.Errorf("%w: %w", ccd.ErrLoad, err)
}
