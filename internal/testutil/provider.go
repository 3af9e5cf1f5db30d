package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Provider is an in-memory ccd.Provider. Frames are registered by path;
// ReadRaw returns clones so tests cannot observe mutation through it.
type Provider struct {
	Instrument string
	Det        ccd.Detector
	DataSec    ccd.SectionSpec
	OscanSec   ccd.SectionSpec
	Frames     map[string]*ccd.Image
	Headers    map[string]ccd.Header
	ReadErr    error
	Reads      int
}

// NewProvider returns a single-detector Provider with zero-indexed,
// end-exclusive section descriptors.
func NewProvider(det ccd.Detector, datasec, oscansec []string) *Provider {
	if det.Index == 0 {
		det.Index = 1
	}
	return &Provider{
		Instrument: "test_spectrograph",
		Det:        det,
		DataSec:    ccd.SectionSpec{Descriptors: datasec},
		OscanSec:   ccd.SectionSpec{Descriptors: oscansec},
		Frames:     map[string]*ccd.Image{},
		Headers:    map[string]ccd.Header{},
	}
}

// Add registers img under path with the given header. A nil header gets
// BINNING "1,1".
func (p *Provider) Add(path string, img *ccd.Image, hdr ccd.Header) {
	if hdr == nil {
		hdr = ccd.Header{"BINNING": "1,1"}
	}
	p.Frames[path] = img
	p.Headers[path] = hdr
}

func (p *Provider) Name() string { return p.Instrument }

func (p *Provider) Detector(det int) (ccd.Detector, error) {
	if det != p.Det.Index {
		return ccd.Detector{}, fmt.Errorf("no detector %d", det)
	}
	return p.Det, nil
}

func (p *Provider) ReadRaw(path string, det int) (*ccd.Image, ccd.Header, error) {
	p.Reads++
	if p.ReadErr != nil {
		return nil, nil, p.ReadErr
	}
	img, ok := p.Frames[path]
	if !ok {
		return nil, nil, fmt.Errorf("no frame registered for %s", path)
	}
	return img.Clone(), p.Headers[path].Clone(), nil
}

func (p *Provider) Binning(hdr ccd.Header) (string, error) {
	s, ok := hdr.String("BINNING")
	if !ok {
		return "1,1", nil
	}
	return s, nil
}

func (p *Provider) Sections(_ ccd.Header, _ int, kind ccd.SectionKind) (ccd.SectionSpec, error) {
	if kind == ccd.OverscanSection {
		return p.OscanSec, nil
	}
	return p.DataSec, nil
}

// TouchFiles creates empty files with the given names in a temporary
// directory and returns their paths.
func TouchFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		if err := os.WriteFile(paths[i], nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}
