package instrument

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
	"github.com/cwbudde/algo-ccdproc/ccd/fitsfile"
)

// Default header keywords.
const (
	DataSecKey  = "DATASEC"
	OscanSecKey = "BIASSEC"
	BinningKey  = "CCDSUM"
)

// Generic is a [ccd.Provider] driven by header keywords.
type Generic struct {
	Instrument string
	Detectors  []ccd.Detector // Detectors[i] describes detector i+1

	DataSecKey  string
	OscanSecKey string
	BinningKey  string
}

// NewGeneric returns a provider for the named instrument with the
// default keywords.
func NewGeneric(name string, dets ...ccd.Detector) *Generic {
	for i := range dets {
		if dets[i].Index == 0 {
			dets[i].Index = i + 1
		}
	}

	return &Generic{
		Instrument:  name,
		Detectors:   dets,
		DataSecKey:  DataSecKey,
		OscanSecKey: OscanSecKey,
		BinningKey:  BinningKey,
	}
}

func (g *Generic) Name() string { return g.Instrument }

// Detector returns the properties of the 1-based detector det.
func (g *Generic) Detector(det int) (ccd.Detector, error) {
	if det < 1 || det > len(g.Detectors) {
		return ccd.Detector{}, fmt.Errorf("instrument %s has no detector %d (%d configured)",
			g.Instrument, det, len(g.Detectors))
	}

	return g.Detectors[det-1], nil
}

// ReadRaw reads the HDU of detector det from the FITS file at path.
func (g *Generic) ReadRaw(path string, det int) (*ccd.Image, ccd.Header, error) {
	d, err := g.Detector(det)
	if err != nil {
		return nil, nil, err
	}

	return fitsfile.Read(path, d.DataExt)
}

// Binning converts the CCDSUM card ("xbin ybin") into "spatial,spectral"
// using the spectral axis of the first detector. A missing card means
// unbinned.
func (g *Generic) Binning(hdr ccd.Header) (string, error) {
	s, ok := hdr.String(g.BinningKey)
	if !ok || s == "" {
		return "1,1", nil
	}

	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 2 {
		return "", ccd.Errorf(ccd.ErrParse, "%s %q: expected two binning factors", g.BinningKey, s)
	}

	xbin, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", ccd.Errorf(ccd.ErrParse, "%s %q: %v", g.BinningKey, s, err)
	}

	ybin, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", ccd.Errorf(ccd.ErrParse, "%s %q: %v", g.BinningKey, s, err)
	}

	// x runs along columns. With spectra along rows the columns are spatial.
	spatial, spectral := xbin, ybin
	if len(g.Detectors) > 0 && g.Detectors[0].SpecAxis == 1 {
		spatial, spectral = ybin, xbin
	}

	return fmt.Sprintf("%d,%d", spatial, spectral), nil
}

// Sections returns the data or overscan descriptors of detector det.
// Per-amplifier keywords (DATASEC1, DATASEC2, ...) take precedence over
// the plain keyword, which may hold several bracketed sections. Without a
// data keyword the whole frame is data; without an overscan keyword the
// detector has no overscan.
func (g *Generic) Sections(hdr ccd.Header, det int, kind ccd.SectionKind) (ccd.SectionSpec, error) {
	d, err := g.Detector(det)
	if err != nil {
		return ccd.SectionSpec{}, err
	}

	key := g.DataSecKey
	if kind == ccd.OverscanSection {
		key = g.OscanSecKey
	}

	spec := ccd.SectionSpec{OneIndexed: true, IncludeEnd: true, Transpose: true}

	for i := 1; i <= d.NumAmplifiers; i++ {
		s, ok := hdr.String(key + strconv.Itoa(i))
		if !ok {
			break
		}
		spec.Descriptors = append(spec.Descriptors, s)
	}

	if len(spec.Descriptors) == d.NumAmplifiers {
		return spec, nil
	}

	spec.Descriptors = nil

	if s, ok := hdr.String(key); ok && s != "" {
		spec.Descriptors = []string{s}
	} else if kind == ccd.DataSection {
		spec.Descriptors = []string{"[*,*]"}
	}

	return spec, nil
}

type detectorJSON struct {
	DataExt       int       `json:"dataext"`
	SpecAxis      int       `json:"specaxis"`
	NumAmplifiers int       `json:"numamplifiers"`
	Gain          []float64 `json:"gain"`
	ReadNoise     []float64 `json:"ronoise"`
	DarkCurrent   float64   `json:"darkcurr"`
	Saturation    float64   `json:"saturation"`
	NonLinear     float64   `json:"nonlinear"`
}

type instrumentJSON struct {
	Name        string         `json:"name"`
	DataSecKey  string         `json:"datasec_key"`
	OscanSecKey string         `json:"oscansec_key"`
	BinningKey  string         `json:"binning_key"`
	Detectors   []detectorJSON `json:"detectors"`
}

// Decode reads an instrument description from JSON:
//
//	{"name": "lris_blue", "detectors": [{"numamplifiers": 2, "gain": [1.55, 1.56],
//	  "ronoise": [3.9, 4.2], "saturation": 65535, "nonlinear": 0.86}]}
//
// Keyword names default to DATASEC, BIASSEC and CCDSUM. Every detector is
// validated.
func Decode(r io.Reader) (*Generic, error) {
	var in instrumentJSON

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("instrument: decode: %w", err)
	}

	if len(in.Detectors) == 0 {
		return nil, fmt.Errorf("instrument %s: no detectors", in.Name)
	}

	dets := make([]ccd.Detector, len(in.Detectors))
	for i, d := range in.Detectors {
		dets[i] = ccd.Detector{
			Index:         i + 1,
			DataExt:       d.DataExt,
			SpecAxis:      d.SpecAxis,
			NumAmplifiers: d.NumAmplifiers,
			Gain:          d.Gain,
			ReadNoise:     d.ReadNoise,
			DarkCurrent:   d.DarkCurrent,
			Saturation:    d.Saturation,
			NonLinear:     d.NonLinear,
		}

		if err := dets[i].Validate(); err != nil {
			return nil, fmt.Errorf("instrument %s: %w", in.Name, err)
		}
	}

	g := NewGeneric(in.Name, dets...)
	if in.DataSecKey != "" {
		g.DataSecKey = in.DataSecKey
	}

	if in.OscanSecKey != "" {
		g.OscanSecKey = in.OscanSecKey
	}

	if in.BinningKey != "" {
		g.BinningKey = in.BinningKey
	}

	return g, nil
}
