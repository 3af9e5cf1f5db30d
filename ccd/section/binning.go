package section

import (
	"strconv"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Binning is the on-chip binning of a frame in pixels per axis.
type Binning struct {
	Spatial  int
	Spectral int
}

// Unbinned is the 1x1 binning.
var Unbinned = Binning{Spatial: 1, Spectral: 1}

// ParseBinning parses "spatial,spectral" binning. Whitespace and "x" are
// accepted as separators so header values such as "2 2" parse as well.
func ParseBinning(s string) (Binning, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == 'x' || r == 'X' || r == '\t'
	})
	if len(fields) != 2 {
		return Binning{}, ccd.Errorf(ccd.ErrParse, "binning %q: expected \"spatial,spectral\"", s)
	}

	spat, err1 := strconv.Atoi(fields[0])
	spec, err2 := strconv.Atoi(fields[1])

	if err1 != nil || err2 != nil || spat < 1 || spec < 1 {
		return Binning{}, ccd.Errorf(ccd.ErrParse, "binning %q: factors must be positive integers", s)
	}

	return Binning{Spatial: spat, Spectral: spec}, nil
}

// String formats b as "spatial,spectral".
func (b Binning) String() string {
	return strconv.Itoa(b.Spatial) + "," + strconv.Itoa(b.Spectral)
}

// Native returns the binning of the native row and column axes for a
// detector whose spectral direction runs along specAxis (0: rows).
func (b Binning) Native(specAxis int) (rowBin, colBin int) {
	if specAxis == 0 {
		return b.Spectral, b.Spatial
	}

	return b.Spatial, b.Spectral
}
