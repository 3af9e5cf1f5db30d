package section

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

// Range is a zero-based index range with an exclusive end.
type Range struct {
	Start int
	Stop  int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.Stop - r.Start }

// Contains reports whether i lies in r.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.Stop }

// String formats r in slice notation.
func (r Range) String() string { return fmt.Sprintf("%d:%d", r.Start, r.Stop) }

// Section is a rectangular region of a frame in native array axes.
type Section struct {
	Rows Range
	Cols Range
}

// Shape returns the number of rows and columns covered by s.
func (s Section) Shape() (rows, cols int) { return s.Rows.Len(), s.Cols.Len() }

// Contains reports whether pixel (r, c) lies in s.
func (s Section) Contains(r, c int) bool { return s.Rows.Contains(r) && s.Cols.Contains(c) }

// String formats s as "[r0:r1,c0:c1]".
func (s Section) String() string { return "[" + s.Rows.String() + "," + s.Cols.String() + "]" }

// Extract copies the pixels covered by s out of img.
func (s Section) Extract(img *ccd.Image) (*ccd.Image, error) {
	return img.Region(s.Rows.Start, s.Rows.Stop, s.Cols.Start, s.Cols.Stop)
}

// Options controls descriptor interpretation.
type Options struct {
	OneIndexed bool // bounds count from 1
	IncludeEnd bool // the end bound is part of the section
	Transpose  bool // the first descriptor axis is the column axis
	RowBin     int  // binning factor of the row axis, 0 means 1
	ColBin     int  // binning factor of the column axis, 0 means 1
	Rows       int  // frame rows, 0 if unknown
	Cols       int  // frame columns, 0 if unknown
}

// Option mutates Options.
type Option func(*Options)

// WithOneIndexed marks descriptor bounds as counting from 1.
func WithOneIndexed() Option { return func(o *Options) { o.OneIndexed = true } }

// WithIncludeEnd marks the end bound as part of the section.
func WithIncludeEnd() Option { return func(o *Options) { o.IncludeEnd = true } }

// WithTranspose marks the first descriptor axis as the column axis, as in
// FITS/IRAF "[x1:x2,y1:y2]" descriptors.
func WithTranspose() Option { return func(o *Options) { o.Transpose = true } }

// WithBinning sets the binning factors of the native row and column axes.
// Non-positive factors are ignored.
func WithBinning(rowBin, colBin int) Option {
	return func(o *Options) {
		if rowBin > 0 {
			o.RowBin = rowBin
		}

		if colBin > 0 {
			o.ColBin = colBin
		}
	}
}

// WithShape sets the frame shape used to expand open bounds and to reject
// sections that fall outside the frame.
func WithShape(rows, cols int) Option {
	return func(o *Options) {
		o.Rows = rows
		o.Cols = cols
	}
}

// FromSpec applies the convention flags of a provider section spec.
func FromSpec(spec ccd.SectionSpec) Option {
	return func(o *Options) {
		o.OneIndexed = spec.OneIndexed
		o.IncludeEnd = spec.IncludeEnd
		o.Transpose = spec.Transpose
	}
}

func applyOptions(opts []Option) Options {
	cfg := Options{RowBin: 1, ColBin: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

var bracketGroup = regexp.MustCompile(`\[[^\[\]]*\]`)

// Parse converts one descriptor of the form "[a:b,c:d]" into a Section.
// It fails with ccd.ErrParse when the syntax is malformed, a bound is
// negative, the section is empty, or the section lies outside the frame
// shape given by [WithShape].
func Parse(desc string, opts ...Option) (Section, error) {
	cfg := applyOptions(opts)

	s := strings.TrimSpace(desc)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return Section{}, ccd.Errorf(ccd.ErrParse, "%q: expected [a:b,c:d]", desc)
	}

	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return Section{}, ccd.Errorf(ccd.ErrParse, "%q: expected 2 axes, got %d", desc, len(parts))
	}

	// Descriptor axis i maps to the native column axis when transposed.
	bins := [2]int{cfg.RowBin, cfg.ColBin}
	sizes := [2]int{cfg.Rows, cfg.Cols}

	if cfg.Transpose {
		bins[0], bins[1] = bins[1], bins[0]
		sizes[0], sizes[1] = sizes[1], sizes[0]
	}

	var axes [2]Range

	for i, part := range parts {
		r, err := parseAxis(part, cfg, bins[i], sizes[i])
		if err != nil {
			return Section{}, ccd.Errorf(ccd.ErrParse, "%q axis %d: %v", desc, i+1, err)
		}

		axes[i] = r
	}

	if cfg.Transpose {
		return Section{Rows: axes[1], Cols: axes[0]}, nil
	}

	return Section{Rows: axes[0], Cols: axes[1]}, nil
}

func parseAxis(part string, cfg Options, bin, size int) (Range, error) {
	part = strings.TrimSpace(part)
	if bin < 1 {
		bin = 1
	}

	var (
		start, stop         int
		openStart, openStop bool
	)

	switch {
	case part == "*" || part == ":":
		openStart, openStop = true, true
	case !strings.Contains(part, ":"):
		v, err := strconv.Atoi(part)
		if err != nil {
			return Range{}, fmt.Errorf("bad index %q", part)
		}

		if cfg.OneIndexed {
			v--
		}

		if v < 0 {
			return Range{}, fmt.Errorf("negative index %q", part)
		}

		start, stop = v/bin, v/bin+1
		return checkRange(Range{Start: start, Stop: stop}, size)
	default:
		bounds := strings.Split(part, ":")
		if len(bounds) != 2 {
			return Range{}, fmt.Errorf("bad range %q", part)
		}

		var err error
		if start, openStart, err = parseBound(bounds[0]); err != nil {
			return Range{}, err
		}

		if stop, openStop, err = parseBound(bounds[1]); err != nil {
			return Range{}, err
		}
	}

	if cfg.OneIndexed {
		if !openStart {
			start--
		}

		if !openStop {
			stop--
		}
	}

	if (!openStart && start < 0) || (!openStop && stop < 0) {
		return Range{}, fmt.Errorf("negative bound in %q", part)
	}

	if !openStart && !openStop && start > stop {
		start, stop = stop, start
	}

	if cfg.IncludeEnd && !openStop {
		stop++
	}

	start /= bin
	stop /= bin

	if openStart {
		start = 0
	}

	if openStop {
		if size <= 0 {
			return Range{}, fmt.Errorf("open bound in %q requires the frame shape", part)
		}

		stop = size
	}

	return checkRange(Range{Start: start, Stop: stop}, size)
}

func parseBound(s string) (v int, open bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return 0, true, nil
	}

	v, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("bad bound %q", s)
	}

	return v, false, nil
}

func checkRange(r Range, size int) (Range, error) {
	if r.Len() <= 0 {
		return Range{}, fmt.Errorf("empty range %s", r)
	}

	if size > 0 && r.Stop > size {
		return Range{}, fmt.Errorf("range %s exceeds axis length %d", r, size)
	}

	return r, nil
}

// ParseAll parses a string holding one bracketed descriptor per amplifier,
// e.g. "[1:100,1:50][1:100,51:100]".
func ParseAll(desc string, opts ...Option) ([]Section, error) {
	groups := bracketGroup.FindAllString(desc, -1)
	if len(groups) == 0 {
		return nil, ccd.Errorf(ccd.ErrParse, "%q: no bracketed section", desc)
	}

	out := make([]Section, 0, len(groups))
	for _, g := range groups {
		sec, err := Parse(g, opts...)
		if err != nil {
			return nil, err
		}

		out = append(out, sec)
	}

	return out, nil
}

// ParseSpec parses every descriptor of spec with its convention flags.
// Additional options (binning, shape) are applied after the spec flags.
func ParseSpec(spec ccd.SectionSpec, opts ...Option) ([]Section, error) {
	all := append([]Option{FromSpec(spec)}, opts...)

	var out []Section
	for _, d := range spec.Descriptors {
		secs, err := ParseAll(d, all...)
		if err != nil {
			return nil, err
		}

		out = append(out, secs...)
	}

	return out, nil
}

// AmplifierMap returns a rows x cols map where every pixel inside
// datasecs[i] holds i+1 and all other pixels hold 0.
func AmplifierMap(rows, cols int, datasecs []Section) (*ccd.AmpMap, error) {
	amp := ccd.NewAmpMap(rows, cols)

	for i, sec := range datasecs {
		if sec.Rows.Start < 0 || sec.Cols.Start < 0 || sec.Rows.Stop > rows || sec.Cols.Stop > cols {
			return nil, ccd.Errorf(ccd.ErrParse, "amplifier %d section %s outside %dx%d frame", i+1, sec, rows, cols)
		}

		for r := sec.Rows.Start; r < sec.Rows.Stop; r++ {
			for c := sec.Cols.Start; c < sec.Cols.Stop; c++ {
				amp.Set(r, c, i+1)
			}
		}
	}

	return amp, nil
}
