package section

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cwbudde/algo-ccdproc/ccd"
)

func TestParseConventions(t *testing.T) {
	tests := []struct {
		name string
		desc string
		opts []Option
		want Section
	}{
		{
			name: "zero indexed exclusive",
			desc: "[0:100,100:110]",
			want: Section{Rows: Range{0, 100}, Cols: Range{100, 110}},
		},
		{
			name: "one indexed inclusive",
			desc: "[1:100,101:110]",
			opts: []Option{WithOneIndexed(), WithIncludeEnd()},
			want: Section{Rows: Range{0, 100}, Cols: Range{100, 110}},
		},
		{
			name: "transposed fits style",
			desc: "[5:2044,1:4]",
			opts: []Option{WithOneIndexed(), WithIncludeEnd(), WithTranspose()},
			want: Section{Rows: Range{0, 4}, Cols: Range{4, 2044}},
		},
		{
			name: "flipped bounds",
			desc: "[100:1,1:10]",
			opts: []Option{WithOneIndexed(), WithIncludeEnd()},
			want: Section{Rows: Range{0, 100}, Cols: Range{0, 10}},
		},
		{
			name: "binned",
			desc: "[1:200,1:100]",
			opts: []Option{WithOneIndexed(), WithIncludeEnd(), WithBinning(2, 1)},
			want: Section{Rows: Range{0, 100}, Cols: Range{0, 100}},
		},
		{
			name: "open bounds",
			desc: "[:,10:]",
			opts: []Option{WithShape(50, 40)},
			want: Section{Rows: Range{0, 50}, Cols: Range{10, 40}},
		},
		{
			name: "single index",
			desc: "[3,1:4]",
			opts: []Option{WithOneIndexed(), WithIncludeEnd()},
			want: Section{Rows: Range{2, 3}, Cols: Range{0, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.desc, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Fatalf("Parse(%q) = %s, want %s", tt.desc, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		desc string
		opts []Option
	}{
		{desc: "1:10,1:10"},
		{desc: "[1:10]"},
		{desc: "[1:10,1:10,1:10]"},
		{desc: "[a:10,1:10]"},
		{desc: "[1:2:3,1:10]"},
		{desc: "[-5:10,1:10]"},
		{desc: "[5:5,1:10]"},
		{desc: "[:,1:10]"},
		{desc: "[0:200,0:10]", opts: []Option{WithShape(100, 100)}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Parse(tt.desc, tt.opts...)
			if !errors.Is(err, ccd.ErrParse) {
				t.Fatalf("Parse(%q) error = %v, want ErrParse", tt.desc, err)
			}
		})
	}
}

// Parsing at binning b must agree with parsing the equivalent pre-binned
// descriptor at binning 1.
func TestParseBinningConsistency(t *testing.T) {
	for _, b := range []int{1, 2, 3, 4, 8} {
		for _, transpose := range []bool{false, true} {
			rows, cols := 24*b, 48*b
			desc := fmt.Sprintf("[1:%d,%d:%d]", rows, 8*b+1, cols)
			pre := fmt.Sprintf("[1:%d,%d:%d]", rows/b, 9, cols/b)

			base := []Option{WithOneIndexed(), WithIncludeEnd()}
			if transpose {
				base = append(base, WithTranspose())
			}

			got, err := Parse(desc, append(base, WithBinning(b, b))...)
			if err != nil {
				t.Fatalf("b=%d: %v", b, err)
			}

			want, err := Parse(pre, base...)
			if err != nil {
				t.Fatalf("b=%d: %v", b, err)
			}

			if got != want {
				t.Errorf("b=%d transpose=%v: binned %s, pre-binned %s", b, transpose, got, want)
			}
		}
	}
}

func TestParseAllAmplifiers(t *testing.T) {
	secs, err := ParseAll("[1:100,1:50][1:100,51:100]", WithOneIndexed(), WithIncludeEnd())
	if err != nil {
		t.Fatal(err)
	}

	if len(secs) != 2 {
		t.Fatalf("got %d sections, want 2", len(secs))
	}

	if secs[1].Cols != (Range{50, 100}) {
		t.Fatalf("second amplifier cols = %s", secs[1].Cols)
	}

	if _, err := ParseAll("no brackets"); !errors.Is(err, ccd.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseSpec(t *testing.T) {
	spec := ccd.SectionSpec{
		Descriptors: []string{"[1:10,1:4]", "[1:10,5:8]"},
		OneIndexed:  true,
		IncludeEnd:  true,
		Transpose:   true,
	}

	secs, err := ParseSpec(spec, WithShape(8, 10))
	if err != nil {
		t.Fatal(err)
	}

	want := []Section{
		{Rows: Range{0, 4}, Cols: Range{0, 10}},
		{Rows: Range{4, 8}, Cols: Range{0, 10}},
	}

	for i := range want {
		if secs[i] != want[i] {
			t.Errorf("section %d = %s, want %s", i, secs[i], want[i])
		}
	}
}

func TestAmplifierMap(t *testing.T) {
	secs := []Section{
		{Rows: Range{0, 2}, Cols: Range{0, 2}},
		{Rows: Range{0, 2}, Cols: Range{2, 4}},
	}

	amp, err := AmplifierMap(3, 5, secs)
	if err != nil {
		t.Fatal(err)
	}

	want := []int{
		1, 1, 2, 2, 0,
		1, 1, 2, 2, 0,
		0, 0, 0, 0, 0,
	}
	for i, v := range want {
		if amp.Data[i] != v {
			t.Fatalf("pixel %d: got %d, want %d", i, amp.Data[i], v)
		}
	}

	if _, err := AmplifierMap(2, 2, secs); !errors.Is(err, ccd.ErrParse) {
		t.Fatalf("expected ErrParse for section outside frame, got %v", err)
	}
}

func TestParseBinningString(t *testing.T) {
	for _, s := range []string{"2,1", "2 1", "2x1", " 2 , 1 "} {
		b, err := ParseBinning(s)
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}

		if b != (Binning{Spatial: 2, Spectral: 1}) {
			t.Fatalf("%q: got %+v", s, b)
		}
	}

	for _, s := range []string{"", "2", "0,1", "a,b", "1,2,3"} {
		if _, err := ParseBinning(s); !errors.Is(err, ccd.ErrParse) {
			t.Fatalf("%q: expected ErrParse, got %v", s, err)
		}
	}

	row, col := Binning{Spatial: 2, Spectral: 3}.Native(0)
	if row != 3 || col != 2 {
		t.Fatalf("Native(0) = %d,%d, want 3,2", row, col)
	}
}
