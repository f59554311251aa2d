package binary

import (
	"bytes"
	"errors"
	"math/rand"
	"runtime"
	"testing"

	"github.com/dyuri/kapconv/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const origin = 10

// withHeader prefixes a raster section with origin filler bytes
func withHeader(section ...byte) []byte {
	return append(bytes.Repeat([]byte{'x'}, origin), section...)
}

// singleRow is a 4x1 depth 4 raster of index 1 with its row index
var singleRow = []byte{
	0x04,             // depth
	0x01, 0x0b, 0x00, // row 1: run of four 1s
	0x00, 0x00, 0x00, origin + 1, // row 0 offset
	0x00, 0x00, 0x00, origin + 4, // index table offset
}

func TestEncodeRaster(t *testing.T) {
	r, err := model.NewRasterFrom(4, 1, []byte{1, 1, 1, 1})
	if err != nil {
		t.Fatalf("NewRasterFrom failed: %v", err)
	}

	got, err := NewWriter(nil, model.DepthFour, origin, 1, nil).Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(got, singleRow) {
		t.Errorf("Encode = % x, want % x", got, singleRow)
	}
}

func TestWriteRaster(t *testing.T) {
	r, _ := model.NewRasterFrom(4, 1, []byte{1, 1, 1, 1})
	var buf bytes.Buffer

	if err := NewWriter(&buf, model.DepthFour, origin, 1, nil).Write(r); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), singleRow) {
		t.Errorf("Write = % x, want % x", buf.Bytes(), singleRow)
	}
}

func TestEncodeInvalidIndex(t *testing.T) {
	r, _ := model.NewRasterFrom(2, 2, []byte{1, 1, 1, 16})

	_, err := NewWriter(nil, model.DepthFour, 0, 1, nil).Encode(r)
	var perr *model.InvalidPixelIndexError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want InvalidPixelIndexError", err)
	}
	if perr.Row != 1 || perr.Col != 1 || perr.Index != 16 || perr.Max != 15 {
		t.Errorf("err = %+v", perr)
	}
}

func TestDecodeRaster(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"with index", withHeader(singleRow...)},
		{"without index", withHeader(singleRow[:4]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(tt.data, origin, model.DepthFour, 2, nil).Read(4, 1)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(r.Pix, []byte{1, 1, 1, 1}) {
				t.Errorf("Pix = %v, want [1 1 1 1]", r.Pix)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		check func(t *testing.T, err error)
	}{
		{
			name: "row too long",
			data: withHeader(0x04, 0x01, 0x0c, 0x00),
			check: func(t *testing.T, err error) {
				var e *model.RowLengthMismatchError
				if !errors.As(err, &e) || e.Row != 0 || e.Got != 5 || e.Want != 4 {
					t.Errorf("err = %v, want row 0 length 5 of 4", err)
				}
			},
		},
		{
			name: "row too short",
			data: withHeader(0x04, 0x01, 0x0a, 0x00),
			check: func(t *testing.T, err error) {
				var e *model.RowLengthMismatchError
				if !errors.As(err, &e) || e.Got != 3 || e.Want != 4 {
					t.Errorf("err = %v, want row length 3 of 4", err)
				}
			},
		},
		{
			name: "run length overflow",
			data: withHeader(0x04, 0x01, 0x8f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7e, 0x08, 0x00),
			check: func(t *testing.T, err error) {
				var e *model.RowLengthMismatchError
				if !errors.As(err, &e) || e.Row != 0 || e.Want != 4 {
					t.Errorf("err = %v, want row 0 length mismatch", err)
				}
			},
		},
		{
			name: "truncated mid row",
			data: withHeader(0x04, 0x01, 0x0b),
			check: func(t *testing.T, err error) {
				var e *model.TruncatedRasterError
				if !errors.As(err, &e) || e.Row != 0 {
					t.Errorf("err = %v, want truncated row 0", err)
				}
			},
		},
		{
			name: "no rows",
			data: withHeader(0x04),
			check: func(t *testing.T, err error) {
				var e *model.TruncatedRasterError
				if !errors.As(err, &e) {
					t.Errorf("err = %v, want TruncatedRasterError", err)
				}
			},
		},
		{
			name: "no depth byte",
			data: withHeader(),
			check: func(t *testing.T, err error) {
				var e *model.TruncatedRasterError
				if !errors.As(err, &e) {
					t.Errorf("err = %v, want TruncatedRasterError", err)
				}
			},
		},
		{
			name: "depth byte mismatch",
			data: withHeader(0x07, 0x01, 0x0b, 0x00),
			check: func(t *testing.T, err error) {
				var e *model.DepthMismatchError
				if !errors.As(err, &e) || e.Raster != 7 || e.Header != model.DepthFour {
					t.Errorf("err = %v, want depth mismatch", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(tt.data, origin, model.DepthFour, 1, nil).Read(4, 1)
			if err == nil {
				t.Fatal("Read succeeded, want error")
			}
			tt.check(t, err)
		})
	}
}

func TestDecodeSecondRowTruncated(t *testing.T) {
	data := withHeader(0x04, 0x01, 0x0b, 0x00, 0x02, 0x0b)

	_, err := NewReader(data, origin, model.DepthFour, 1, nil).Read(4, 2)
	var e *model.TruncatedRasterError
	if !errors.As(err, &e) || e.Row != 1 {
		t.Errorf("err = %v, want truncated row 1", err)
	}
}

func TestDecodeOverlongRunIndexed(t *testing.T) {
	// Row 1 holds a run token with an overflowing length; the index is valid
	data := withHeader(
		0x04,
		0x01, 0x0b, 0x00,
		0x02, 0x8f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7e, 0x08, 0x00,
		0x03, 0x0b, 0x00,
		0x00, 0x00, 0x00, origin + 1,
		0x00, 0x00, 0x00, origin + 4,
		0x00, 0x00, 0x00, origin + 18,
		0x00, 0x00, 0x00, origin + 21,
	)

	_, err := NewReader(data, origin, model.DepthFour, 2, nil).Read(4, 3)
	var e *model.RowLengthMismatchError
	if !errors.As(err, &e) || e.Row != 1 {
		t.Errorf("err = %v, want row 1 length mismatch", err)
	}
}

func TestDecodeHugeDeclaredSize(t *testing.T) {
	data := withHeader(0x04, 0x01, 0x0b, 0x00)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := NewReader(data, origin, model.DepthFour, 1, nil).Read(model.MaxDimension, model.MaxDimension)
	runtime.ReadMemStats(&after)

	var e *model.TruncatedRasterError
	if !errors.As(err, &e) || e.Row != 1 {
		t.Errorf("err = %v, want truncated row 1", err)
	}
	if grown := after.TotalAlloc - before.TotalAlloc; grown > 16<<20 {
		t.Errorf("allocated %d bytes before failing", grown)
	}
}

func TestDecodeFirstRowCheckedBeforeAllocation(t *testing.T) {
	data := withHeader(0x04, 0x01, 0x0b, 0x00, 0x02, 0x0b, 0x00)

	_, err := NewReader(data, origin, model.DepthFour, 1, nil).Read(model.MaxDimension, 3)
	var e *model.RowLengthMismatchError
	if !errors.As(err, &e) || e.Row != 0 || e.Got != 4 || e.Want != model.MaxDimension {
		t.Errorf("err = %v, want row 0 length 4 of %d", err, model.MaxDimension)
	}
}

func TestDecodeRowMarkers(t *testing.T) {
	tests := []struct {
		name   string
		marker byte
		warned bool
	}{
		{"one based", 0x01, false},
		{"zero based", 0x00, false},
		{"unexpected", 0x05, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			data := withHeader(0x04, tt.marker, 0x0b, 0x00)

			r, err := NewReader(data, origin, model.DepthFour, 1, log).Read(4, 1)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(r.Pix, []byte{1, 1, 1, 1}) {
				t.Errorf("Pix = %v", r.Pix)
			}

			warned := false
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel {
					warned = true
				}
			}
			if warned != tt.warned {
				t.Errorf("warned = %v, want %v", warned, tt.warned)
			}
		})
	}
}

func TestDecodeBadIndexFallsBack(t *testing.T) {
	// Row 1 offset points into row 0; the table is otherwise consistent
	data := withHeader(
		0x04,
		0x01, 0x0b, 0x00,
		0x02, 0x0b, 0x00,
		0x00, 0x00, 0x00, origin + 1,
		0x00, 0x00, 0x00, origin + 3,
		0x00, 0x00, 0x00, origin + 7,
	)

	log, hook := test.NewNullLogger()
	r, err := NewReader(data, origin, model.DepthFour, 2, log).Read(4, 2)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(r.Pix, []byte{1, 1, 1, 1, 1, 1, 1, 1}) {
		t.Errorf("Pix = %v", r.Pix)
	}
	if len(hook.AllEntries()) == 0 {
		t.Error("expected a warning about the row index")
	}
}

func randomRaster(rng *rand.Rand, width, height int, depth model.Depth) *model.Raster {
	r := model.NewRaster(width, height)
	max := depth.MaxIndex()
	for i := 0; i < len(r.Pix); {
		v := byte(rng.Intn(max) + 1)
		n := rng.Intn(300) + 1
		for j := 0; j < n && i < len(r.Pix); j++ {
			r.Pix[i] = v
			i++
		}
	}
	return r
}

func TestRoundTripParallel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, depth := range []model.Depth{model.DepthOne, model.DepthFour, model.DepthSeven} {
		t.Run(depth.String(), func(t *testing.T) {
			want := randomRaster(rng, 517, 203, depth)

			sequential, err := NewWriter(nil, depth, origin, 1, nil).Encode(want)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			parallel, err := NewWriter(nil, depth, origin, 8, nil).Encode(want)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(sequential, parallel) {
				t.Fatal("parallel encoding differs from sequential")
			}

			data := withHeader(parallel...)
			indexed, err := NewReader(data, origin, depth, 8, nil).Read(517, 203)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(indexed.Pix, want.Pix) {
				t.Error("indexed decode differs from source raster")
			}

			// Drop the index table to force a sequential scan
			rows := data[:len(data)-4*(203+1)]
			scanned, err := NewReader(rows, origin, depth, 1, nil).Read(517, 203)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(scanned.Pix, want.Pix) {
				t.Error("sequential decode differs from source raster")
			}
		})
	}
}

func TestEmptyRaster(t *testing.T) {
	r := model.NewRaster(0, 0)
	data, err := NewWriter(nil, model.DepthSeven, origin, 1, nil).Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{0x07, 0x00, 0x00, 0x00, origin + 1}
	if !bytes.Equal(data, want) {
		t.Errorf("Encode = % x, want % x", data, want)
	}

	got, err := NewReader(withHeader(data...), origin, model.DepthSeven, 1, nil).Read(0, 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Width != 0 || got.Height != 0 {
		t.Errorf("size = %dx%d, want 0x0", got.Width, got.Height)
	}
}

func TestPackageCodec(t *testing.T) {
	r, _ := model.NewRasterFrom(4, 1, []byte{1, 1, 1, 1})
	section, err := Encode(r, model.DepthFour, origin)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(withHeader(section...), origin, 4, 1, model.DepthFour)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got.Pix, r.Pix) {
		t.Errorf("Pix = %v, want %v", got.Pix, r.Pix)
	}
}
