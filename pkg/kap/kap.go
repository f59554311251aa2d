// Package kap reads and writes BSB/KAP raster navigational charts.
//
// A chart file is an ASCII header followed by a run-length encoded raster of
// palette indices. Decode and Encode convert between file bytes and a Chart;
// Project resolves the raster through one of the chart's palettes.
//
// Example usage:
//
//	data, _ := os.ReadFile("chart.kap")
//	chart, err := kap.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	colors, err := chart.Project(kap.PaletteDAY)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for c := range colors {
//	    _ = c
//	}
package kap

import (
	"io"

	"github.com/dyuri/kapconv/internal/model"
)

// Chart is a validated header together with its raster.
//
// Every Chart returned by this package satisfies: header dimensions equal the
// raster dimensions, and every raster index fits the header depth.
type Chart struct {
	header *model.Header
	raster *model.Raster
}

// New builds a Chart from a header and a raster, checking that they agree.
// The chart takes ownership of both; callers should not modify them afterwards
// except through the accessors.
func New(header *Header, raster *Raster) (*Chart, error) {
	if err := check(header, raster); err != nil {
		return nil, err
	}
	return &Chart{header: header, raster: raster}, nil
}

func check(header *Header, raster *Raster) error {
	if header == nil {
		return &Error{Code: "invalid_header", Message: "missing header"}
	}
	if raster == nil {
		return &Error{Code: "invalid_raster", Message: "missing raster"}
	}
	if err := header.Validate(); err != nil {
		return err
	}
	if header.Width() != raster.Width || header.Height() != raster.Height ||
		len(raster.Pix) != raster.Width*raster.Height {
		return &DimensionMismatchError{
			HeaderWidth:  header.Width(),
			HeaderHeight: header.Height(),
			RasterWidth:  raster.Width,
			RasterHeight: raster.Height,
			Len:          len(raster.Pix),
		}
	}
	return raster.Validate(header.Depth)
}

// Decode parses a complete chart file using DefaultOptions
func Decode(data []byte) (*Chart, error) {
	return mustCodec().Decode(data)
}

// Read parses a chart file from r using DefaultOptions
func Read(r io.Reader) (*Chart, error) {
	return mustCodec().Read(r)
}

// Encode serializes the chart using DefaultOptions
func (c *Chart) Encode() ([]byte, error) {
	return mustCodec().Encode(c)
}

// WriteTo writes the serialized chart to w using DefaultOptions
func (c *Chart) WriteTo(w io.Writer) (int64, error) {
	return mustCodec().WriteTo(w, c)
}

// Width returns the raster width in pixels
func (c *Chart) Width() int {
	return c.raster.Width
}

// Height returns the raster height in pixels
func (c *Chart) Height() int {
	return c.raster.Height
}

// Depth returns the number of bits per pixel index
func (c *Chart) Depth() Depth {
	return c.header.Depth
}

// PaletteKinds lists the palettes present in the header, in canonical order
func (c *Chart) PaletteKinds() []PaletteKind {
	return c.header.Palettes.Kinds()
}

// Palettes returns the palette table
func (c *Chart) Palettes() *PaletteTable {
	return c.header.Palettes
}

// Header returns the chart header. Changes made to it are validated again
// when the chart is encoded.
func (c *Chart) Header() *Header {
	return c.header
}

// Raster returns the chart raster
func (c *Chart) Raster() *Raster {
	return c.raster
}
