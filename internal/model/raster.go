package model

import "fmt"

// Raster is a dense row-major buffer of pixel indices.
// Rows are views into Pix at offset y*Width.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// NewRaster allocates a zeroed raster
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height),
	}
}

// NewRasterFrom wraps an existing buffer, checking its length
func NewRasterFrom(width, height int, pix []byte) (*Raster, error) {
	if width < 0 || height < 0 || len(pix) != width*height {
		return nil, fmt.Errorf("raster %dx%d needs %d pixels, got %d", width, height, width*height, len(pix))
	}
	return &Raster{Width: width, Height: height, Pix: pix}, nil
}

// Row returns row y as a slice of Pix
func (r *Raster) Row(y int) []byte {
	off := y * r.Width
	return r.Pix[off : off+r.Width : off+r.Width]
}

// At returns the index at (x, y), or the reserved index 0 outside the raster
func (r *Raster) At(x, y int) byte {
	if !r.inBounds(x, y) {
		return 0
	}
	return r.Pix[y*r.Width+x]
}

// Set stores an index at (x, y); out of range coordinates are ignored
func (r *Raster) Set(x, y int, v byte) {
	if !r.inBounds(x, y) {
		return
	}
	r.Pix[y*r.Width+x] = v
}

func (r *Raster) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// Clone returns a deep copy
func (r *Raster) Clone() *Raster {
	return &Raster{
		Width:  r.Width,
		Height: r.Height,
		Pix:    append([]byte(nil), r.Pix...),
	}
}

// Validate checks that every index fits in depth
func (r *Raster) Validate(depth Depth) error {
	if r.Width == 0 {
		return nil
	}
	max := depth.MaxIndex()
	for i, v := range r.Pix {
		if int(v) > max {
			return &InvalidPixelIndexError{Row: i / r.Width, Col: i % r.Width, Index: int(v), Max: max}
		}
	}
	return nil
}
