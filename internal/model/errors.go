package model

import (
	"errors"
	"fmt"
)

// ErrTruncatedInput indicates the header sentinel (0x1A 0x00) was never found
var ErrTruncatedInput = errors.New("truncated input: header terminator not found")

// HeaderParseError indicates a missing or malformed mandatory header field
type HeaderParseError struct {
	Tag    string // Record tag, e.g. "BSB" or "IFM"
	Field  string // Field within the record, e.g. "RA" (optional)
	Value  string // Offending raw value (optional)
	Line   int    // 1-based header line number, 0 when the field is missing
	Reason string
}

func (e *HeaderParseError) Error() string {
	name := e.Tag
	if e.Field != "" {
		name += "/" + e.Field
	}
	msg := fmt.Sprintf("header %s: %s", name, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	return msg
}

// RowLengthMismatchError indicates a row decoded to the wrong number of pixels
type RowLengthMismatchError struct {
	Row  int
	Got  int
	Want int
}

func (e *RowLengthMismatchError) Error() string {
	return fmt.Sprintf("row %d: decoded %d pixels, header declares %d", e.Row, e.Got, e.Want)
}

// TruncatedRasterError indicates the raster ended in the middle of a row
type TruncatedRasterError struct {
	Row int
}

func (e *TruncatedRasterError) Error() string {
	return fmt.Sprintf("row %d: raster data ends before row terminator", e.Row)
}

// InvalidPixelIndexError indicates a pixel index that does not fit the depth
type InvalidPixelIndexError struct {
	Row   int
	Col   int
	Index int
	Max   int
}

func (e *InvalidPixelIndexError) Error() string {
	return fmt.Sprintf("pixel (%d,%d): index %d exceeds maximum %d", e.Col, e.Row, e.Index, e.Max)
}

// PaletteConstructionError indicates a palette longer than the depth allows
type PaletteConstructionError struct {
	Kind PaletteKind
	Len  int
	Max  int
}

func (e *PaletteConstructionError) Error() string {
	return fmt.Sprintf("palette %s: %d colors, depth allows at most %d", e.Kind, e.Len, e.Max)
}

// PaletteIndexError indicates a lookup of an absent palette or an unresolvable index
type PaletteIndexError struct {
	Kind   PaletteKind
	Index  int
	Reason string
}

func (e *PaletteIndexError) Error() string {
	return fmt.Sprintf("palette %s index %d: %s", e.Kind, e.Index, e.Reason)
}

// DimensionMismatchError indicates header dimensions that disagree with the raster
type DimensionMismatchError struct {
	HeaderWidth  int
	HeaderHeight int
	RasterWidth  int
	RasterHeight int
	Len          int // Length of the raster pixel buffer
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("header declares %dx%d, raster is %dx%d with %d pixels",
		e.HeaderWidth, e.HeaderHeight, e.RasterWidth, e.RasterHeight, e.Len)
}

// DepthMismatchError indicates the raster depth byte disagrees with the IFM record
type DepthMismatchError struct {
	Header Depth
	Raster byte
}

func (e *DepthMismatchError) Error() string {
	return fmt.Sprintf("raster depth byte %d does not match header depth %d", e.Raster, e.Header)
}
