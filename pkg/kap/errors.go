package kap

import "github.com/dyuri/kapconv/internal/model"

// Error kinds returned by the codec. Use errors.As to inspect them through
// the *Error wrapping added by Decode and Encode.
type (
	HeaderParseError         = model.HeaderParseError
	RowLengthMismatchError   = model.RowLengthMismatchError
	TruncatedRasterError     = model.TruncatedRasterError
	InvalidPixelIndexError   = model.InvalidPixelIndexError
	PaletteConstructionError = model.PaletteConstructionError
	PaletteIndexError        = model.PaletteIndexError
	DimensionMismatchError   = model.DimensionMismatchError
	DepthMismatchError       = model.DepthMismatchError
)

// ErrTruncatedInput is returned when the header terminator is never found
var ErrTruncatedInput = model.ErrTruncatedInput

// Error represents a kap error with the stage it occurred in
type Error struct {
	Code    string // invalid_header, invalid_raster, invalid_options or io
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
