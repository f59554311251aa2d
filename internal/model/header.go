package model

import "strings"

// MaxDimension bounds the width and height declared in the RA field
const MaxDimension = 65535

// Header represents the complete ASCII header of a KAP image file.
//
// Typed fields hold the interpreted records; Records preserves every record in
// file order (known, comment and opaque) so the header can be written back
// losslessly. Headers built in code may leave Records empty.
type Header struct {
	Version    string              // VER, e.g. "3.0"
	General    GeneralParameters   // BSB (or NOS)
	Detailed   *DetailedParameters // KNP (optional)
	Depth      Depth               // IFM
	Palettes   *PaletteTable       // RGB, DAY, DSK, ...
	Refs       []Ref               // REF (optional)
	Border     []Vertex            // PLY (optional)
	DatumShift *DatumShift         // DTM (optional)
	Records    []Record
}

// Field is one KEY=value entry of a field-list record (BSB, KNP)
type Field struct {
	Key   string
	Value string
}

// GeneralParameters holds the BSB record
type GeneralParameters struct {
	Tag          string // "BSB" or "NOS"; empty means "BSB"
	Name         string // NA
	Number       string // NU (optional)
	Width        int    // RA first value
	Height       int    // RA second value
	DrawingUnits int    // DU in pixels per inch, 0 when absent

	// Fields keeps every field in file order; unknown keys are re-emitted verbatim
	Fields []Field
}

// DetailedParameters holds the KNP record
type DetailedParameters struct {
	Scale      int    // SC, 0 when absent
	Datum      string // GD
	Projection string // PR

	// Fields keeps every field in file order; unknown keys are re-emitted verbatim
	Fields []Field
}

// Ref is a registration reference point mapping pixels to geographic coordinates
type Ref struct {
	Index int
	X     int
	Y     int
	Lat   float64
	Lon   float64
}

// Vertex is one point of the chart border polygon
type Vertex struct {
	Index int
	Lat   float64
	Lon   float64
}

// DatumShift is the DTM record, in floating point seconds
type DatumShift struct {
	North float64
	East  float64
}

// Width returns the image width declared in the header
func (h *Header) Width() int {
	return h.General.Width
}

// Height returns the image height declared in the header
func (h *Header) Height() int {
	return h.General.Height
}

// Comments returns the text of every comment record, without the leading "!"
func (h *Header) Comments() []string {
	var out []string
	for _, rec := range h.Records {
		if rec.Kind != KindComment {
			continue
		}
		for _, line := range rec.Lines {
			out = append(out, strings.TrimPrefix(line, "!"))
		}
	}
	return out
}

// Opaque returns the records this package does not interpret
func (h *Header) Opaque() []Record {
	var out []Record
	for _, rec := range h.Records {
		if rec.Kind == KindOpaque {
			out = append(out, rec)
		}
	}
	return out
}

// Validate checks that every mandatory field is present and consistent
func (h *Header) Validate() error {
	tag := h.General.Tag
	if tag == "" {
		tag = "BSB"
	}
	switch {
	case h.Version == "":
		return &HeaderParseError{Tag: "VER", Reason: "missing version record"}
	case h.General.Name == "":
		return &HeaderParseError{Tag: tag, Field: "NA", Reason: "missing chart name"}
	case h.General.Width < 0 || h.General.Width > MaxDimension,
		h.General.Height < 0 || h.General.Height > MaxDimension:
		return &HeaderParseError{Tag: tag, Field: "RA", Reason: "image size out of range"}
	case !h.Depth.Valid():
		return &HeaderParseError{Tag: "IFM", Field: "depth", Reason: "missing or unsupported depth"}
	case h.Palettes == nil || len(h.Palettes.Kinds()) == 0:
		return &HeaderParseError{Tag: string(PaletteRGB), Field: "palette", Reason: "no color palette"}
	case h.Palettes.Depth() != h.Depth:
		return &HeaderParseError{Tag: "IFM", Field: "depth", Reason: "palette table built for depth " + h.Palettes.Depth().String()}
	}
	return nil
}
