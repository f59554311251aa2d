package kap

import "github.com/dyuri/kapconv/internal/model"

// Data model types shared with the codec packages
type (
	Header             = model.Header
	GeneralParameters  = model.GeneralParameters
	DetailedParameters = model.DetailedParameters
	Field              = model.Field
	Ref                = model.Ref
	Vertex             = model.Vertex
	DatumShift         = model.DatumShift
	Record             = model.Record
	RecordKind         = model.RecordKind
	Raster             = model.Raster
	Depth              = model.Depth
	Color              = model.Color
	PaletteKind        = model.PaletteKind
	PaletteTable       = model.PaletteTable
)

const (
	DepthOne   = model.DepthOne
	DepthFour  = model.DepthFour
	DepthSeven = model.DepthSeven
)

const (
	PaletteRGB = model.PaletteRGB
	PaletteDAY = model.PaletteDAY
	PaletteDSK = model.PaletteDSK
	PaletteNGT = model.PaletteNGT
	PaletteNGR = model.PaletteNGR
	PaletteGRY = model.PaletteGRY
	PalettePRC = model.PalettePRC
	PalettePRG = model.PalettePRG
)

// NewRaster allocates a zeroed width x height raster
func NewRaster(width, height int) *Raster {
	return model.NewRaster(width, height)
}

// NewRasterFrom wraps pix as a width x height raster
func NewRasterFrom(width, height int, pix []byte) (*Raster, error) {
	return model.NewRasterFrom(width, height, pix)
}

// NewPaletteTable builds a palette table for depth. Entry i of a palette is
// addressed by raster index i+1.
func NewPaletteTable(depth Depth, palettes map[PaletteKind][]Color) (*PaletteTable, error) {
	return model.NewPaletteTable(depth, palettes)
}

// ParseDepth converts an IFM value into a Depth
func ParseDepth(bits int) (Depth, error) {
	return model.ParseDepth(bits)
}
