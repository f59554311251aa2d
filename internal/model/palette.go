package model

// Color represents an RGB palette entry
type Color struct {
	R byte // Red (0-255)
	G byte // Green (0-255)
	B byte // Blue (0-255)
}

// RGBA implements image/color.Color. Palette colors are always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// PaletteKind is the record tag of a color palette
type PaletteKind string

const (
	PaletteRGB PaletteKind = "RGB" // Default palette
	PaletteDAY PaletteKind = "DAY" // Day
	PaletteDSK PaletteKind = "DSK" // Dusk
	PaletteNGT PaletteKind = "NGT" // Night
	PaletteNGR PaletteKind = "NGR" // Night red
	PaletteGRY PaletteKind = "GRY" // Gray
	PalettePRC PaletteKind = "PRC" // Optional color
	PalettePRG PaletteKind = "PRG" // Optional gray
)

// PaletteKinds lists every palette tag in canonical header order
var PaletteKinds = []PaletteKind{
	PaletteRGB, PaletteDAY, PaletteDSK, PaletteNGT,
	PaletteNGR, PaletteGRY, PalettePRC, PalettePRG,
}

// IsPaletteTag reports whether tag names a palette record
func IsPaletteTag(tag string) bool {
	for _, k := range PaletteKinds {
		if string(k) == tag {
			return true
		}
	}
	return false
}

// PaletteTable holds every palette of a chart, validated against its depth.
// Entries are indexed from 1; index 0 is reserved.
type PaletteTable struct {
	depth    Depth
	palettes map[PaletteKind][]Color
}

// NewPaletteTable validates every palette against depth and returns the table.
// The input slices are copied.
func NewPaletteTable(depth Depth, palettes map[PaletteKind][]Color) (*PaletteTable, error) {
	t := &PaletteTable{
		depth:    depth,
		palettes: make(map[PaletteKind][]Color, len(palettes)),
	}
	for _, kind := range PaletteKinds {
		colors, ok := palettes[kind]
		if !ok {
			continue
		}
		if len(colors) > depth.MaxColors() {
			return nil, &PaletteConstructionError{Kind: kind, Len: len(colors), Max: depth.MaxColors()}
		}
		t.palettes[kind] = append([]Color(nil), colors...)
	}
	for kind := range palettes {
		if !IsPaletteTag(string(kind)) {
			return nil, &PaletteIndexError{Kind: kind, Reason: "unknown palette kind"}
		}
	}
	return t, nil
}

// Depth returns the depth the table was validated against
func (t *PaletteTable) Depth() Depth {
	return t.depth
}

// Kinds returns the palettes present, in canonical order
func (t *PaletteTable) Kinds() []PaletteKind {
	kinds := make([]PaletteKind, 0, len(t.palettes))
	for _, k := range PaletteKinds {
		if _, ok := t.palettes[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Has reports whether a palette of the given kind is present
func (t *PaletteTable) Has(kind PaletteKind) bool {
	_, ok := t.palettes[kind]
	return ok
}

// Len returns the number of entries in a palette, 0 when absent
func (t *PaletteTable) Len(kind PaletteKind) int {
	return len(t.palettes[kind])
}

// Palette returns a copy of the colors of a palette
func (t *PaletteTable) Palette(kind PaletteKind) ([]Color, bool) {
	colors, ok := t.palettes[kind]
	if !ok {
		return nil, false
	}
	return append([]Color(nil), colors...), true
}

// Lookup resolves a pixel index in the given palette
func (t *PaletteTable) Lookup(kind PaletteKind, index int) (Color, error) {
	colors, ok := t.palettes[kind]
	if !ok {
		return Color{}, &PaletteIndexError{Kind: kind, Index: index, Reason: "palette not present"}
	}
	switch {
	case index == 0:
		return Color{}, &PaletteIndexError{Kind: kind, Index: index, Reason: "index 0 is reserved"}
	case index < 0 || index > t.depth.MaxIndex():
		return Color{}, &PaletteIndexError{Kind: kind, Index: index, Reason: "index outside depth range"}
	case index > len(colors):
		return Color{}, &PaletteIndexError{Kind: kind, Index: index, Reason: "index beyond palette length"}
	}
	return colors[index-1], nil
}

// Equal reports whether two tables hold the same depth and palettes
func (t *PaletteTable) Equal(o *PaletteTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.depth != o.depth || len(t.palettes) != len(o.palettes) {
		return false
	}
	for kind, colors := range t.palettes {
		other, ok := o.palettes[kind]
		if !ok || len(other) != len(colors) {
			return false
		}
		for i := range colors {
			if colors[i] != other[i] {
				return false
			}
		}
	}
	return true
}
