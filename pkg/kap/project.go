package kap

import (
	"iter"
	"slices"
)

// Project resolves every raster index through the palette of the given kind.
//
// All indices are checked before Project returns, so a raster containing the
// reserved index 0 or an index beyond the palette yields a PaletteIndexError
// and no sequence. The sequence walks the raster in row-major order and may be
// iterated any number of times. It reads a copy of the indices taken when
// Project is called, so later changes to the raster do not affect it.
func (c *Chart) Project(kind PaletteKind) (iter.Seq[Color], error) {
	table, err := c.resolve(kind)
	if err != nil {
		return nil, err
	}
	pix := slices.Clone(c.raster.Pix)
	return func(yield func(Color) bool) {
		for _, v := range pix {
			if !yield(table[v]) {
				return
			}
		}
	}, nil
}

// ProjectRGB appends the projected colors to dst as packed R, G, B bytes
func (c *Chart) ProjectRGB(dst []byte, kind PaletteKind) ([]byte, error) {
	table, err := c.resolve(kind)
	if err != nil {
		return nil, err
	}
	dst = growBytes(dst, 3*len(c.raster.Pix))
	for _, v := range c.raster.Pix {
		col := table[v]
		dst = append(dst, col.R, col.G, col.B)
	}
	return dst, nil
}

// resolve looks up every index used by the raster, reporting the first
// unresolvable one in raster order
func (c *Chart) resolve(kind PaletteKind) (*[256]Color, error) {
	palettes := c.header.Palettes
	if !palettes.Has(kind) {
		return nil, &PaletteIndexError{Kind: kind, Reason: "palette not present"}
	}

	var table [256]Color
	var done [256]bool
	for _, v := range c.raster.Pix {
		if done[v] {
			continue
		}
		col, err := palettes.Lookup(kind, int(v))
		if err != nil {
			return nil, err
		}
		table[v] = col
		done[v] = true
	}
	return &table, nil
}

func growBytes(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b
	}
	grown := make([]byte, len(b), len(b)+n)
	copy(grown, b)
	return grown
}
