package model

import "fmt"

// Depth is the number of bits used per pixel index (IFM record)
type Depth uint8

const (
	DepthOne   Depth = 1 // 1 color
	DepthFour  Depth = 4 // up to 15 colors
	DepthSeven Depth = 7 // up to 127 colors
)

// ParseDepth converts an IFM value into a Depth
func ParseDepth(bits int) (Depth, error) {
	switch bits {
	case 1, 4, 7:
		return Depth(bits), nil
	}
	return 0, fmt.Errorf("unsupported depth %d: BSB supports 1, 4 and 7", bits)
}

// Valid reports whether d is one of the supported depths
func (d Depth) Valid() bool {
	return d == DepthOne || d == DepthFour || d == DepthSeven
}

// MaxIndex returns the largest pixel index representable at this depth
func (d Depth) MaxIndex() int {
	return 1<<d - 1
}

// MaxColors returns the largest palette allowed at this depth.
// Index 0 is reserved, so this equals MaxIndex.
func (d Depth) MaxColors() int {
	return d.MaxIndex()
}

func (d Depth) String() string {
	return fmt.Sprintf("%d", uint8(d))
}
