package binary

import "github.com/dyuri/kapconv/internal/model"

// rowEnd terminates the run tokens of a row
const rowEnd = 0x00

// more flags a byte that is followed by another byte of the same number
const more = 0x80

// appendRun appends the token for a run of n pixels of value index.
//
// The first byte carries a continuation flag in bit 7, the pixel index in the
// next depth bits and the high bits of n-1 in the remaining low bits. Further
// bytes carry 7 bits of n-1 each, most significant first, with bit 7 set on
// every byte but the last.
func appendRun(dst []byte, depth model.Depth, index byte, n int) []byte {
	shift := 7 - uint(depth)
	inlineMax := 1<<shift - 1
	v := n - 1

	k := 0
	for v>>(7*k) > inlineMax {
		k++
	}

	first := index<<shift | byte(v>>(7*k))
	if k > 0 {
		first |= more
	}
	if first == rowEnd {
		// A zero first byte would read as the row terminator
		return append(dst, more, 0x00)
	}
	dst = append(dst, first)
	for j := k - 1; j >= 0; j-- {
		b := byte(v>>(7*j)) & 0x7f
		if j > 0 {
			b |= more
		}
		dst = append(dst, b)
	}
	return dst
}

// readRun decodes one run token starting at data[0]. It returns the pixel
// index, the run length and the number of bytes consumed; ok is false when the
// token runs past the end of data. Lengths above model.MaxDimension are
// clamped to model.MaxDimension+1, which no row can hold.
func readRun(data []byte, depth model.Depth) (index byte, n int, size int, ok bool) {
	if len(data) == 0 {
		return 0, 0, 0, false
	}
	shift := 7 - uint(depth)
	mask := byte(1<<shift - 1)

	b := data[0]
	index = (b & 0x7f) >> shift
	v := int(b & mask)
	size = 1
	for b&more != 0 {
		if size >= len(data) {
			return 0, 0, 0, false
		}
		b = data[size]
		v = v<<7 | int(b&0x7f)
		if v > model.MaxDimension {
			v = model.MaxDimension
		}
		size++
	}
	return index, v + 1, size, true
}

// appendRowMarker appends the row number as big-endian 7 bit groups
func appendRowMarker(dst []byte, row int) []byte {
	k := 0
	for row>>(7*(k+1)) > 0 {
		k++
	}
	for j := k; j >= 0; j-- {
		b := byte(row>>(7*j)) & 0x7f
		if j > 0 {
			b |= more
		}
		dst = append(dst, b)
	}
	return dst
}

// readRowMarker decodes a row marker
func readRowMarker(data []byte) (row int, size int, ok bool) {
	for size < len(data) {
		b := data[size]
		row = row<<7 | int(b&0x7f)
		size++
		if b&more == 0 {
			return row, size, true
		}
	}
	return 0, 0, false
}
