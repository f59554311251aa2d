package binary

import (
	"encoding/binary"
	"io"

	"github.com/dyuri/kapconv/internal/model"
	"github.com/sirupsen/logrus"
)

// Reader decodes the raster section of a KAP image file
type Reader struct {
	data    []byte // Whole file; index table offsets are absolute
	start   int    // Offset of the depth byte that opens the raster section
	depth   model.Depth
	endian  binary.ByteOrder // Index table entries are big-endian
	workers int
	log     logrus.FieldLogger
}

// NewReader creates a raster reader over a complete file whose raster section
// begins at start. workers <= 0 uses one goroutine per CPU.
func NewReader(data []byte, start int, depth model.Depth, workers int, log logrus.FieldLogger) *Reader {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Reader{
		data:    data,
		start:   start,
		depth:   depth,
		endian:  binary.BigEndian,
		workers: workers,
		log:     log,
	}
}

// Read decodes a width x height raster.
//
// Row 0 is decoded before the pixel buffer is allocated, so a short file
// declaring a huge raster fails without a large allocation. When the trailing
// row index is consistent the remaining rows are decoded in parallel;
// otherwise, or if the indexed decode fails, they are scanned sequentially.
func (r *Reader) Read(width, height int) (*model.Raster, error) {
	if r.start >= len(r.data) {
		return nil, &model.TruncatedRasterError{Row: 0}
	}
	if got := r.data[r.start]; got != byte(r.depth) {
		return nil, &model.DepthMismatchError{Header: r.depth, Raster: got}
	}
	// Every row needs at least a marker and a terminator
	if avail := len(r.data) - r.start - 1; avail < 2*height {
		return nil, &model.TruncatedRasterError{Row: avail / 2}
	}
	if height == 0 {
		return model.NewRaster(width, 0), nil
	}

	first := make([]byte, width)
	n, err := r.decodeRow(r.data[r.start+1:], 0, first)
	if err != nil {
		return nil, err
	}
	raster := model.NewRaster(width, height)
	copy(raster.Row(0), first)

	if offsets, ok := r.readIndex(height); ok {
		err := forEachRow(height-1, r.workers, func(i int) error {
			y := i + 1
			_, err := r.decodeRow(r.data[offsets[y]:offsets[y+1]], y, raster.Row(y))
			return err
		})
		if err == nil {
			r.log.WithFields(logrus.Fields{
				"width":  width,
				"height": height,
			}).Debug("decoded raster using row index")
			return raster, nil
		}
		r.log.WithError(err).Warn("row index inconsistent with raster data, scanning rows")
	}

	pos := r.start + 1 + n
	for y := 1; y < height; y++ {
		n, err := r.decodeRow(r.data[pos:], y, raster.Row(y))
		if err != nil {
			return nil, err
		}
		pos += n
	}
	r.log.WithFields(logrus.Fields{
		"width":  width,
		"height": height,
		"bytes":  pos - r.start,
	}).Debug("decoded raster sequentially")
	return raster, nil
}

// readIndex returns the row start offsets followed by the index table offset,
// or false when the file carries no usable index
func (r *Reader) readIndex(height int) ([]int, bool) {
	size := 4 * (height + 1)
	if len(r.data) < r.start+1+size {
		return nil, false
	}
	tableOff := int(r.endian.Uint32(r.data[len(r.data)-4:]))
	if tableOff != len(r.data)-size {
		return nil, false
	}

	offsets := make([]int, height+1)
	prev := r.start + 1
	for y := 0; y <= height; y++ {
		off := int(r.endian.Uint32(r.data[tableOff+4*y:]))
		if off < prev || off > tableOff {
			return nil, false
		}
		offsets[y] = off
		prev = off
	}
	if height > 0 && offsets[0] != r.start+1 {
		return nil, false
	}
	return offsets, true
}

// decodeRow decodes one row starting at its row marker into pix. It returns
// the number of bytes consumed including the terminator.
func (r *Reader) decodeRow(data []byte, y int, pix []byte) (int, error) {
	marker, pos, ok := readRowMarker(data)
	if !ok {
		return 0, &model.TruncatedRasterError{Row: y}
	}
	if marker != y+1 && marker != y {
		r.log.WithFields(logrus.Fields{
			"row":    y,
			"marker": marker,
		}).Warn("unexpected row marker")
	}

	x := 0
	for {
		if pos >= len(data) {
			return 0, &model.TruncatedRasterError{Row: y}
		}
		if data[pos] == rowEnd {
			pos++
			break
		}
		index, n, size, ok := readRun(data[pos:], r.depth)
		if !ok {
			return 0, &model.TruncatedRasterError{Row: y}
		}
		if n <= 0 || x+n > len(pix) {
			return 0, &model.RowLengthMismatchError{Row: y, Got: x + n, Want: len(pix)}
		}
		for i := x; i < x+n; i++ {
			pix[i] = index
		}
		x += n
		pos += size
	}
	if x != len(pix) {
		return 0, &model.RowLengthMismatchError{Row: y, Got: x, Want: len(pix)}
	}
	return pos, nil
}

// Decode reads a width x height raster whose section starts at data[start]
func Decode(data []byte, start, width, height int, depth model.Depth) (*model.Raster, error) {
	return NewReader(data, start, depth, 0, nil).Read(width, height)
}
