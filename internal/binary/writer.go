package binary

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dyuri/kapconv/internal/model"
	"github.com/sirupsen/logrus"
)

// Writer encodes the raster section of a KAP image file
type Writer struct {
	w       io.Writer
	depth   model.Depth
	origin  int                    // Absolute offset the raster section is written at
	endian  binary.AppendByteOrder // Index table entries are big-endian
	workers int
	log     logrus.FieldLogger
}

// NewWriter creates a raster writer. origin is the file offset of the first
// raster byte, i.e. the length of the header section written before it.
func NewWriter(w io.Writer, depth model.Depth, origin, workers int, log logrus.FieldLogger) *Writer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Writer{
		w:       w,
		depth:   depth,
		origin:  origin,
		endian:  binary.BigEndian,
		workers: workers,
		log:     log,
	}
}

// Write outputs the depth byte, every row and the trailing row index
func (w *Writer) Write(r *model.Raster) error {
	data, err := w.Encode(r)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	return nil
}

// Encode renders the raster section into a new byte slice
func (w *Writer) Encode(r *model.Raster) ([]byte, error) {
	if !w.depth.Valid() {
		return nil, fmt.Errorf("encode raster: unsupported depth %d", w.depth)
	}
	if err := r.Validate(w.depth); err != nil {
		return nil, err
	}

	rows := make([][]byte, r.Height)
	err := forEachRow(r.Height, w.workers, func(y int) error {
		rows[y] = encodeRow(nil, r.Row(y), y, w.depth)
		return nil
	})
	if err != nil {
		return nil, err
	}

	size := 1 + 4*(r.Height+1)
	for _, row := range rows {
		size += len(row)
	}
	if uint64(w.origin+size) > math.MaxUint32 {
		return nil, fmt.Errorf("encode raster: %d bytes at offset %d exceed the 32 bit row index", size, w.origin)
	}

	out := make([]byte, 0, size)
	out = append(out, byte(w.depth))
	offsets := make([]uint32, 0, r.Height+1)
	for _, row := range rows {
		offsets = append(offsets, uint32(w.origin+len(out)))
		out = append(out, row...)
	}
	offsets = append(offsets, uint32(w.origin+len(out)))
	for _, off := range offsets {
		out = w.endian.AppendUint32(out, off)
	}

	w.log.WithFields(logrus.Fields{
		"width":  r.Width,
		"height": r.Height,
		"bytes":  len(out),
	}).Debug("encoded raster")
	return out, nil
}

// encodeRow appends row y: its marker, one token per run and the terminator
func encodeRow(dst, pix []byte, y int, depth model.Depth) []byte {
	dst = appendRowMarker(dst, y+1)
	for x := 0; x < len(pix); {
		n := 1
		for x+n < len(pix) && pix[x+n] == pix[x] {
			n++
		}
		dst = appendRun(dst, depth, pix[x], n)
		x += n
	}
	return append(dst, rowEnd)
}

// Encode renders the raster section of a file whose header is origin bytes long
func Encode(r *model.Raster, depth model.Depth, origin int) ([]byte, error) {
	return NewWriter(nil, depth, origin, 0, nil).Encode(r)
}
