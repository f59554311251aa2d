package kap

import (
	"bytes"
	"io"
	"runtime"

	"github.com/dyuri/kapconv/internal/binary"
	"github.com/dyuri/kapconv/internal/text"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// Options controls how charts are decoded and encoded.
type Options struct {
	// Workers is the number of goroutines decoding or encoding raster rows.
	// If 0, defaults to runtime.NumCPU(). 1 disables the worker pool.
	Workers int

	// CodePage selects the header text encoding: 28591 (ISO-8859-1, the
	// default), 1252, 1250, 437 or 65001 (UTF-8, no conversion).
	CodePage int

	// Logger receives debug output and warnings about tolerated format quirks.
	// If nil, output is discarded.
	Logger logrus.FieldLogger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:  runtime.NumCPU(),
		CodePage: text.DefaultCodePage,
		Logger:   nil,
	}
}

// Codec decodes and encodes charts with a fixed set of options.
// A Codec holds no mutable state and may be shared between goroutines.
type Codec struct {
	workers int
	enc     encoding.Encoding
	log     logrus.FieldLogger
}

// NewCodec validates opts and returns a codec using them
func NewCodec(opts Options) (*Codec, error) {
	enc, err := text.Encoding(opts.CodePage)
	if err != nil {
		return nil, &Error{Code: "invalid_options", Message: "select header encoding", Cause: err}
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Codec{workers: workers, enc: enc, log: log}, nil
}

// mustCodec returns a codec for DefaultOptions, which always validate
func mustCodec() *Codec {
	c, err := NewCodec(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return c
}

// Decode parses a complete chart file. The header is parsed and validated
// before any raster byte is read; no Chart is returned on error.
func (c *Codec) Decode(data []byte) (*Chart, error) {
	header, n, err := text.Decode(data, c.enc, c.log)
	if err != nil {
		return nil, &Error{Code: "invalid_header", Message: "decode header", Cause: err}
	}

	c.log.WithFields(logrus.Fields{
		"name":   header.General.Name,
		"width":  header.Width(),
		"height": header.Height(),
		"depth":  header.Depth,
	}).Debug("decoding raster")

	raster, err := binary.NewReader(data, n, header.Depth, c.workers, c.log).
		Read(header.Width(), header.Height())
	if err != nil {
		return nil, &Error{Code: "invalid_raster", Message: "decode raster", Cause: err}
	}
	return New(header, raster)
}

// Read parses a chart file from r
func (c *Codec) Read(r io.Reader) (*Chart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Code: "io", Message: "read chart", Cause: err}
	}
	return c.Decode(data)
}

// Encode serializes a chart. The header and raster are validated against each
// other first, so an inconsistent chart never produces output.
func (c *Codec) Encode(chart *Chart) ([]byte, error) {
	if err := check(chart.header, chart.raster); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := text.NewWriter(&buf, c.enc, c.log).Write(chart.header); err != nil {
		return nil, &Error{Code: "invalid_header", Message: "encode header", Cause: err}
	}
	err := binary.NewWriter(&buf, chart.header.Depth, buf.Len(), c.workers, c.log).
		Write(chart.raster)
	if err != nil {
		return nil, &Error{Code: "invalid_raster", Message: "encode raster", Cause: err}
	}
	return buf.Bytes(), nil
}

// WriteTo writes the serialized chart to w
func (c *Codec) WriteTo(w io.Writer, chart *Chart) (int64, error) {
	data, err := c.Encode(chart)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), &Error{Code: "io", Message: "write chart", Cause: err}
	}
	return int64(n), nil
}
