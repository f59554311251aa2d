package text

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyuri/kapconv/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

const (
	ctrlZ      = 0x1a // Ends the header text
	headerStop = 0x00 // Follows Ctrl-Z; the raster section starts after it
)

// Reader parses the ASCII header section of a KAP image file
type Reader struct {
	data    []byte
	decoder *encoding.Decoder
	log     logrus.FieldLogger
}

// NewReader creates a header reader over data. A nil encoding selects
// ISO-8859-1 and a nil logger discards output.
func NewReader(data []byte, enc encoding.Encoding, log logrus.FieldLogger) *Reader {
	if enc == nil {
		enc, _ = Encoding(DefaultCodePage)
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Reader{
		data:    data,
		decoder: enc.NewDecoder(),
		log:     log,
	}
}

// Read parses the header and returns it with the number of bytes consumed,
// i.e. the offset of the raster section
func (r *Reader) Read() (*model.Header, int, error) {
	end := bytes.IndexByte(r.data, ctrlZ)
	if end < 0 {
		return nil, 0, model.ErrTruncatedInput
	}
	stop := bytes.IndexByte(r.data[end+1:], headerStop)
	if stop < 0 {
		return nil, 0, model.ErrTruncatedInput
	}
	consumed := end + 1 + stop + 1

	decoded, err := r.decoder.Bytes(r.data[:end])
	if err != nil {
		return nil, 0, fmt.Errorf("decode header text: %w", err)
	}

	records, lines := splitRecords(string(decoded))
	r.log.WithFields(logrus.Fields{
		"bytes":   consumed,
		"records": len(records),
	}).Debug("read header section")

	p, err := interpret(records, lines)
	if err != nil {
		return nil, 0, err
	}
	h, err := p.header(records)
	if err != nil {
		return nil, 0, err
	}
	return h, consumed, nil
}

// splitRecords groups header lines into records. It returns the records and
// the 1-based line number each record starts at.
func splitRecords(text string) ([]model.Record, []int) {
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	if text == "" {
		return nil, nil
	}

	var records []model.Record
	var starts []int
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, "!"):
			records = append(records, model.Record{Kind: model.KindComment, Lines: []string{line}})

		case line != "" && (line[0] == ' ' || line[0] == '\t') &&
			len(records) > 0 && records[len(records)-1].Tag != "":
			last := &records[len(records)-1]
			last.Lines = append(last.Lines, line)
			continue

		default:
			tag, ok := recordTag(line)
			if !ok {
				records = append(records, model.Record{Kind: model.KindOpaque, Lines: []string{line}})
				break
			}
			records = append(records, model.Record{Kind: kindOf(tag), Tag: tag, Lines: []string{line}})
		}
		starts = append(starts, i+1)
	}
	return records, starts
}

// recordTag extracts the 3-4 character tag of a "TAG/..." line
func recordTag(line string) (string, bool) {
	slash := strings.IndexByte(line, '/')
	if slash != 3 && slash != 4 {
		return "", false
	}
	tag := line[:slash]
	if tag[0] < 'A' || tag[0] > 'Z' {
		return "", false
	}
	for i := 1; i < len(tag); i++ {
		c := tag[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", false
		}
	}
	return tag, true
}

func kindOf(tag string) model.RecordKind {
	switch tag {
	case "VER":
		return model.KindVersion
	case "BSB", "NOS":
		return model.KindGeneral
	case "KNP":
		return model.KindDetailed
	case "IFM":
		return model.KindDepth
	case "REF":
		return model.KindRef
	case "PLY":
		return model.KindBorder
	case "DTM":
		return model.KindDatumShift
	}
	if model.IsPaletteTag(tag) {
		return model.KindPalette
	}
	return model.KindOpaque
}

// parsed holds the typed content of a header before mandatory field checks
type parsed struct {
	version   string
	general   *model.GeneralParameters
	detailed  *model.DetailedParameters
	depth     model.Depth
	depthSeen bool
	palettes  map[model.PaletteKind][]model.Color
	refs      []model.Ref
	border    []model.Vertex
	dtm       *model.DatumShift
}

// interpret converts records into typed values. Optional records that fail
// to parse are downgraded to opaque records in place.
func interpret(records []model.Record, lines []int) (*parsed, error) {
	p := &parsed{}
	entries := make(map[model.PaletteKind]map[int]model.Color)

	for i := range records {
		rec := &records[i]
		line := lines[i]
		body := rec.Body()

		switch rec.Kind {
		case model.KindVersion:
			if p.version != "" {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Line: line, Reason: "duplicate record"}
			}
			if body == "" {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Line: line, Reason: "empty version"}
			}
			p.version = body

		case model.KindGeneral:
			if p.general != nil {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Line: line, Reason: "duplicate record"}
			}
			g, err := parseGeneral(rec.Tag, body, line)
			if err != nil {
				return nil, err
			}
			p.general = g

		case model.KindDetailed:
			if p.detailed != nil {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Line: line, Reason: "duplicate record"}
			}
			fields := parseFields(body)
			d := &model.DetailedParameters{Fields: fields}
			if f, ok := findField(fields, "SC"); ok {
				d.Scale = parsePositive(f.Value)
			}
			if f, ok := findField(fields, "GD"); ok {
				d.Datum = f.Value
			}
			if f, ok := findField(fields, "PR"); ok {
				d.Projection = f.Value
			}
			p.detailed = d

		case model.KindDepth:
			if p.depthSeen {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Field: "depth", Line: line, Reason: "duplicate record"}
			}
			bits, err := strconv.Atoi(body)
			if err != nil {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Field: "depth", Value: body, Line: line, Reason: "depth is not a number"}
			}
			d, err := model.ParseDepth(bits)
			if err != nil {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Field: "depth", Value: body, Line: line, Reason: err.Error()}
			}
			p.depth = d
			p.depthSeen = true

		case model.KindPalette:
			kind := model.PaletteKind(rec.Tag)
			index, c, ok := parsePaletteEntry(body)
			if !ok {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Field: "entry", Value: body, Line: line, Reason: "expected index,red,green,blue"}
			}
			if entries[kind] == nil {
				entries[kind] = make(map[int]model.Color)
			}
			if _, dup := entries[kind][index]; dup {
				return nil, &model.HeaderParseError{Tag: rec.Tag, Field: "entry", Value: body, Line: line, Reason: "duplicate palette index"}
			}
			entries[kind][index] = c

		case model.KindRef:
			ref, ok := parseRef(body)
			if !ok {
				rec.Kind = model.KindOpaque
				continue
			}
			p.refs = append(p.refs, ref)

		case model.KindBorder:
			v, ok := parseVertex(body)
			if !ok {
				rec.Kind = model.KindOpaque
				continue
			}
			p.border = append(p.border, v)

		case model.KindDatumShift:
			vals := splitValues(body)
			if p.dtm != nil || len(vals) != 2 {
				rec.Kind = model.KindOpaque
				continue
			}
			north, err1 := strconv.ParseFloat(vals[0], 64)
			east, err2 := strconv.ParseFloat(vals[1], 64)
			if err1 != nil || err2 != nil {
				rec.Kind = model.KindOpaque
				continue
			}
			p.dtm = &model.DatumShift{North: north, East: east}
		}
	}

	if len(entries) > 0 {
		p.palettes = make(map[model.PaletteKind][]model.Color, len(entries))
	}
	for kind, byIndex := range entries {
		colors := make([]model.Color, len(byIndex))
		for index, c := range byIndex {
			if index > len(colors) {
				return nil, &model.HeaderParseError{
					Tag:    string(kind),
					Field:  "entry",
					Reason: fmt.Sprintf("palette has %d entries but uses index %d", len(colors), index),
				}
			}
			colors[index-1] = c
		}
		p.palettes[kind] = colors
	}
	return p, nil
}

func parseGeneral(tag, body string, line int) (*model.GeneralParameters, error) {
	fields := parseFields(body)
	g := &model.GeneralParameters{Tag: tag, Fields: fields}
	if f, ok := findField(fields, "NA"); ok {
		g.Name = f.Value
	}
	if f, ok := findField(fields, "NU"); ok {
		g.Number = f.Value
	}
	if f, ok := findField(fields, "RA"); ok {
		w, h, ok := parseSize(f.Value)
		if !ok {
			return nil, &model.HeaderParseError{Tag: tag, Field: "RA", Value: f.Value, Line: line, Reason: "expected width,height"}
		}
		g.Width, g.Height = w, h
	} else {
		return nil, &model.HeaderParseError{Tag: tag, Field: "RA", Line: line, Reason: "missing image size"}
	}
	if f, ok := findField(fields, "DU"); ok {
		g.DrawingUnits = parsePositive(f.Value)
	}
	return g, nil
}

// parsePaletteEntry parses "index,red,green,blue"
func parsePaletteEntry(body string) (int, model.Color, bool) {
	vals := splitValues(body)
	if len(vals) != 4 {
		return 0, model.Color{}, false
	}
	index, err := strconv.Atoi(vals[0])
	if err != nil || index < 1 {
		return 0, model.Color{}, false
	}
	var rgb [3]byte
	for i, v := range vals[1:] {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return 0, model.Color{}, false
		}
		rgb[i] = byte(n)
	}
	return index, model.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, true
}

// parseRef parses "n,x,y,lat,lon"
func parseRef(body string) (model.Ref, bool) {
	vals := splitValues(body)
	if len(vals) != 5 {
		return model.Ref{}, false
	}
	n, err1 := strconv.Atoi(vals[0])
	x, err2 := strconv.Atoi(vals[1])
	y, err3 := strconv.Atoi(vals[2])
	lat, err4 := strconv.ParseFloat(vals[3], 64)
	lon, err5 := strconv.ParseFloat(vals[4], 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return model.Ref{}, false
		}
	}
	return model.Ref{Index: n, X: x, Y: y, Lat: lat, Lon: lon}, true
}

// parseVertex parses "n,lat,lon"
func parseVertex(body string) (model.Vertex, bool) {
	vals := splitValues(body)
	if len(vals) != 3 {
		return model.Vertex{}, false
	}
	n, err1 := strconv.Atoi(vals[0])
	lat, err2 := strconv.ParseFloat(vals[1], 64)
	lon, err3 := strconv.ParseFloat(vals[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return model.Vertex{}, false
	}
	return model.Vertex{Index: n, Lat: lat, Lon: lon}, true
}

// header checks mandatory fields and builds the validated header
func (p *parsed) header(records []model.Record) (*model.Header, error) {
	switch {
	case p.version == "":
		return nil, &model.HeaderParseError{Tag: "VER", Reason: "missing version record"}
	case p.general == nil:
		return nil, &model.HeaderParseError{Tag: "BSB", Reason: "missing general parameters record"}
	case p.general.Name == "":
		return nil, &model.HeaderParseError{Tag: p.general.Tag, Field: "NA", Reason: "missing chart name"}
	case !p.depthSeen:
		return nil, &model.HeaderParseError{Tag: "IFM", Field: "depth", Reason: "missing depth record"}
	case len(p.palettes) == 0:
		return nil, &model.HeaderParseError{Tag: string(model.PaletteRGB), Field: "palette", Reason: "no color palette"}
	}

	palettes, err := model.NewPaletteTable(p.depth, p.palettes)
	if err != nil {
		return nil, err
	}

	h := &model.Header{
		Version:    p.version,
		General:    *p.general,
		Detailed:   p.detailed,
		Depth:      p.depth,
		Palettes:   palettes,
		Refs:       p.refs,
		Border:     p.border,
		DatumShift: p.dtm,
		Records:    records,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}
