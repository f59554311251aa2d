package text

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dyuri/kapconv/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

const lineEnd = "\r\n"

// groupRank is the canonical order of record groups in a freshly written header
var groupRank = map[string]int{
	"VER": 0,
	"BSB": 1,
	"KNP": 2,
	"IFM": 3,
	"RGB": 4,
	"DAY": 5,
	"DSK": 6,
	"NGT": 7,
	"NGR": 8,
	"GRY": 9,
	"PRC": 10,
	"PRG": 11,
	"REF": 12,
	"PLY": 13,
	"DTM": 14,
}

// Writer writes the ASCII header section of a KAP image file
type Writer struct {
	w       io.Writer
	encoder *encoding.Encoder
	log     logrus.FieldLogger
}

// NewWriter creates a header writer. A nil encoding selects ISO-8859-1 and a
// nil logger discards output.
func NewWriter(w io.Writer, enc encoding.Encoding, log logrus.FieldLogger) *Writer {
	if enc == nil {
		enc, _ = Encoding(DefaultCodePage)
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Writer{
		w:       w,
		encoder: enc.NewEncoder(),
		log:     log,
	}
}

// Write outputs the header text followed by the Ctrl-Z/NUL terminator
func (w *Writer) Write(h *model.Header) error {
	if err := h.Validate(); err != nil {
		return err
	}

	lines := w.lines(h)
	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString(lineEnd)
	}

	encoded, err := w.encoder.Bytes([]byte(buf.String()))
	if err != nil {
		return fmt.Errorf("encode header text: %w", err)
	}
	encoded = append(encoded, ctrlZ, headerStop)

	if _, err := w.w.Write(encoded); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.log.WithFields(logrus.Fields{
		"lines": len(lines),
		"bytes": len(encoded),
	}).Debug("wrote header section")
	return nil
}

// Encode renders the header section into a new byte slice
func Encode(h *model.Header, enc encoding.Encoding, log logrus.FieldLogger) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, enc, log).Write(h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses the header section at the start of data. It returns the
// header and the offset of the raster section.
func Decode(data []byte, enc encoding.Encoding, log logrus.FieldLogger) (*model.Header, int, error) {
	return NewReader(data, enc, log).Read()
}

// chunk is a run of output lines; rank is -1 for comments and opaque records
type chunk struct {
	rank  int
	lines []string
}

// lines lays out the header. Records are walked in order: comments and opaque
// records are copied, and a known group whose typed value still renders the
// same as its source records keeps those records as they were. A changed group
// is rendered once at the position of its first record. Groups with no source
// record are inserted next to their canonical neighbours.
func (w *Writer) lines(h *model.Header) []string {
	current := fromHeader(h).render()
	unchanged := w.unchangedGroups(h.Records, current)

	var chunks []chunk
	present := make(map[string]bool)
	for _, rec := range h.Records {
		g := rec.Group()
		if g == "" {
			chunks = append(chunks, chunk{rank: -1, lines: rec.Lines})
			continue
		}
		rank := groupRank[g]
		if unchanged[g] {
			chunks = append(chunks, chunk{rank: rank, lines: rec.Lines})
			present[g] = true
			continue
		}
		if present[g] {
			continue
		}
		present[g] = true
		if len(current[g]) > 0 {
			chunks = append(chunks, chunk{rank: rank, lines: current[g]})
		}
	}

	groups := make([]string, 0, len(current))
	for g := range current {
		if !present[g] && len(current[g]) > 0 {
			groups = append(groups, g)
		}
	}
	slices.SortFunc(groups, func(a, b string) int { return groupRank[a] - groupRank[b] })
	for _, g := range groups {
		chunks = insertChunk(chunks, chunk{rank: groupRank[g], lines: current[g]})
	}

	var out []string
	for _, c := range chunks {
		out = append(out, c.lines...)
	}
	return out
}

// unchangedGroups reports the groups whose source records re-render to the
// same text as the typed header values
func (w *Writer) unchangedGroups(records []model.Record, current map[string][]string) map[string]bool {
	if len(records) == 0 {
		return nil
	}
	recs := slices.Clone(records)
	lines := make([]int, len(recs))
	for i := range lines {
		lines[i] = i + 1
	}
	src, err := interpret(recs, lines)
	if err != nil {
		w.log.WithError(err).Debug("source records no longer parse, rendering every group")
		return nil
	}
	original := src.render()

	out := make(map[string]bool)
	for i, rec := range records {
		g := rec.Group()
		// A record that no longer interprets under its old kind is a change
		if g == "" || recs[i].Kind != rec.Kind {
			continue
		}
		if _, done := out[g]; done {
			continue
		}
		out[g] = slices.Equal(original[g], current[g])
	}
	for i, rec := range records {
		if g := rec.Group(); g != "" && recs[i].Kind != rec.Kind {
			out[g] = false
		}
	}
	return out
}

// insertChunk places c after the last chunk of lower rank, else before the
// first chunk of higher rank, else at the end
func insertChunk(chunks []chunk, c chunk) []chunk {
	at := -1
	for i, existing := range chunks {
		if existing.rank >= 0 && existing.rank < c.rank {
			at = i + 1
		}
	}
	if at < 0 {
		for i, existing := range chunks {
			if existing.rank > c.rank {
				at = i
				break
			}
		}
	}
	if at < 0 {
		at = len(chunks)
	}
	return slices.Insert(chunks, at, c)
}

// fromHeader converts typed header values into the form render expects
func fromHeader(h *model.Header) *parsed {
	g := h.General
	p := &parsed{
		version:   h.Version,
		general:   &g,
		detailed:  h.Detailed,
		depth:     h.Depth,
		depthSeen: h.Depth.Valid(),
		refs:      h.Refs,
		border:    h.Border,
		dtm:       h.DatumShift,
	}
	if h.Palettes != nil {
		p.palettes = make(map[model.PaletteKind][]model.Color)
		for _, kind := range h.Palettes.Kinds() {
			p.palettes[kind], _ = h.Palettes.Palette(kind)
		}
	}
	return p
}

// render produces the lines of every known group keyed by group name
func (p *parsed) render() map[string][]string {
	out := make(map[string][]string)

	if p.version != "" {
		out["VER"] = []string{"VER/" + p.version}
	}
	if p.general != nil {
		tag := p.general.Tag
		if tag == "" {
			tag = "BSB"
		}
		out["BSB"] = wrapFields(tag, generalFields(p.general))
	}
	if p.detailed != nil {
		out["KNP"] = wrapFields("KNP", detailedFields(p.detailed))
	}
	if p.depthSeen {
		out["IFM"] = []string{"IFM/" + strconv.Itoa(int(p.depth))}
	}
	for kind, colors := range p.palettes {
		lines := make([]string, len(colors))
		for i, c := range colors {
			lines[i] = fmt.Sprintf("%s/%d,%d,%d,%d", kind, i+1, c.R, c.G, c.B)
		}
		out[string(kind)] = lines
	}
	for _, ref := range p.refs {
		out["REF"] = append(out["REF"], fmt.Sprintf("REF/%d,%d,%d,%s,%s",
			ref.Index, ref.X, ref.Y, formatFloat(ref.Lat), formatFloat(ref.Lon)))
	}
	for _, v := range p.border {
		out["PLY"] = append(out["PLY"], fmt.Sprintf("PLY/%d,%s,%s",
			v.Index, formatFloat(v.Lat), formatFloat(v.Lon)))
	}
	if p.dtm != nil {
		out["DTM"] = []string{"DTM/" + formatFloat(p.dtm.North) + "," + formatFloat(p.dtm.East)}
	}
	return out
}
