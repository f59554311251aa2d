package model

import "strings"

// RecordKind identifies how a header record is interpreted
type RecordKind int

const (
	KindOpaque     RecordKind = iota // Unknown or unparseable; kept verbatim
	KindComment                      // "!" comment line
	KindVersion                      // VER
	KindGeneral                      // BSB or NOS general parameters
	KindDetailed                     // KNP detailed parameters
	KindDepth                        // IFM
	KindPalette                      // RGB, DAY, DSK, NGT, NGR, GRY, PRC, PRG
	KindRef                          // REF reference point
	KindBorder                       // PLY border polygon vertex
	KindDatumShift                   // DTM
)

var kindNames = map[RecordKind]string{
	KindOpaque:     "opaque",
	KindComment:    "comment",
	KindVersion:    "version",
	KindGeneral:    "general",
	KindDetailed:   "detailed",
	KindDepth:      "depth",
	KindPalette:    "palette",
	KindRef:        "ref",
	KindBorder:     "border",
	KindDatumShift: "datum-shift",
}

func (k RecordKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Record is one logical header record.
//
// Lines holds the physical lines exactly as read: the "TAG/..." line followed by
// any continuation lines. Comments and lines that do not match the record grammar
// have an empty Tag.
type Record struct {
	Kind  RecordKind
	Tag   string
	Lines []string
}

// Body returns the record value text with continuation lines joined by commas
func (r Record) Body() string {
	if len(r.Lines) == 0 {
		return ""
	}
	first := r.Lines[0]
	if r.Tag != "" {
		first = strings.TrimPrefix(first, r.Tag+"/")
	}
	body := strings.TrimSpace(first)
	for _, cont := range r.Lines[1:] {
		cont = strings.TrimSpace(cont)
		if cont == "" {
			continue
		}
		if body != "" && !strings.HasSuffix(body, ",") {
			body += ","
		}
		body += cont
	}
	return body
}

// Group returns the key shared by records rendered together from one typed value.
// General parameters use "BSB" for both BSB and NOS tags. Opaque records and
// comments have no group.
func (r Record) Group() string {
	switch r.Kind {
	case KindOpaque, KindComment:
		return ""
	case KindGeneral:
		return "BSB"
	}
	return r.Tag
}

// Text returns the record as it appears in the header, one line per element
func (r Record) Text() string {
	return strings.Join(r.Lines, "\n")
}
