package text

import (
	"errors"
	"strings"
	"testing"

	"github.com/dyuri/kapconv/internal/model"
	"golang.org/x/text/encoding/charmap"
)

func TestWriteRoundTrip(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(out) != sampleHeader {
		t.Errorf("round trip mismatch\ngot:\n%q\nwant:\n%q", out, sampleHeader)
	}
}

func TestWriteRoundTripHighBytes(t *testing.T) {
	input := strings.Replace(sampleHeader, "! Sample chart", "! Carte \xe9t\xe9 \xb0", 1)
	h, _ := decodeString(t, input)

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(out) != input {
		t.Errorf("round trip mismatch\ngot:  %q\nwant: %q", out, input)
	}
}

func TestWriteNewHeader(t *testing.T) {
	palettes, err := model.NewPaletteTable(model.DepthFour, map[model.PaletteKind][]model.Color{
		model.PaletteRGB: {{R: 255}},
	})
	if err != nil {
		t.Fatalf("NewPaletteTable failed: %v", err)
	}
	h := &model.Header{
		Version:  "3.0",
		General:  model.GeneralParameters{Name: "Test", Width: 4, Height: 1},
		Depth:    model.DepthFour,
		Palettes: palettes,
	}

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := "VER/3.0\r\n" +
		"BSB/NA=Test,RA=4,1\r\n" +
		"IFM/4\r\n" +
		"RGB/1,255,0,0\r\n" +
		"\x1a\x00"
	if string(out) != want {
		t.Errorf("Encode = %q, want %q", out, want)
	}
}

func TestWriteChangedGroupInPlace(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)
	h.General.Name = "Renamed Harbor"

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := strings.Replace(sampleHeader, "NA=Sample Harbor", "NA=Renamed Harbor", 1)
	if string(out) != want {
		t.Errorf("Encode = %q, want %q", out, want)
	}
}

func TestWriteChangedPalette(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)
	palettes, err := model.NewPaletteTable(model.DepthFour, map[model.PaletteKind][]model.Color{
		model.PaletteRGB: {{R: 255}, {G: 255}, {B: 255}},
		model.PaletteDAY: {{R: 250, G: 250, B: 250}},
	})
	if err != nil {
		t.Fatalf("NewPaletteTable failed: %v", err)
	}
	h.Palettes = palettes

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := strings.Replace(sampleHeader, "RGB/2,0,255,0\r\n", "RGB/2,0,255,0\r\nRGB/3,0,0,255\r\n", 1)
	if string(out) != want {
		t.Errorf("Encode = %q, want %q", out, want)
	}
}

func TestWriteInsertsMissingGroup(t *testing.T) {
	input := strings.Replace(sampleHeader, "DTM/0.12,-0.5\r\n", "", 1)
	h, _ := decodeString(t, input)
	h.DatumShift = &model.DatumShift{North: 1.5, East: -2}

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := strings.Replace(sampleHeader, "DTM/0.12,-0.5", "DTM/1.5,-2", 1)
	if string(out) != want {
		t.Errorf("Encode = %q, want %q", out, want)
	}
}

func TestWriteDropsRemovedGroup(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)
	h.Detailed = nil

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(out), "KNP/") || strings.Contains(string(out), "TA=90") {
		t.Errorf("KNP record still written: %q", out)
	}
}

func TestWriteKeepsUnknownFields(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)
	h.Detailed.Scale = 50000

	out, err := Encode(h, nil, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "KNP/SC=50000,GD=WGS84,PR=MERCATOR") {
		t.Errorf("updated scale not written: %q", s)
	}
	for _, key := range []string{"PP=48.0", "SP=", "TA=90", "DY=2.0"} {
		if !strings.Contains(s, key) {
			t.Errorf("field %s lost: %q", key, s)
		}
	}
	for _, line := range strings.Split(s, "\r\n") {
		if len(line) > maxLineWidth {
			t.Errorf("line %q longer than %d", line, maxLineWidth)
		}
	}
}

func TestWriteInvalidHeader(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)
	h.General.Name = ""

	_, err := Encode(h, nil, nil)
	var perr *model.HeaderParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want HeaderParseError", err)
	}
	if perr.Field != "NA" {
		t.Errorf("Field = %q, want NA", perr.Field)
	}
}

func TestWriteUnencodableText(t *testing.T) {
	h, _ := decodeString(t, sampleHeader)
	h.General.Name = "Harbour ☃"

	if _, err := Encode(h, charmap.ISO8859_1, nil); err == nil {
		t.Error("expected an encoding error")
	}
}

func TestMergeFields(t *testing.T) {
	fields := []model.Field{
		{Key: "NA", Value: "Old"},
		{Key: "XX", Value: "kept"},
		{Key: "DU", Value: "0254"},
	}
	num := func(s string) string { return formatInt(parsePositive(s)) }

	tests := []struct {
		name  string
		known []knownField
		want  string
	}{
		{
			name: "unchanged keeps raw text",
			known: []knownField{
				{key: "NA", current: "Old", canon: strings.TrimSpace},
				{key: "DU", current: "254", canon: num},
			},
			want: "NA=Old,XX=kept,DU=0254",
		},
		{
			name: "changed value replaced",
			known: []knownField{
				{key: "NA", current: "New", canon: strings.TrimSpace},
				{key: "DU", current: "300", canon: num},
			},
			want: "NA=New,XX=kept,DU=300",
		},
		{
			name: "cleared value dropped",
			known: []knownField{
				{key: "NA", current: "Old", canon: strings.TrimSpace},
				{key: "DU", current: "", canon: num},
			},
			want: "NA=Old,XX=kept",
		},
		{
			name: "missing key appended",
			known: []knownField{
				{key: "NA", current: "Old", canon: strings.TrimSpace},
				{key: "NU", current: "7", canon: strings.TrimSpace},
			},
			want: "NA=Old,XX=kept,DU=0254,NU=7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(mergeFields(fields, tt.known), ",")
			if got != tt.want {
				t.Errorf("mergeFields = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapFields(t *testing.T) {
	parts := make([]string, 20)
	for i := range parts {
		parts[i] = "AB=0123456789"
	}
	lines := wrapFields("KNP", parts)

	if len(lines) < 2 {
		t.Fatalf("got %d lines, want wrapping", len(lines))
	}
	if !strings.HasPrefix(lines[0], "KNP/") {
		t.Errorf("first line = %q", lines[0])
	}
	for i, line := range lines {
		if len(line) > maxLineWidth {
			t.Errorf("line %d is %d wide", i, len(line))
		}
		if i > 0 && !strings.HasPrefix(line, continuationIndent) {
			t.Errorf("line %d = %q, want continuation indent", i, line)
		}
	}
	rec := model.Record{Kind: model.KindDetailed, Tag: "KNP", Lines: lines}
	if got := len(parseFields(rec.Body())); got != len(parts) {
		t.Errorf("reparsed %d fields, want %d", got, len(parts))
	}
}
