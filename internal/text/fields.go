package text

import (
	"strconv"
	"strings"

	"github.com/dyuri/kapconv/internal/model"
)

// maxLineWidth is the column at which rendered field lists are continued
const maxLineWidth = 80

// continuationIndent prefixes every continuation line
const continuationIndent = "    "

// isFieldStart reports whether s begins with a two character "KEY=" prefix
func isFieldStart(s string) bool {
	if len(s) < 3 || s[2] != '=' {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z' &&
		(s[1] >= 'A' && s[1] <= 'Z' || s[1] >= '0' && s[1] <= '9')
}

// parseFields splits a record body into KEY=value fields.
// A comma separated token that does not start a new field belongs to the
// previous one, so values such as "RA=1000,800" and names with commas survive.
func parseFields(body string) []model.Field {
	var fields []model.Field
	for _, tok := range strings.Split(body, ",") {
		trimmed := strings.TrimSpace(tok)
		if isFieldStart(trimmed) {
			fields = append(fields, model.Field{Key: trimmed[:2], Value: trimmed[3:]})
			continue
		}
		if len(fields) == 0 {
			if trimmed != "" {
				fields = append(fields, model.Field{Value: trimmed})
			}
			continue
		}
		fields[len(fields)-1].Value += "," + tok
	}
	for i := range fields {
		fields[i].Value = strings.TrimSpace(fields[i].Value)
	}
	return fields
}

func findField(fields []model.Field, key string) (model.Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return model.Field{}, false
}

// splitValues splits a comma separated list and trims every element
func splitValues(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseSize parses an RA value "width,height"
func parseSize(s string) (int, int, bool) {
	parts := splitValues(s)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w < 0 || w > model.MaxDimension {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 0 || h > model.MaxDimension {
		return 0, 0, false
	}
	return w, h, true
}

// parsePositive parses an optional non-negative integer, 0 when unparseable
func parsePositive(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// knownField describes a typed field of a field-list record
type knownField struct {
	key     string
	current string              // Rendered typed value, "" when absent
	canon   func(string) string // Renders a raw value the way current would be
}

// mergeFields renders a field list, substituting typed values for known keys.
// A known field whose typed value still matches its raw text is kept verbatim;
// known keys missing from fields are appended in the order given.
func mergeFields(fields []model.Field, known []knownField) []string {
	byKey := make(map[string]knownField, len(known))
	for _, k := range known {
		byKey[k.key] = k
	}
	seen := make(map[string]bool, len(known))

	var parts []string
	for _, f := range fields {
		k, ok := byKey[f.Key]
		if !ok {
			parts = append(parts, formatField(f.Key, f.Value))
			continue
		}
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		switch {
		case k.canon(f.Value) == k.current:
			parts = append(parts, formatField(f.Key, f.Value))
		case k.current != "":
			parts = append(parts, formatField(f.Key, k.current))
		}
	}
	for _, k := range known {
		if !seen[k.key] && k.current != "" {
			parts = append(parts, formatField(k.key, k.current))
		}
	}
	return parts
}

func formatField(key, value string) string {
	if key == "" {
		return value
	}
	return key + "=" + value
}

// wrapFields joins rendered fields into "TAG/..." lines no wider than
// maxLineWidth where possible, using indented continuation lines.
func wrapFields(tag string, parts []string) []string {
	line := tag + "/"
	var lines []string
	for i, p := range parts {
		switch {
		case i == 0:
			line += p
		case len(line)+1+len(p) > maxLineWidth:
			lines = append(lines, line)
			line = continuationIndent + p
		default:
			line += "," + p
		}
	}
	return append(lines, line)
}

// generalFields renders the BSB record fields
func generalFields(g *model.GeneralParameters) []string {
	identity := func(s string) string { return strings.TrimSpace(s) }
	return mergeFields(g.Fields, []knownField{
		{key: "NA", current: g.Name, canon: identity},
		{key: "NU", current: g.Number, canon: identity},
		{key: "RA", current: strconv.Itoa(g.Width) + "," + strconv.Itoa(g.Height), canon: func(s string) string {
			w, h, ok := parseSize(s)
			if !ok {
				return ""
			}
			return strconv.Itoa(w) + "," + strconv.Itoa(h)
		}},
		{key: "DU", current: formatInt(g.DrawingUnits), canon: func(s string) string {
			return formatInt(parsePositive(s))
		}},
	})
}

// detailedFields renders the KNP record fields
func detailedFields(d *model.DetailedParameters) []string {
	identity := func(s string) string { return strings.TrimSpace(s) }
	return mergeFields(d.Fields, []knownField{
		{key: "SC", current: formatInt(d.Scale), canon: func(s string) string {
			return formatInt(parsePositive(s))
		}},
		{key: "GD", current: d.Datum, canon: identity},
		{key: "PR", current: d.Projection, canon: identity},
	})
}
