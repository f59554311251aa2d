package text

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultCodePage is ISO-8859-1. It maps every byte to one rune and back, so
// headers round trip byte for byte regardless of their real encoding.
const DefaultCodePage = 28591

// Encoding returns the text encoding for a Windows code page number
func Encoding(codePage int) (encoding.Encoding, error) {
	switch codePage {
	case 0, 28591:
		return charmap.ISO8859_1, nil
	case 1252:
		return charmap.Windows1252, nil
	case 1250:
		return charmap.Windows1250, nil
	case 437:
		return charmap.CodePage437, nil
	case 65001:
		// UTF-8 - no conversion needed
		return encoding.Nop, nil
	default:
		return nil, fmt.Errorf("unsupported code page %d", codePage)
	}
}
