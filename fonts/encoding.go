package fonts

import (
	"golang.org/x/text/encoding/charmap"
)

// Encode converts text to WinAnsi bytes. Runes outside the encoding are
// replaced by '?'.
func Encode(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// EncodeRune returns the WinAnsi code of r.
func EncodeRune(r rune) (byte, bool) {
	switch r {
	case '\t', '\n', '\r':
		return ' ', true
	}
	if r < 0x20 {
		return 0, false
	}
	return charmap.Windows1252.EncodeRune(r)
}

func decodeWinAnsi(b byte) rune {
	return charmap.Windows1252.DecodeByte(b)
}
