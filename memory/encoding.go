package memory

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding selects how fixed-length text fields are decoded.
type Encoding int

const (
	// ASCII is single-byte text; bytes above 0x7f are read as Windows-1252.
	ASCII Encoding = iota
	// UTF16LE is little-endian UTF-16 as used by the game's wide strings.
	UTF16LE
)

func (e Encoding) String() string {
	switch e {
	case ASCII:
		return "ascii"
	case UTF16LE:
		return "utf16le"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// Decode converts raw bytes to a string, stopping at the first NUL byte
// (ASCII) or NUL code unit (UTF-16).
func Decode(b []byte, enc Encoding) (string, error) {
	switch enc {
	case ASCII:
		for i, c := range b {
			if c == 0 {
				b = b[:i]
				break
			}
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil

	case UTF16LE:
		n := len(b) &^ 1
		for i := 0; i+1 < len(b); i += 2 {
			if b[i] == 0 && b[i+1] == 0 {
				n = i
				break
			}
		}
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b[:n])
		if err != nil {
			return "", err
		}
		return string(out), nil

	default:
		return "", fmt.Errorf("unknown encoding %v", enc)
	}
}
