package adapter

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Text fields on the wire are single-byte Latin-1. Colour and codepage
// escapes such as ^3 or ^L are plain ASCII and pass through unchanged.
var textCharset = charmap.ISO8859_1

// cString decodes b up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	decoded, err := textCharset.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

// putString encodes s into the fixed slot dst. The slot is already zeroed;
// text longer than len(dst)-1 bytes is cut so the last byte stays NUL. Runes
// outside Latin-1 become the SUB byte 0x1A.
func putString(dst []byte, s string) {
	if len(dst) == 0 {
		return
	}
	encoded, err := encoding.ReplaceUnsupported(textCharset.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		encoded = []byte(s)
	}
	n := len(encoded)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, encoded[:n])
}
