package clipboard

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUnicodeText encodes text as CF_UNICODETEXT expects it: UTF-16LE
// code units followed by a single NUL unit.
func EncodeUnicodeText(text string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, err
	}
	return append(b, 0, 0), nil
}
