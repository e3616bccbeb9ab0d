package chat

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeInput turns one line of terminal input into text. Consoles that still
// run in a Shift_JIS code page send bytes that are not valid UTF-8; those are
// decoded as Shift_JIS.
func DecodeInput(line []byte) (string, error) {
	line = bytes.TrimPrefix(line, utf8BOM)
	if utf8.Valid(line) {
		return strings.TrimSpace(string(line)), nil
	}
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), line)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(decoded)), nil
}
