package css

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
)

// Unescape decodes CSS escape sequences of string token content (quotes
// already removed): "\201C" becomes U+201C, "\"" becomes '"' and escaped
// newlines are dropped.
//
// See https://www.w3.org/TR/css-syntax-3/#consume-escaped-code-point
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	data := []byte(s)
	var b strings.Builder
	b.Grow(len(data))

	pos := 0
	for pos < len(data) {
		c := data[pos]
		if c != '\\' {
			b.WriteByte(c)
			pos++
			continue
		}

		pos++
		if pos >= len(data) {
			// escaped EOF inside string is ignored
			break
		}
		if parse.IsNewline(data[pos]) {
			if data[pos] == '\r' && pos+1 < len(data) && data[pos+1] == '\n' {
				pos++
			}
			pos++
			continue
		}

		start := pos
		for pos < len(data) && pos-start < 6 && isHex(data[pos]) {
			pos++
		}
		if pos == start {
			// not a hex escape - take next code point literally
			r, size := utf8.DecodeRune(data[pos:])
			b.WriteRune(r)
			pos += size
			continue
		}

		b.WriteRune(hexToRune(string(data[start:pos])))
		if pos < len(data) && parse.IsWhitespace(data[pos]) {
			// single whitespace after hex digits belongs to the escape
			if data[pos] == '\r' && pos+1 < len(data) && data[pos+1] == '\n' {
				pos++
			}
			pos++
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// hexToRune interprets hex digits as code point, zero, surrogates and out of
// range values become U+FFFD.
func hexToRune(digits string) rune {
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || v == 0 || v > unicode.MaxRune || (v >= 0xD800 && v <= 0xDFFF) {
		return unicode.ReplacementChar
	}
	return rune(v)
}
