package resource

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// charsetRulePattern matches @charset rule which, when present, must be the
// very first thing in a stylesheet.
var charsetRulePattern = regexp.MustCompile(`^@charset\s+["']([^"']+)["']\s*;`)

// Decoder converts raw stylesheet bytes to UTF-8. Encoding is chosen in CSS
// order of precedence: byte order mark, @charset rule, fallback encoding
// (UTF-8 when not set).
type Decoder struct {
	Fallback encoding.Encoding
}

// Decode returns UTF-8 content of the stylesheet.
func (d Decoder) Decode(data []byte) ([]byte, error) {
	enc, name := d.detect(data)
	if enc == nil || name == "utf-8" {
		// strip BOM if any
		return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(enc.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("unable to decode stylesheet from %s: %w", name, err)
	}
	return out, nil
}

func (d Decoder) detect(data []byte) (encoding.Encoding, string) {
	switch {
	case bytes.HasPrefix(data, []byte("\xef\xbb\xbf")):
		return nil, "utf-8"
	case bytes.HasPrefix(data, []byte("\xfe\xff")):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), "utf-16be"
	case bytes.HasPrefix(data, []byte("\xff\xfe")):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), "utf-16le"
	}
	if m := charsetRulePattern.FindSubmatch(data); m != nil {
		if enc, name := charset.Lookup(string(m[1])); enc != nil {
			return enc, name
		}
	}
	if d.Fallback != nil {
		return d.Fallback, "fallback"
	}
	return nil, "utf-8"
}
