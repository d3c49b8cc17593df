package css

import (
	"bytes"
	"strings"
)

// sourceText returns CSS fragment with comments removed and whitespace runs
// outside of strings collapsed into a single space. String left open at the
// end of input is closed, as tokenizer does it.
func sourceText(b []byte) string {
	var (
		sb    strings.Builder
		quote byte
		space bool
	)
	sb.Grow(len(b))

	for i := 0; i < len(b); i++ {
		c := b[i]
		if quote != 0 {
			switch c {
			case '\\':
				switch {
				case i+1 == len(b):
					// escape of nothing
					continue
				case b[i+1] == '\n' || b[i+1] == '\f':
					// line continuation
					i++
					continue
				case b[i+1] == '\r':
					i++
					if i+1 < len(b) && b[i+1] == '\n' {
						i++
					}
					continue
				}
				sb.WriteByte(c)
				i++
				c = b[i]
			case '\n', '\r', '\f':
				// bad string, newline ends it
				quote, space = 0, true
				continue
			case quote:
				quote = 0
			}
			sb.WriteByte(c)
			continue
		}

		switch c {
		case '/':
			if i+1 < len(b) && b[i+1] == '*' {
				if end := bytes.Index(b[i+2:], []byte("*/")); end >= 0 {
					i += end + 3
				} else {
					i = len(b)
				}
				space = true
				continue
			}
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}

		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false

		switch c {
		case '"', '\'':
			quote = c
		case '\\':
			if i+1 < len(b) {
				sb.WriteByte(c)
				i++
				c = b[i]
			}
		}
		sb.WriteByte(c)
	}

	if quote != 0 {
		sb.WriteByte(quote)
	}
	return sb.String()
}

// trimTerminator removes single trailing character from the set ending CSS
// fragment together with surrounding space.
func trimTerminator(s, set string) string {
	s = strings.TrimSpace(s)
	if len(s) > 0 && strings.IndexByte(set, s[len(s)-1]) >= 0 {
		s = strings.TrimSpace(s[:len(s)-1])
	}
	return s
}

// atRulePrelude returns text between at-keyword and the end of the rule.
func atRulePrelude(span []byte, keyword, terminators string) string {
	s := trimTerminator(sourceText(span), terminators)
	if len(s) >= len(keyword) && strings.EqualFold(s[:len(keyword)], keyword) {
		s = s[len(keyword):]
	}
	return strings.TrimSpace(s)
}

// afterURL returns remainder of the prelude following leading string or
// url() reference.
func afterURL(s string) string {
	if len(s) == 0 {
		return s
	}

	var quote byte
	switch {
	case s[0] == '"' || s[0] == '\'':
		quote = s[0]
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case quote:
				return s[i+1:]
			}
		}
		return ""

	case len(s) >= 4 && strings.EqualFold(s[:4], "url("):
		for i := 4; i < len(s); i++ {
			c := s[i]
			switch {
			case c == '\\':
				i++
			case quote != 0:
				if c == quote {
					quote = 0
				}
			case c == '"' || c == '\'':
				quote = c
			case c == ')':
				return s[i+1:]
			}
		}
		return ""
	}
	return s
}
