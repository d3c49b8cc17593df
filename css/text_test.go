package css

import "testing"

func TestSourceText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"whitespace collapsed", "div  >\n\tp", "div > p"},
		{"comment is space", "a/* c */b", "a b"},
		{"open comment at end", "a /* open", "a"},
		{"string kept as is", `"a  /* b */"`, `"a  /* b */"`},
		{"escaped quote in string", `"a\"  b"`, `"a\"  b"`},
		{"line continuation dropped", "\"a\\\nb\"", `"ab"`},
		{"string closed at end", `"Hi`, `"Hi"`},
		{"leading space dropped", "  x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceText([]byte(tt.input)); got != tt.want {
				t.Errorf("sourceText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAtRulePrelude(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		media string
	}{
		{"url with media", "@import url(a.css) print;", "url(a.css) print", "print"},
		{"string without space", `@import "a.css"screen;`, `"a.css"screen`, "screen"},
		{"paren inside quoted url", `@import url("a)b") x;`, `url("a)b") x`, "x"},
		{"upper case keyword", "@IMPORT URL(a.css) Print;", "URL(a.css) Print", "Print"},
		{"no terminator", `@import "a.css"`, `"a.css"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := atRulePrelude([]byte(tt.input), "@import", ";}")
			if got != tt.want {
				t.Errorf("atRulePrelude(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if media := trimTerminator(afterURL(got), ""); media != tt.media {
				t.Errorf("afterURL(%q) = %q, want %q", got, media, tt.media)
			}
		})
	}
}
