package resource

import (
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecoder_Decode(t *testing.T) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(`.a{content:"Ж"}`))
	if err != nil {
		t.Fatalf("unable to prepare utf-16 input: %v", err)
	}

	tests := []struct {
		name     string
		fallback encoding.Encoding
		in       []byte
		want     string
	}{
		{
			name: "plain utf-8",
			in:   []byte(`.a{content:"Ж"}`),
			want: `.a{content:"Ж"}`,
		},
		{
			name: "utf-8 bom stripped",
			in:   append([]byte("\xef\xbb\xbf"), `.a{}`...),
			want: `.a{}`,
		},
		{
			name:     "bom wins over fallback",
			fallback: charmap.Windows1251,
			in:       append([]byte("\xef\xbb\xbf"), `.a{content:"Ж"}`...),
			want:     `.a{content:"Ж"}`,
		},
		{
			name: "utf-16 with bom",
			in:   utf16le,
			want: `.a{content:"Ж"}`,
		},
		{
			name: "charset rule",
			in:   append([]byte(`@charset "windows-1251"; .a{content:"`), 0xcf, 0xf0, 0xe8, '"', '}'),
			want: `@charset "windows-1251"; .a{content:"При"}`,
		},
		{
			name:     "charset rule wins over fallback",
			fallback: charmap.Windows1252,
			in:       append([]byte(`@charset 'koi8-r'; .a{content:"`), 0xf0, 0xd2, 0xc9, '"', '}'),
			want:     `@charset 'koi8-r'; .a{content:"При"}`,
		},
		{
			name:     "utf-8 charset rule ignores fallback",
			fallback: charmap.Windows1251,
			in:       []byte(`@charset "UTF-8"; .a{content:"Ж"}`),
			want:     `@charset "UTF-8"; .a{content:"Ж"}`,
		},
		{
			name:     "fallback",
			fallback: charmap.Windows1252,
			in:       []byte{'.', 'a', '{', 'c', 'o', 'n', 't', 'e', 'n', 't', ':', '"', 0xe9, '"', '}'},
			want:     `.a{content:"é"}`,
		},
		{
			name:     "unknown charset uses fallback",
			fallback: charmap.Windows1252,
			in:       append([]byte(`@charset "x-unknown"; .a{content:"`), 0xe9, '"', '}'),
			want:     `@charset "x-unknown"; .a{content:"é"}`,
		},
		{
			name: "charset rule not at start is ignored",
			in:   []byte(`.a{} @charset "windows-1251";`),
			want: `.a{} @charset "windows-1251";`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decoder{Fallback: tt.fallback}.Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}
