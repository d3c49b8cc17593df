package resource

import (
	"path/filepath"
	"testing"
)

var (
	woffHeader  = []byte{'w', 'O', 'F', 'F', 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	woff2Header = []byte{'w', 'O', 'F', '2', 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	ttfHeader   = []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x0c}
	otfHeader   = []byte{'O', 'T', 'T', 'O', 0x00, 0x0c}
)

func TestInspectFontFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		data      []byte
		wantMIME  string
		wantValid bool
	}{
		{"font.woff", woffHeader, "font/woff", true},
		{"font.woff2", woff2Header, "font/woff2", true},
		{"font.ttf", ttfHeader, "font/ttf", true},
		{"font.otf", otfHeader, "font/otf", true},
		{"FONT.WOFF2", woff2Header, "font/woff2", true},
		{"renamed.woff2", woffHeader, "font/woff2", false},
		{"html.woff", []byte("<!DOCTYPE html><html></html>"), "font/woff", false},
		{"empty.ttf", nil, "font/ttf", false},
		{"legacy.eot", []byte("anything"), "application/vnd.ms-fontobject", true},
		{"unknown.bin", []byte("anything"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			writeFile(t, path, tt.data)

			ff, err := InspectFontFile(path)
			if err != nil {
				t.Fatalf("InspectFontFile: %v", err)
			}
			if ff.Path != path || ff.MimeType != tt.wantMIME || ff.Valid != tt.wantValid {
				t.Errorf("InspectFontFile = %+v, want mime %q valid %v", ff, tt.wantMIME, tt.wantValid)
			}
		})
	}
}

func TestInspectFontFile_Missing(t *testing.T) {
	ff, err := InspectFontFile(filepath.Join(t.TempDir(), "absent.woff"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if ff.Valid || ff.MimeType != "font/woff" {
		t.Errorf("unexpected result for missing file: %+v", ff)
	}
}

func TestIsFontMIME(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"font/woff2", true},
		{"application/font-woff", true},
		{"application/x-font-ttf", true},
		{"application/vnd.ms-fontobject", true},
		{"image/svg+xml", false},
		{"text/css", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFontMIME(tt.mime); got != tt.want {
			t.Errorf("IsFontMIME(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}
