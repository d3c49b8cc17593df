package resource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// headerSize is enough for signature detection of all supported font formats.
const headerSize = 262

// FontFile describes local font file referenced by @font-face.
type FontFile struct {
	Path     string `json:"path" yaml:"path"`
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"` // by extension, empty when unknown
	Valid    bool   `json:"valid" yaml:"valid"`                             // content matches MimeType (always true for formats without signature check)
}

// InspectFontFile reads font file header and checks that content matches
// the type suggested by file extension.
func InspectFontFile(path string) (FontFile, error) {
	ff := FontFile{Path: path, MimeType: ExtToMimeType(filepath.Ext(path))}

	f, err := os.Open(path)
	if err != nil {
		return ff, fmt.Errorf("unable to open font file: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ff, fmt.Errorf("unable to read font file: %w", err)
	}
	ff.Valid = validateFontData(ff.MimeType, header[:n])
	return ff, nil
}

// validateFontData performs sanity check of font data against its MIME type.
func validateFontData(mimeType string, data []byte) bool {
	switch mimeType {
	case "font/woff":
		return filetype.Is(data, "woff")
	case "font/woff2":
		return filetype.Is(data, "woff2")
	case "font/ttf":
		return filetype.Is(data, "ttf")
	case "font/otf":
		return filetype.Is(data, "otf")
	}
	return true
}

// ExtToMimeType returns MIME type for common font file extensions.
func ExtToMimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".eot":
		return "application/vnd.ms-fontobject"
	case ".svg":
		return "image/svg+xml"
	default:
		return ""
	}
}

// IsFontMIME returns true if the MIME type indicates a font resource.
func IsFontMIME(mimeType string) bool {
	return strings.HasPrefix(mimeType, "font/") ||
		strings.HasPrefix(mimeType, "application/font-") ||
		strings.HasPrefix(mimeType, "application/x-font-") ||
		mimeType == "application/vnd.ms-fontobject"
}
