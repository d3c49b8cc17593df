package state

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// SetDefaultEncoding selects encoding for stylesheets which carry neither
// BOM nor @charset rule. Empty name resets it to UTF-8.
func (e *LocalEnv) SetDefaultEncoding(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		e.DefaultEncoding = nil
		return "utf-8", nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", fmt.Errorf("unknown character set %q: %w", name, err)
	}
	if enc == nil {
		// known to IANA but not supported by x/text
		return "", fmt.Errorf("unsupported character set %q", name)
	}
	e.DefaultEncoding = enc

	n, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return name, nil
	}
	return n, nil
}
