package config

import (
	"fmt"
	"strings"
)

// Specification of requested output format.
type OutputFmt int

const (
	OutputFmtJSON OutputFmt = iota
	OutputFmtYAML
)

var outputFmtNames = []string{"json", "yaml"}

// OutputFmtNames returns list of supported output format names.
func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

// ParseOutputFmt converts name to OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return OutputFmt(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid output format, try [%s]", name, strings.Join(outputFmtNames, ", "))
}

func (o OutputFmt) String() string {
	if o < 0 || int(o) >= len(outputFmtNames) {
		return fmt.Sprintf("OutputFmt(%d)", int(o))
	}
	return outputFmtNames[o]
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtJSON:
		return ".json"
	case OutputFmtYAML:
		return ".yaml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o OutputFmt) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
