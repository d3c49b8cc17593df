package spider

import (
	"slices"
	"strings"

	"fspider/css"
)

// Font descriptor defaults and aliases.
const (
	DescriptorNormal = "normal"
	weightRegular    = "400"
)

// Descriptors are font selection properties disambiguating faces of the same
// family. Values are kept as declared, missing ones default to "normal".
type Descriptors struct {
	Variant string `json:"font-variant" yaml:"font-variant"`
	Stretch string `json:"font-stretch" yaml:"font-stretch"`
	Weight  string `json:"font-weight" yaml:"font-weight"`
	Style   string `json:"font-style" yaml:"font-style"`
}

// descriptorsFrom reads descriptors from declaration block.
func descriptorsFrom(props css.Declarations) Descriptors {
	get := func(name string) string {
		if v, ok := props.Get(name); ok {
			return v
		}
		return DescriptorNormal
	}
	return Descriptors{
		Variant: get("font-variant"),
		Stretch: get("font-stretch"),
		Weight:  get("font-weight"),
		Style:   get("font-style"),
	}
}

// Normalized returns descriptors in the form used for comparison and
// identity: empty values become "normal" and weight "400" is an alias of
// "normal".
func (d Descriptors) Normalized() Descriptors {
	norm := func(v string) string {
		if v = strings.TrimSpace(v); v == "" {
			return DescriptorNormal
		}
		return v
	}
	n := Descriptors{
		Variant: norm(d.Variant),
		Stretch: norm(d.Stretch),
		Weight:  norm(d.Weight),
		Style:   norm(d.Style),
	}
	if n.Weight == weightRegular {
		n.Weight = DescriptorNormal
	}
	return n
}

// FontFace describes one declared font source.
type FontFace struct {
	ID          string      `json:"id" yaml:"id"`
	Family      string      `json:"family" yaml:"family"`
	Files       []string    `json:"files" yaml:"files"`
	Selectors   []string    `json:"selectors" yaml:"selectors"`
	Chars       []string    `json:"chars" yaml:"chars"`
	Descriptors Descriptors `json:"descriptors" yaml:"descriptors"`
}

// FontUsage describes one place in CSS referencing a font (with fallbacks)
// and literal characters rendered in that context.
type FontUsage struct {
	IDs         []string    `json:"ids" yaml:"ids"`
	Families    []string    `json:"families" yaml:"families"`
	Selectors   []string    `json:"selectors" yaml:"selectors"`
	Chars       []string    `json:"chars" yaml:"chars"`
	Descriptors Descriptors `json:"descriptors" yaml:"descriptors"`
}

// Record is a single resolution result.
// Exactly one of FontFace or FontUsage is non-nil.
type Record struct {
	FontFace  *FontFace  `json:"font_face,omitempty" yaml:"font_face,omitempty"`
	FontUsage *FontUsage `json:"font_usage,omitempty" yaml:"font_usage,omitempty"`
}

// Kind returns name of the record type.
func (r Record) Kind() string {
	switch {
	case r.FontFace != nil:
		return "font-face"
	case r.FontUsage != nil:
		return "font-usage"
	default:
		return ""
	}
}

// Clone returns deep copy of the record sharing no memory with original.
func (r Record) Clone() Record {
	var c Record
	if r.FontFace != nil {
		ff := *r.FontFace
		ff.Files = cloneStrings(ff.Files)
		ff.Selectors = cloneStrings(ff.Selectors)
		ff.Chars = cloneStrings(ff.Chars)
		c.FontFace = &ff
	}
	if r.FontUsage != nil {
		fu := *r.FontUsage
		fu.IDs = cloneStrings(fu.IDs)
		fu.Families = cloneStrings(fu.Families)
		fu.Selectors = cloneStrings(fu.Selectors)
		fu.Chars = cloneStrings(fu.Chars)
		c.FontUsage = &fu
	}
	return c
}

// CloneRecords deep copies list of records.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

// cloneStrings keeps empty non-nil slices non-nil, so copies compare equal.
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}
