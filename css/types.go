package css

// Declarations is a block of property declarations: lowercased property
// name to value text as written, with comments and !important removed.
// Later declarations of the same property override earlier ones.
type Declarations map[string]string

// Get returns value of the property, second value is false when property
// was not declared or declared empty.
func (d Declarations) Get(name string) (string, bool) {
	v, ok := d[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Rule represents a single style rule (selector list + declarations).
type Rule struct {
	SelectorText string       // Selector list as written, normalized to single comma separators
	Selectors    []string     // Individual selectors in source order
	Properties   Declarations // Property name -> value
}

// FontFace represents an @font-face declaration.
type FontFace struct {
	Properties Declarations
}

// Src returns raw src value of the declaration.
func (ff FontFace) Src() string {
	v, _ := ff.Properties.Get("src")
	return v
}

// StylesheetItem is a single item in a stylesheet.
// Exactly one of Rule, MediaBlock, FontFace or Import is non-nil.
type StylesheetItem struct {
	Rule       *Rule       // A plain rule (selector + properties)
	MediaBlock *MediaBlock // A @media block containing nested items
	FontFace   *FontFace   // A @font-face declaration
	Import     *Import     // An @import reference
}

// Import represents an @import rule.
type Import struct {
	Href  string // URL as written, quotes and url() removed
	Media string // Optional media query list following the URL
}

// MediaBlock represents a @media block with its query and nested items.
type MediaBlock struct {
	Query string // Media query list as written
	Items []StylesheetItem
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for skipped constructs
}
