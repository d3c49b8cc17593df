package spider

import (
	"errors"
	"strings"

	"fspider/css"
	"fspider/utils/urls"
)

var errNoFamily = errors.New("font-family is not declared")

// extractFontFace converts @font-face declaration into a record. Font files
// are resolved against base directory, then ignore filter, mapping and
// normalization are applied; inline data sources are not files and are
// skipped. Empty file list is not an error.
func extractFontFace(ff *css.FontFace, base string, rules *urls.Rules) (*FontFace, error) {
	raw, _ := ff.Properties.Get("font-family")
	family := urls.Unquote(raw)
	if family == "" {
		return nil, errNoFamily
	}

	d := descriptorsFrom(ff.Properties)

	srcs := urls.ExtractURLs(ff.Src())
	resolved := make([]string, 0, len(srcs))
	for _, src := range srcs {
		if urls.IsData(src) {
			continue
		}
		resolved = append(resolved, urls.Resolve(base, src))
	}

	return &FontFace{
		ID:          FontID(family, d),
		Family:      family,
		Files:       rules.ApplyAll(resolved),
		Selectors:   []string{},
		Chars:       []string{},
		Descriptors: d,
	}, nil
}

// extractFontUsage converts style rule declaring font-family into a record.
// Nil is returned for rules which do not declare font-family.
func extractFontUsage(rule *css.Rule) (*FontUsage, error) {
	fontFamily, ok := rule.Properties.Get("font-family")
	if !ok {
		return nil, nil
	}

	families := make([]string, 0)
	for _, f := range urls.SplitList(fontFamily) {
		if f = urls.Unquote(f); f != "" {
			families = append(families, f)
		}
	}
	if len(families) == 0 {
		return nil, errNoFamily
	}

	selectors := urls.SplitList(rule.SelectorText)
	if selectors == nil {
		selectors = []string{}
	}

	chars := make([]string, 0)
	if content, ok := rule.Properties.Get("content"); ok {
		for _, r := range css.Unescape(contentText(content)) {
			chars = append(chars, string(r))
		}
	}

	d := descriptorsFrom(rule.Properties)
	ids := make([]string, 0, len(families))
	for _, family := range families {
		ids = append(ids, FontID(family, d))
	}

	return &FontUsage{
		IDs:         ids,
		Families:    families,
		Selectors:   selectors,
		Chars:       chars,
		Descriptors: d,
	}, nil
}

// contentText returns text of the content string. String left open by the
// end of input has no closing quote.
func contentText(v string) string {
	s := urls.Unquote(v)
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') && s == strings.TrimSpace(v) {
		s = s[1:]
	}
	return s
}
