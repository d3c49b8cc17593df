// Package urls contains stateless helpers for stylesheet and font references:
// unquoting, resolution against base location, ignore filtering, path
// mapping and normalization.
package urls

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// urlExtractPattern extracts URLs from raw CSS value strings such as @font-face src
// or background property values. It matches url("path"), url('path'), and url(path).
var urlExtractPattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"']*))\s*\)`)

// schemePattern recognizes references carrying their own scheme (http:, data:, etc).
// Single letter schemes are Windows drive letters and do not count.
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]+:`)

// Unquote trims the string and strips single matching pair of quotes.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// IsRemote returns true for http(s) URLs.
func IsRemote(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// IsData returns true for inline data: URIs.
func IsData(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "data:")
}

// hasScheme reports if reference is absolute URL of any kind.
func hasScheme(s string) bool {
	return schemePattern.MatchString(s)
}

// Dir returns directory part of a local path or remote URL. Result is suitable
// as base for Resolve.
func Dir(file string) string {
	if IsRemote(file) {
		u, err := url.Parse(file)
		if err != nil {
			return file
		}
		u.RawQuery, u.Fragment = "", ""
		u.Path = path.Dir(u.Path)
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		return u.String()
	}
	return filepath.Dir(file)
}

// Resolve joins base directory with possibly relative reference. No I/O is
// performed. References with their own scheme and absolute local paths are
// returned as is unless base is remote, in which case standard URL reference
// resolution applies.
func Resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if IsRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		if !strings.HasSuffix(b.Path, "/") {
			b.Path += "/"
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}
	if hasScheme(ref) || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(base, filepath.FromSlash(ref))
}

// Normalize returns canonical form of the reference: query and fragment are
// removed from local paths and the path is cleaned, remote URLs lose their
// fragment and get cleaned path. Inline data is returned unchanged.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case IsData(s):
		return s
	case IsRemote(s):
		u, err := url.Parse(s)
		if err != nil {
			return s
		}
		u.Fragment, u.RawFragment = "", ""
		if u.Path != "" {
			trailing := strings.HasSuffix(u.Path, "/")
			u.Path = path.Clean(u.Path)
			if trailing && u.Path != "/" {
				u.Path += "/"
			}
			u.RawPath = ""
		}
		return u.String()
	case hasScheme(s):
		return s
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return ""
	}
	return filepath.Clean(s)
}

// ExtractURLs returns arguments of all url() references of a CSS value in
// order of appearance. local() and format() hints are not references and are
// ignored.
func ExtractURLs(value string) []string {
	var out []string
	for _, m := range urlExtractPattern.FindAllStringSubmatch(value, -1) {
		// Group 1 is quoted URL, group 2 is unquoted
		u := m[1]
		if u == "" {
			u = m[2]
		}
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// SplitList splits comma separated CSS list. Commas inside quotes and
// parentheses do not separate, entries are trimmed and empty ones dropped.
func SplitList(s string) []string {
	var (
		out   []string
		quote rune
		depth int
		start int
	)
	add := func(part string) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			add(s[start:i])
			start = i + 1
		}
	}
	add(s[start:])
	return out
}

// MapRule rewrites references matching Pattern using Replacement, which may
// refer to capture groups ($1, ${name}).
type MapRule struct {
	Pattern     string
	Replacement string
}

type compiledMapRule struct {
	re          *regexp.Regexp
	replacement string
}

// Rules holds compiled ignore and map configuration.
type Rules struct {
	ignore []*regexp.Regexp
	mapped []compiledMapRule
}

// NewRules compiles ignore patterns and map rules, all patterns are regular
// expressions.
func NewRules(ignore []string, mapping []MapRule) (*Rules, error) {
	r := &Rules{}
	for _, p := range ignore {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad ignore pattern %q: %w", p, err)
		}
		r.ignore = append(r.ignore, re)
	}
	for _, m := range mapping {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bad map pattern %q: %w", m.Pattern, err)
		}
		r.mapped = append(r.mapped, compiledMapRule{re: re, replacement: m.Replacement})
	}
	return r, nil
}

// Filter returns empty string when reference matches any of ignore
// patterns, otherwise reference is returned unchanged.
func (r *Rules) Filter(s string) string {
	if r == nil || s == "" {
		return s
	}
	for _, re := range r.ignore {
		if re.MatchString(s) {
			return ""
		}
	}
	return s
}

// Map rewrites reference with the first matching rule.
func (r *Rules) Map(s string) string {
	if r == nil || s == "" {
		return s
	}
	for _, m := range r.mapped {
		if m.re.MatchString(s) {
			return m.re.ReplaceAllString(s, m.replacement)
		}
	}
	return s
}

// Apply runs filter, map and normalize in that order. Empty result means
// reference was dropped.
func (r *Rules) Apply(s string) string {
	return Normalize(r.Map(r.Filter(s)))
}

// ApplyAll applies Apply to every reference keeping order and dropping empty
// results. Result is never nil.
func (r *Rules) ApplyAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = r.Apply(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
