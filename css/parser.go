package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"fspider/utils/urls"
)

var importantSuffix = regexp.MustCompile(`(?i)\s*!\s*important$`)

// Parser parses CSS stylesheets into structured items.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. The source parameter identifies
// what's being parsed and is used for logging and error reporting only.
// Tokenizer level failures are returned as errors, everything the parser
// can recover from is recorded in Stylesheet.Warnings.
func (p *Parser) Parse(data []byte, source string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	st := &parseState{
		parser: css.NewParser(parse.NewInput(bytes.NewReader(data)), false),
		sheet:  sheet,
		src:    data,
	}
	sheet.Items = p.parseItems(st, false)

	if st.err != nil {
		return nil, fmt.Errorf("unable to parse css from %s: %w", source, st.err)
	}
	return sheet, nil
}

// parseState carries tokenizer and the first fatal error through nested
// parsing calls. The tokenizer resets its error on every step, so it has to
// be captured when it is reported. Tokenizer drops whitespace around
// delimiters, so text of selectors and values is taken from the input
// between offsets of consecutive grammar items.
type parseState struct {
	parser     *css.Parser
	sheet      *Stylesheet
	src        []byte
	start, end int
	err        error
}

// next advances the tokenizer remembering the first non EOF error.
func (st *parseState) next() (css.GrammarType, []byte) {
	gt, _, data := st.parser.Next()
	if gt == css.ErrorGrammar && st.err == nil {
		if err := st.parser.Err(); err != nil && !errors.Is(err, io.EOF) {
			st.err = err
		}
	}
	st.start, st.end = st.end, min(max(st.parser.Offset(), st.end), len(st.src))
	return gt, data
}

// span returns input consumed by the last grammar item.
func (st *parseState) span() []byte {
	return st.src[st.start:st.end]
}

// parseItems consumes grammar until the end of input or, for nested blocks,
// until the end of the enclosing @-rule.
func (p *Parser) parseItems(st *parseState, nested bool) []StylesheetItem {
	parser, sheet := st.parser, st.sheet
	items := make([]StylesheetItem, 0)

	for {
		gt, data := st.next()

		switch gt {
		case css.ErrorGrammar:
			if st.err != nil {
				p.log.Debug("CSS parse error", zap.Error(st.err))
			}
			return items

		case css.EndAtRuleGrammar:
			if nested {
				return items
			}

		case css.BeginAtRuleGrammar:
			atRule := strings.ToLower(string(data))
			switch atRule {
			case "@media":
				query := atRulePrelude(st.span(), atRule, "{")
				nestedItems := p.parseItems(st, true)
				p.log.Debug("Parsed @media block", zap.String("query", query), zap.Int("items", len(nestedItems)))
				items = append(items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: query, Items: nestedItems},
				})
			case "@font-face":
				ff := FontFace{Properties: p.parseDeclarations(st, css.EndAtRuleGrammar)}
				items = append(items, StylesheetItem{FontFace: &ff})
			default:
				p.skipAtRuleBlock(st)
				sheet.Warnings = append(sheet.Warnings, "skipped @-rule block: "+atRule)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			atRule := strings.ToLower(string(data))
			if atRule == "@import" {
				imp := Import{
					Href:  importHref(parser.Values()),
					Media: strings.TrimSpace(afterURL(atRulePrelude(st.span(), atRule, ";}"))),
				}
				if imp.Href != "" {
					items = append(items, StylesheetItem{Import: &imp})
					p.log.Debug("Parsed @import", zap.String("url", imp.Href), zap.String("media", imp.Media))
				} else {
					sheet.Warnings = append(sheet.Warnings, "@import without url")
				}
			} else {
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.BeginRulesetGrammar:
			selectors := urls.SplitList(trimTerminator(sourceText(st.span()), "{"))

			props := p.parseDeclarations(st, css.EndRulesetGrammar)
			if len(selectors) == 0 {
				sheet.Warnings = append(sheet.Warnings, "ruleset without selector")
				continue
			}
			items = append(items, StylesheetItem{Rule: &Rule{
				SelectorText: strings.Join(selectors, ","),
				Selectors:    selectors,
				Properties:   props,
			}})
		}
	}
}

// importHref extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url) screen;
func importHref(tokens []css.Token) string {
	for i, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return urls.Unquote(string(t.Data))
		case css.URLToken:
			// token data is the whole url(...), name is case insensitive
			s := string(t.Data)
			if i := strings.IndexByte(s, '('); i >= 0 {
				s = s[i+1:]
			}
			return urls.Unquote(strings.TrimSuffix(s, ")"))
		case css.FunctionToken:
			// url( "something" ) is reported as function with string argument
			if !strings.EqualFold(string(t.Data), "url(") {
				continue
			}
			for _, a := range tokens[i+1:] {
				switch a.TokenType {
				case css.StringToken:
					return urls.Unquote(string(a.Data))
				case css.RightParenthesisToken:
					return ""
				}
			}
		}
	}
	return ""
}

// parseDeclarations parses property declarations until the end grammar.
func (p *Parser) parseDeclarations(st *parseState, end css.GrammarType) Declarations {
	props := make(Declarations)

	for {
		gt, data := st.next()

		switch gt {
		case css.ErrorGrammar, end:
			return props

		case css.DeclarationGrammar:
			if v := declarationValue(st.span()); v != "" {
				props[strings.ToLower(string(data))] = v
			}

		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			// nested blocks inside declaration lists are not supported
			p.skipAtRuleBlock(st)

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) - skip for now
			continue
		}
	}
}

// declarationValue returns value part of "name: value;" fragment.
func declarationValue(span []byte) string {
	s := trimTerminator(sourceText(span), ";}")
	_, v, ok := strings.Cut(s, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(importantSuffix.ReplaceAllString(v, ""))
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(st *parseState) {
	depth := 1
	for depth > 0 {
		gt, _ := st.next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}
