package spider

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fspider/css"
	"fspider/resource"
	"fspider/utils/urls"
)

// DefaultMaxImports is the default ceiling of @import rules followed during
// a single session.
const DefaultMaxImports = 15

// MapRule rewrites references matching Pattern (regular expression) with
// Replacement.
type MapRule = urls.MapRule

// Options controls stylesheet resolution.
type Options struct {
	// Cache enables session cache of resolved stylesheets.
	Cache bool
	// Ignore is a list of regular expressions, matching references are dropped.
	Ignore []string
	// Map is an ordered list of rewrite rules, first matching rule wins.
	Map []MapRule
	// MaxImports limits number of imports followed in the whole import tree.
	MaxImports int
}

// DefaultOptions returns options with defaults.
func DefaultOptions() Options {
	return Options{
		Cache:      true,
		MaxImports: DefaultMaxImports,
	}
}

// Fetcher retrieves stylesheet by its normalized URL or path.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*resource.Resource, error)
}

// StylesheetParser builds stylesheet tree from CSS text.
type StylesheetParser interface {
	Parse(data []byte, source string) (*css.Stylesheet, error)
}

// Session is a resolution context of a single top-level crawl. Options,
// import counter and cache are shared by every stylesheet in the import tree.
// Session is safe for concurrent use, but is not supposed to be reused for
// unrelated crawls.
type Session struct {
	id      string
	opts    Options
	rules   *urls.Rules
	fetcher Fetcher
	parser  StylesheetParser
	log     *zap.Logger
	cache   *cache // nil when caching is disabled

	imports atomic.Int64
	skipped atomic.Int64
}

// WithParser replaces default CSS parser.
func WithParser(p StylesheetParser) func(*Session) {
	return func(s *Session) {
		s.parser = p
	}
}

// WithID sets session identifier used in logs instead of generated one.
func WithID(id string) func(*Session) {
	return func(s *Session) {
		s.id = id
	}
}

// NewSession prepares new resolution session.
func NewSession(opts Options, fetcher Fetcher, log *zap.Logger, options ...func(*Session)) (*Session, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("resource fetcher is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxImports <= 0 {
		opts.MaxImports = DefaultMaxImports
	}

	rules, err := urls.NewRules(opts.Ignore, opts.Map)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare url rules: %w", err)
	}

	s := &Session{
		opts:    opts,
		rules:   rules,
		fetcher: fetcher,
	}
	for _, setOpt := range options {
		setOpt(s)
	}
	if s.id == "" {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		s.id = id.String()
	}
	s.log = log.Named("spider").With(zap.String("session", s.id))
	if s.parser == nil {
		s.parser = css.NewParser(log)
	}
	if opts.Cache {
		s.cache = newCache()
	}
	return s, nil
}

// ID returns session identifier.
func (s *Session) ID() string {
	return s.id
}

// Imports returns number of @import rules counted against the ceiling so far.
func (s *Session) Imports() int {
	return int(s.imports.Load())
}

// Skipped returns number of rules dropped because record extraction failed.
func (s *Session) Skipped() int {
	return int(s.skipped.Load())
}

// Cached returns number of stylesheets in session cache.
func (s *Session) Cached() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.len()
}
