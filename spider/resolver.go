package spider

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fspider/css"
	"fspider/resource"
	"fspider/utils/urls"
)

// charsetPattern matches @charset declarations, content is already decoded
// by the fetcher and the parser does not need them.
var charsetPattern = regexp.MustCompile(`@charset\b[^;]*;`)

// slot receives output of a single stylesheet item. Imports fill records
// asynchronously, media blocks own slots of their nested items.
type slot struct {
	records  []Record
	children []*slot
}

func flatten(slots []*slot, out []Record) []Record {
	for _, sl := range slots {
		out = append(out, sl.records...)
		out = flatten(sl.children, out)
	}
	return out
}

// ResolveURL fetches entry stylesheet and resolves it. Relative local paths
// are made absolute first.
func (s *Session) ResolveURL(ctx context.Context, ref string) ([]Record, error) {
	target := urls.Normalize(ref)
	if target == "" {
		return nil, fmt.Errorf("empty stylesheet reference")
	}
	if !urls.IsRemote(target) && !filepath.IsAbs(target) {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("unable to get absolute path for %q: %w", target, err)
		}
		target = abs
	}

	res, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	return s.Resolve(ctx, res)
}

// Resolve returns ordered list of font records reachable from stylesheet
// resource. Returned records are owned by the caller.
func (s *Session) Resolve(ctx context.Context, res *resource.Resource) ([]Record, error) {
	if res == nil {
		return nil, fmt.Errorf("nil stylesheet resource")
	}
	return s.cached(ctx, cacheKey(res.File), "", func() (*resource.Resource, error) {
		return res, nil
	})
}

// cached resolves stylesheet identified by key through session cache. Only
// the caller owning cache entry calls load, so concurrent requests of the
// same stylesheet share a single fetch.
func (s *Session) cached(ctx context.Context, key, parent string, load func() (*resource.Resource, error)) ([]Record, error) {
	resolve := func() ([]Record, error) {
		res, err := load()
		if err != nil {
			return nil, err
		}
		return s.resolveUncached(ctx, res, key)
	}

	if s.cache == nil {
		return resolve()
	}

	e, owner, cyclic := s.cache.acquire(key, parent)
	switch {
	case cyclic:
		s.log.Debug("Circular import, bypassing cache", zap.String("file", key), zap.String("parent", parent))
		return resolve()
	case !owner:
		s.log.Debug("Stylesheet cache hit", zap.String("file", key))
		return e.wait(ctx)
	}

	records, err := resolve()
	s.cache.complete(e, records, err)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// resolveUncached parses stylesheet and dispatches its items. Key is the
// location stylesheet was requested by, file is where it was found and the
// base for its references.
func (s *Session) resolveUncached(ctx context.Context, res *resource.Resource, key string) ([]Record, error) {
	file := cacheKey(res.File)
	content := charsetPattern.ReplaceAll(res.Content, nil)

	sheet, err := s.parser.Parse(content, file)
	if err != nil {
		return nil, &ParseError{File: file, Err: err}
	}
	for _, w := range sheet.Warnings {
		s.log.Debug("Stylesheet warning", zap.String("file", file), zap.String("warning", w))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	slots, err := s.dispatch(gctx, g, sheet.Items, sheetRef{file: file, key: key, base: urls.Dir(file)})
	if err != nil {
		// no new imports are started, whatever is in flight is discarded
		cancel()
		_ = g.Wait()
		return nil, err
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := flatten(slots, make([]Record, 0))
	s.log.Debug("Stylesheet resolved", zap.String("file", file), zap.Int("records", len(records)))
	return records, nil
}

// sheetRef identifies stylesheet being dispatched.
type sheetRef struct {
	file string // where stylesheet was found
	key  string // what it was requested as, identifies it in cache
	base string // directory references are resolved against
}

// dispatch processes items of a stylesheet or media block in order. Every
// item gets a slot, imports are resolved in goroutines of the group. Error is
// returned only when import ceiling is crossed.
func (s *Session) dispatch(ctx context.Context, g *errgroup.Group, items []css.StylesheetItem, ref sheetRef) ([]*slot, error) {
	slots := make([]*slot, 0, len(items))

	for _, item := range items {
		sl := &slot{}
		slots = append(slots, sl)

		switch {
		case item.Import != nil:
			target := s.rules.Apply(urls.Resolve(ref.base, urls.Unquote(item.Import.Href)))
			if target == "" {
				s.log.Debug("Import dropped", zap.String("file", ref.file), zap.String("href", item.Import.Href))
				continue
			}
			if n := s.imports.Add(1); n > int64(s.opts.MaxImports) {
				s.log.Warn("Import limit exceeded",
					zap.String("file", ref.file),
					zap.String("import", target),
					zap.Int("limit", s.opts.MaxImports))
				return nil, &ImportLimitError{File: ref.file, Limit: s.opts.MaxImports}
			}
			if len(item.Import.Media) > 0 {
				s.log.Debug("Conditional import", zap.String("file", ref.file), zap.String("import", target), zap.String("media", item.Import.Media))
			}
			g.Go(func() error {
				records, err := s.resolveImport(ctx, target, ref.key)
				if err != nil {
					return &ResolveError{File: ref.file, Err: err}
				}
				sl.records = records
				return nil
			})

		case item.MediaBlock != nil:
			s.log.Debug("Media block", zap.String("file", ref.file), zap.String("query", item.MediaBlock.Query))
			children, err := s.dispatch(ctx, g, item.MediaBlock.Items, ref)
			if err != nil {
				return nil, err
			}
			sl.children = children

		case item.FontFace != nil, item.Rule != nil:
			if rec, ok := s.extract(item, ref.file, ref.base); ok {
				sl.records = []Record{rec}
			}
		}
	}
	return slots, nil
}

// resolveImport fetches imported stylesheet and resolves it recursively.
// Parent is cache key of the importing stylesheet.
func (s *Session) resolveImport(ctx context.Context, target, parent string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.cached(ctx, cacheKey(target), parent, func() (*resource.Resource, error) {
		s.log.Debug("Fetching import", zap.String("url", target), zap.String("parent", parent))
		res, err := s.fetcher.Fetch(ctx, target)
		if err != nil {
			return nil, &FetchError{URL: target, Err: err}
		}
		if res.File == "" {
			res.File = target
		}
		return res, nil
	})
}

// extract converts font-face or style rule into a record. Extraction
// failures are logged and the rule is skipped.
func (s *Session) extract(item css.StylesheetItem, file, base string) (rec Record, ok bool) {
	kind := "style"
	if item.FontFace != nil {
		kind = "font-face"
	}

	fail := func(err error) {
		s.skipped.Add(1)
		s.log.Warn("Rule skipped", zap.Error(&RuleExtractionError{Kind: kind, File: file, Err: err}))
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
			rec, ok = Record{}, false
		}
	}()

	switch {
	case item.FontFace != nil:
		ff, err := extractFontFace(item.FontFace, base, s.rules)
		if err != nil {
			fail(err)
			return Record{}, false
		}
		return Record{FontFace: ff}, true

	case item.Rule != nil:
		fu, err := extractFontUsage(item.Rule)
		if err != nil {
			fail(err)
			return Record{}, false
		}
		if fu == nil {
			return Record{}, false
		}
		return Record{FontUsage: fu}, true
	}
	return Record{}, false
}

// cacheKey returns normalized absolute stylesheet location.
func cacheKey(file string) string {
	key := urls.Normalize(file)
	if key == "" || urls.IsRemote(key) || filepath.IsAbs(key) {
		return key
	}
	if abs, err := filepath.Abs(key); err == nil {
		return abs
	}
	return key
}
