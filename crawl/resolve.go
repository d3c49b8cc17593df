package crawl

import (
	"context"
	"slices"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"fspider/resource"
	"fspider/spider"
	"fspider/state"
	"fspider/utils/urls"
)

// Result is output document produced for a single entry stylesheet.
type Result struct {
	Session  string              `json:"session" yaml:"session"`
	Entry    string              `json:"entry" yaml:"entry"`
	Imports  int                 `json:"imports" yaml:"imports"`
	Skipped  int                 `json:"skipped" yaml:"skipped"`
	Records  []spider.Record     `json:"records" yaml:"records"`
	Families []FamilySummary     `json:"families,omitempty" yaml:"families,omitempty"`
	Files    []resource.FontFile `json:"files,omitempty" yaml:"files,omitempty"`
}

// FamilySummary aggregates records of a single font family.
type FamilySummary struct {
	Family string   `json:"family" yaml:"family"`
	Faces  int      `json:"faces" yaml:"faces"`
	Usages int      `json:"usages" yaml:"usages"`
	Files  []string `json:"files" yaml:"files"`
	Chars  string   `json:"chars" yaml:"chars"`
}

func resolveEntry(ctx context.Context, fetcher spider.Fetcher, entry string, log *zap.Logger) (*Result, error) {
	env := state.EnvFromContext(ctx)

	opts := spider.Options{
		Cache:      env.Cfg.Spider.Cache,
		Ignore:     env.Cfg.Spider.Ignore,
		MaxImports: env.Cfg.Spider.MaxImports,
	}
	for _, m := range env.Cfg.Spider.Map {
		opts.Map = append(opts.Map, spider.MapRule{Pattern: m.Pattern, Replacement: m.Replacement})
	}

	s, err := spider.NewSession(opts, fetcher, log)
	if err != nil {
		return nil, err
	}

	log.Info("Resolving stylesheet", zap.String("entry", entry), zap.String("session", s.ID()))

	records, err := s.ResolveURL(ctx, entry)
	if err != nil {
		return nil, err
	}

	if n := s.Skipped(); n > 0 {
		log.Warn("Some rules were skipped, see log for details", zap.String("entry", entry), zap.Int("skipped", n))
	}
	log.Info("Stylesheet resolved",
		zap.String("entry", entry),
		zap.Int("records", len(records)),
		zap.Int("imports", s.Imports()),
		zap.Int("cached", s.Cached()))

	res := &Result{
		Session: s.ID(),
		Entry:   entry,
		Imports: s.Imports(),
		Skipped: s.Skipped(),
		Records: records,
	}
	if env.Cfg.Output.Summary {
		res.Families = summarize(records)
	}
	if env.Cfg.Output.CheckFiles {
		res.Files = checkFiles(records, log)
	}
	return res, nil
}

// summarize groups records by family. Families are ordered naturally, so
// "Font 2" goes before "Font 10".
func summarize(records []spider.Record) []FamilySummary {
	index := make(map[string]*FamilySummary)
	chars := make(map[string]map[string]struct{})

	get := func(family string) *FamilySummary {
		fs, ok := index[family]
		if !ok {
			fs = &FamilySummary{Family: family, Files: []string{}}
			index[family] = fs
			chars[family] = make(map[string]struct{})
		}
		return fs
	}

	for _, r := range records {
		switch {
		case r.FontFace != nil:
			fs := get(r.FontFace.Family)
			fs.Faces++
			for _, f := range r.FontFace.Files {
				if !slices.Contains(fs.Files, f) {
					fs.Files = append(fs.Files, f)
				}
			}
		case r.FontUsage != nil:
			for _, family := range r.FontUsage.Families {
				fs := get(family)
				fs.Usages++
				for _, c := range r.FontUsage.Chars {
					chars[family][c] = struct{}{}
				}
			}
		}
	}

	out := make([]FamilySummary, 0, len(index))
	for family, fs := range index {
		set := make([]string, 0, len(chars[family]))
		for c := range chars[family] {
			set = append(set, c)
		}
		sort.Strings(set)
		for _, c := range set {
			fs.Chars += c
		}
		out = append(out, *fs)
	}
	sort.Slice(out, func(i, j int) bool {
		return natural.Less(out[i].Family, out[j].Family)
	})
	return out
}

// checkFiles inspects local font files referenced by @font-face records.
// Remote files are not downloaded.
func checkFiles(records []spider.Record, log *zap.Logger) []resource.FontFile {
	seen := make(map[string]struct{})
	out := make([]resource.FontFile, 0)

	for _, r := range records {
		if r.FontFace == nil {
			continue
		}
		for _, path := range r.FontFace.Files {
			if _, ok := seen[path]; ok || urls.IsRemote(path) {
				continue
			}
			seen[path] = struct{}{}

			ff, err := resource.InspectFontFile(path)
			if err != nil {
				log.Warn("Unable to check font file", zap.String("file", path), zap.Error(err))
				out = append(out, ff)
				continue
			}
			if !ff.Valid {
				log.Warn("Font file content does not match its extension", zap.String("file", path), zap.String("type", ff.MimeType))
			} else if !resource.IsFontMIME(ff.MimeType) {
				log.Debug("Font file has unexpected extension", zap.String("file", path))
			}
			out = append(out, ff)
		}
	}
	return out
}
