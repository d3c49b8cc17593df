package crawl

import (
	"strings"

	"fspider/spider"
	"fspider/utils/debug"
)

// dumpResult produces human readable tree of resolved records for debug
// report.
func dumpResult(res *Result) []byte {
	tw := debug.NewTreeWriter()

	tw.TextBlock(0, "entry", res.Entry)
	tw.Line(1, "session: %s", res.Session)
	tw.Line(1, "imports: %d, skipped rules: %d", res.Imports, res.Skipped)

	for i, r := range res.Records {
		switch {
		case r.FontFace != nil:
			dumpFontFace(tw, i, r.FontFace)
		case r.FontUsage != nil:
			dumpFontUsage(tw, i, r.FontUsage)
		}
	}

	if len(res.Families) > 0 {
		tw.Line(1, "families")
		for _, fs := range res.Families {
			tw.TextBlock(2, "family", fs.Family)
			tw.Line(3, "faces: %d, usages: %d", fs.Faces, fs.Usages)
			tw.TextBlock(3, "chars", fs.Chars)
			tw.List(3, "files", fs.Files)
		}
	}
	return []byte(tw.String())
}

func dumpFontFace(tw *debug.TreeWriter, i int, ff *spider.FontFace) {
	tw.Line(1, "[%d] font-face %s", i, ff.ID)
	tw.TextBlock(2, "family", ff.Family)
	dumpDescriptors(tw, ff.Descriptors)
	tw.List(2, "files", ff.Files)
}

func dumpFontUsage(tw *debug.TreeWriter, i int, fu *spider.FontUsage) {
	tw.Line(1, "[%d] font-usage %s", i, strings.Join(fu.IDs, ", "))
	tw.List(2, "families", fu.Families)
	tw.List(2, "selectors", fu.Selectors)
	dumpDescriptors(tw, fu.Descriptors)
	if len(fu.Chars) > 0 {
		tw.TextBlock(2, "chars", strings.Join(fu.Chars, ""))
	}
}

func dumpDescriptors(tw *debug.TreeWriter, d spider.Descriptors) {
	tw.Line(2, "variant=%s stretch=%s weight=%s style=%s", d.Variant, d.Stretch, d.Weight, d.Style)
}
