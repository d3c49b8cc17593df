// Package spider resolves stylesheet @import graph into ordered list of font
// facts: declared font sources (@font-face) and places where fonts are used
// together with characters rendered there (style rules with font-family).
//
// Resolution of a single entry stylesheet happens inside a Session which owns
// everything shared by the whole import tree: options, import counter and
// stylesheet cache. Imports are fetched and resolved concurrently, results are
// always merged in source order.
package spider
