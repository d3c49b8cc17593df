package config

import (
	"os"
	"strings"
)

const badFileName = "_bad_file_name_"

// CleanFileName makes name usable as a single path element on the current
// platform: separators and reserved characters are dropped, leading dots
// are trimmed so results never end up hidden.
func CleanFileName(in string) string {
	reserved := reservedRunes + string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.Map(func(r rune) rune {
		if r == 0 || strings.ContainsRune(reserved, r) {
			return -1
		}
		return r
	}, in)
	if out = strings.TrimLeft(out, ". "); len(out) == 0 {
		return badFileName
	}
	return out
}
