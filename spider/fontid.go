package spider

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// FontID returns stable identity of a font: MD5 of family and normalized
// descriptors joined with "-", lowercase hex. It is the only key joining font
// declarations with font usages.
func FontID(family string, d Descriptors) string {
	n := d.Normalized()
	sum := md5.Sum([]byte(strings.Join([]string{family, n.Variant, n.Stretch, n.Weight, n.Style}, "-")))
	return hex.EncodeToString(sum[:])
}
