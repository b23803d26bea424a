package sanitize

import (
	"regexp"
	"strings"
)

// placeholderRe matches our own [TAG_uid] markers. Group 1 is the tag,
// group 2 the 8-char cache key.
var placeholderRe = regexp.MustCompile(`\[([A-Z]+)_([a-f0-9]{8})\]`)

// Placeholder renders the token that stands in for a masked fragment.
func Placeholder(tag, uid string) string {
	return "[" + tag + "_" + uid + "]"
}

// HasPlaceholder reports whether text contains anything shaped like a
// placeholder. The watcher uses it to decide between masking and unmasking.
func HasPlaceholder(text string) bool {
	return placeholderRe.MatchString(text)
}

// indexOutsidePlaceholders returns the byte offset of the first occurrence of
// sub in text that does not overlap an existing placeholder, or -1.
func indexOutsidePlaceholders(text, sub string) int {
	if sub == "" {
		return -1
	}
	ranges := placeholderRe.FindAllStringIndex(text, -1)
	start := 0
	for start <= len(text)-len(sub) {
		idx := strings.Index(text[start:], sub)
		if idx < 0 {
			return -1
		}
		abs := start + idx
		if !overlapsAny(abs, abs+len(sub), ranges) {
			return abs
		}
		start = abs + 1
	}
	return -1
}

func overlapsAny(start, end int, ranges [][]int) bool {
	for _, r := range ranges {
		if start < r[1] && r[0] < end {
			return true
		}
	}
	return false
}
